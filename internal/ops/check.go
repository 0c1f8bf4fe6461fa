package ops

import (
	"errors"
	"fmt"
	"time"

	"github.com/jacksmith/rk/internal/model"
)

// Issue is a data integrity problem found in a stored record.
type Issue struct {
	ID      string
	Field   string // empty for record-level problems
	Message string
}

func (i Issue) String() string {
	if i.Field == "" {
		return fmt.Sprintf("%s: %s", i.ID, i.Message)
	}
	return fmt.Sprintf("%s: %s: %s", i.ID, i.Field, i.Message)
}

// Check re-validates every stored record against the schema. Records written
// by hand or by other tools may hold values that input validation would have
// rejected. Due dates in the past are not reported; they make a record
// overdue, not invalid.
func (r *Repository) Check() []Issue {
	var issues []Issue
	for _, rec := range r.records {
		issues = append(issues, checkRecord(r.schema, rec)...)
	}
	return issues
}

func checkRecord(s *model.Schema, rec model.Record) []Issue {
	var issues []Issue
	if err := model.ValidateID(rec.ID); err != nil {
		issues = append(issues, Issue{ID: rec.ID, Message: err.Error()})
	}
	for _, f := range s.Fields {
		v := rec.Fields[f.Name]
		// The zero time accepts every well-formed date.
		cleaned, err := s.ValidateAt(f.Name, v, time.Time{})
		if err != nil {
			msg := err.Error()
			var verr *model.ValidationError
			if errors.As(err, &verr) {
				msg = verr.Message
			}
			issues = append(issues, Issue{ID: rec.ID, Field: f.Name, Message: msg})
			continue
		}
		if cleaned != v {
			issues = append(issues, Issue{ID: rec.ID, Field: f.Name, Message: fmt.Sprintf("value %q is not normalized (want %q)", v, cleaned)})
		}
	}
	if rec.Updated.Before(rec.Created) {
		issues = append(issues, Issue{ID: rec.ID, Message: "updated before it was created"})
	}
	return issues
}
