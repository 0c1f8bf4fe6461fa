package ops

import (
	"sort"
	"time"

	"github.com/jacksmith/rk/internal/model"
)

// RecordResult is a single record with its computed state.
type RecordResult struct {
	Record model.Record
	State  model.RecordState
}

// ListOptions narrows a listing by derived state.
type ListOptions struct {
	Overdue bool // only records whose due date has passed
	Open    bool // hide done and cancelled records
}

// Annotate computes the state of each record at now and applies opts.
func Annotate(records []model.Record, opts ListOptions, now time.Time) []RecordResult {
	results := make([]RecordResult, 0, len(records))
	for _, rec := range records {
		state := model.ComputeState(rec, now)
		if opts.Overdue && state != model.StateOverdue {
			continue
		}
		if opts.Open && (state == model.StateDone || state == model.StateCancelled) {
			continue
		}
		results = append(results, RecordResult{Record: rec, State: state})
	}
	return results
}

// SortByDueDate orders results by due date, earliest first. Records without a
// due date go last; ties keep their order.
func SortByDueDate(results []RecordResult) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i].Record.Get(model.FieldDueDate), results[j].Record.Get(model.FieldDueDate)
		if a == "" || b == "" {
			return a != "" && b == ""
		}
		return a < b
	})
}
