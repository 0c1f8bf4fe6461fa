package cli

import (
	"strings"
	"time"

	"github.com/jacksmith/rk/internal/model"
)

// FormatState returns the bracketed state label, colored by state.
func FormatState(state model.RecordState) string {
	label := "[" + string(state) + "]"
	switch state {
	case model.StateDone:
		return Green(label)
	case model.StateOverdue:
		return Red(label)
	case model.StateCancelled:
		return Gray(label)
	default:
		return label
	}
}

// FormatPriority colors a priority value.
func FormatPriority(p string) string {
	switch p {
	case model.PriorityHigh:
		return Red(p)
	case model.PriorityMedium:
		return Yellow(p)
	case model.PriorityLow:
		return Gray(p)
	default:
		return p
	}
}

// Dash returns s, or "-" when s is empty.
func Dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// HasState reports whether records of this schema carry a derived state
// worth showing, i.e. they have a status or a due date.
func HasState(s *model.Schema) bool {
	return s.HasField(model.FieldStatus) || s.HasField(model.FieldDueDate)
}

// summaryFields are the schema fields shown in tables. Long free text is
// left to the detail view and status is replaced by the derived state.
func summaryFields(s *model.Schema) []model.Field {
	var out []model.Field
	for _, f := range s.Fields {
		if f.Name == model.FieldDescription || f.Name == model.FieldStatus {
			continue
		}
		out = append(out, f)
	}
	return out
}

// RecordTable builds a table of records with a header row.
// The short ID comes first, then the state where the kind has one, then the
// summary fields in schema order.
func RecordTable(s *model.Schema, records []model.Record, now time.Time) *Table {
	fields := summaryFields(s)
	withState := HasState(s)

	table := NewTable()
	header := []string{"ID"}
	if withState {
		header = append(header, "STATE")
	}
	for _, f := range fields {
		if f.Kind == model.KindText {
			table.SetMaxWidth(len(header), DefaultMaxTitleWidth)
		}
		header = append(header, strings.ToUpper(f.Name))
	}
	table.SetHeader(header...)

	for _, r := range records {
		row := []string{model.ShortID(r.ID)}
		if withState {
			row = append(row, FormatState(model.ComputeState(r, now)))
		}
		for _, f := range fields {
			v := r.Get(f.Name)
			if f.Name == model.FieldPriority {
				v = FormatPriority(v)
			}
			row = append(row, Dash(firstLine(v)))
		}
		table.AddRow(row...)
	}
	return table
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}
