package model

import (
	"fmt"
	"maps"
)

// Row is the flat string form of a record used by the document backends:
// column name to value, including id and timestamps.
type Row map[string]string

// ToRow flattens r into its persisted columns.
func ToRow(s *Schema, r Record) Row {
	row := make(Row, len(s.Fields)+3)
	row[ColumnID] = r.ID
	for _, f := range s.Fields {
		row[f.Name] = r.Fields[f.Name]
	}
	row[ColumnCreatedAt] = FormatTime(r.Created)
	row[ColumnUpdatedAt] = FormatTime(r.Updated)
	return row
}

// Values returns the row's values in schema column order.
func (row Row) Values(s *Schema) []string {
	cols := s.Columns()
	vals := make([]string, len(cols))
	for i, c := range cols {
		vals[i] = row[c]
	}
	return vals
}

// FromRow rebuilds a record from persisted columns. Missing schema fields take
// their declared default; unknown columns are ignored. A missing or malformed
// id or timestamp is an error so the caller can skip the row.
func FromRow(s *Schema, row Row) (Record, error) {
	id := row[ColumnID]
	if err := ValidateID(id); err != nil {
		return Record{}, err
	}

	created, err := ParseTime(row[ColumnCreatedAt])
	if err != nil {
		return Record{}, fmt.Errorf("record %s: bad %s %q", id, ColumnCreatedAt, row[ColumnCreatedAt])
	}
	updated, err := ParseTime(row[ColumnUpdatedAt])
	if err != nil {
		return Record{}, fmt.Errorf("record %s: bad %s %q", id, ColumnUpdatedAt, row[ColumnUpdatedAt])
	}
	if updated.Before(created) {
		updated = created
	}

	fields := make(map[string]string, len(s.Fields))
	for _, f := range s.Fields {
		if v, ok := row[f.Name]; ok {
			fields[f.Name] = v
		}
	}

	return Record{
		ID:      id,
		Fields:  s.WithDefaults(fields),
		Created: created,
		Updated: updated,
	}, nil
}

// Clone returns a copy of the row.
func (row Row) Clone() Row {
	return maps.Clone(row)
}
