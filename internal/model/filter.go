package model

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// Filter is a flat conjunction of field predicates: field name to expected
// value. Enum fields and "id" match by (case-insensitive) equality, every
// other field by case-insensitive substring.
type Filter map[string]string

// Fields returns the filtered field names, sorted.
func (f Filter) Fields() []string {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate rejects predicates on fields the schema does not declare.
func (f Filter) Validate(s *Schema) error {
	for _, name := range f.Fields() {
		if name == ColumnID {
			continue
		}
		if !s.HasField(name) {
			return &ValidationError{Field: name, Message: "cannot filter on unknown " + s.Kind + " field"}
		}
	}
	return nil
}

// Matches reports whether r satisfies every predicate. An empty filter
// matches nothing; callers that want "everything" list instead of searching.
func (f Filter) Matches(s *Schema, r Record) bool {
	if len(f) == 0 {
		return false
	}
	fold := cases.Fold()
	for name, want := range f {
		if name == ColumnID {
			if r.ID != want {
				return false
			}
			continue
		}
		field, ok := s.Field(name)
		if !ok {
			return false
		}
		got := r.Fields[name]
		if field.Exact() {
			if fold.String(got) != fold.String(want) {
				return false
			}
			continue
		}
		if !strings.Contains(fold.String(got), fold.String(want)) {
			return false
		}
	}
	return true
}

// Apply returns the records matching f, preserving their order.
func (f Filter) Apply(s *Schema, records []Record) []Record {
	var out []Record
	for _, r := range records {
		if f.Matches(s, r) {
			out = append(out, r)
		}
	}
	return out
}
