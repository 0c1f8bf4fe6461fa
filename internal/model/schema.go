package model

import (
	"fmt"
	"sort"
	"strings"
)

// FieldKind determines how a field is validated and matched by filters.
type FieldKind string

const (
	KindText  FieldKind = "text"
	KindEnum  FieldKind = "enum"
	KindDate  FieldKind = "date"
	KindPhone FieldKind = "phone"
	KindEmail FieldKind = "email"
)

// Field declares one named value of a record kind.
type Field struct {
	Name     string
	Kind     FieldKind
	Required bool
	Default  string
	Choices  []string // allowed values for KindEnum
}

// NotNull reports whether the field always holds a value once a record is
// created, either because callers must supply it or because it has a default.
func (f Field) NotNull() bool {
	return f.Required || f.Default != ""
}

// Exact reports whether filters compare this field by equality rather than
// by substring.
func (f Field) Exact() bool {
	return f.Kind == KindEnum
}

// Schema is the declared field set of a record kind.
type Schema struct {
	Kind   string  // "task", "todo", "contact"
	Table  string  // table name used by relational backends
	Fields []Field // persisted in this order
}

var (
	// TaskSchema describes records kept by the CSV task planner.
	TaskSchema = &Schema{
		Kind:  "task",
		Table: "tasks",
		Fields: []Field{
			{Name: FieldTitle, Kind: KindText, Required: true},
			{Name: FieldDescription, Kind: KindText},
			{Name: FieldPriority, Kind: KindEnum, Default: PriorityMedium,
				Choices: []string{PriorityHigh, PriorityMedium, PriorityLow}},
			{Name: FieldDueDate, Kind: KindDate},
			{Name: FieldCategory, Kind: KindText},
			{Name: FieldStatus, Kind: KindEnum, Default: StatusPending,
				Choices: []string{StatusPending, StatusInProgress, StatusCompleted, StatusCancelled}},
		},
	}

	// TodoSchema describes records kept by the SQLite todo manager.
	TodoSchema = &Schema{
		Kind:  "todo",
		Table: "tasks",
		Fields: []Field{
			{Name: FieldTitle, Kind: KindText, Required: true},
			{Name: FieldDescription, Kind: KindText},
			{Name: FieldStatus, Kind: KindEnum, Default: StatusPending,
				Choices: []string{StatusPending, StatusCompleted}},
			{Name: FieldPriority, Kind: KindEnum, Default: PriorityMedium,
				Choices: []string{PriorityLow, PriorityMedium, PriorityHigh}},
			{Name: FieldDueDate, Kind: KindDate},
			{Name: FieldCategory, Kind: KindText},
		},
	}

	// ContactSchema describes records kept by the JSON contact manager.
	ContactSchema = &Schema{
		Kind:  "contact",
		Table: "contacts",
		Fields: []Field{
			{Name: FieldName, Kind: KindText, Required: true},
			{Name: FieldPhone, Kind: KindPhone, Required: true},
			{Name: FieldEmail, Kind: KindEmail, Required: true},
		},
	}
)

var schemas = map[string]*Schema{
	TaskSchema.Kind:    TaskSchema,
	TodoSchema.Kind:    TodoSchema,
	ContactSchema.Kind: ContactSchema,
}

// LookupSchema returns the built-in schema for a kind name.
// Plural forms ("tasks") are accepted.
func LookupSchema(kind string) (*Schema, error) {
	k := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(kind)), "s")
	if s, ok := schemas[k]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("unknown record kind %q (valid: %s)", kind, strings.Join(Kinds(), ", "))
}

// Kinds returns the names of the built-in schemas, sorted.
func Kinds() []string {
	var kinds []string
	for k := range schemas {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Field returns the declared field with the given name.
func (s *Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// FieldNames returns the field names in declared order.
func (s *Schema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Columns returns the full persisted column order: id, fields, timestamps.
func (s *Schema) Columns() []string {
	cols := []string{ColumnID}
	cols = append(cols, s.FieldNames()...)
	return append(cols, ColumnCreatedAt, ColumnUpdatedAt)
}

// Required returns the names of fields callers must supply.
func (s *Schema) Required() []string {
	var names []string
	for _, f := range s.Fields {
		if f.Required {
			names = append(names, f.Name)
		}
	}
	return names
}

// HasField reports whether name is a declared field.
func (s *Schema) HasField(name string) bool {
	_, ok := s.Field(name)
	return ok
}

// CheckNames rejects any key of fields that is not declared by the schema.
func (s *Schema) CheckNames(fields map[string]string) error {
	var unknown []string
	for name := range fields {
		if !s.HasField(name) {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return &ValidationError{
		Field:   unknown[0],
		Message: fmt.Sprintf("unknown %s field (valid: %s)", s.Kind, strings.Join(s.FieldNames(), ", ")),
	}
}

// WithDefaults returns a complete field map: every declared field is present,
// omitted ones take the declared default or "".
func (s *Schema) WithDefaults(fields map[string]string) map[string]string {
	out := make(map[string]string, len(s.Fields))
	for _, f := range s.Fields {
		v, ok := fields[f.Name]
		if !ok || (v == "" && f.Default != "") {
			v = f.Default
		}
		out[f.Name] = v
	}
	return out
}
