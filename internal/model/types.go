// Package model defines the core data structures for rk.
package model

import (
	"maps"
	"time"
)

// Well-known field names shared by the built-in schemas.
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldPriority    = "priority"
	FieldDueDate     = "due_date"
	FieldCategory    = "category"
	FieldStatus      = "status"
	FieldName        = "name"
	FieldPhone       = "phone"
	FieldEmail       = "email"
)

// Bookkeeping columns that every persisted record carries in addition to its
// schema fields.
const (
	ColumnID        = "id"
	ColumnCreatedAt = "created_at"
	ColumnUpdatedAt = "updated_at"
)

// Priority values.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// Status values.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// TimeFormat is the layout used for created_at/updated_at in every backend.
const TimeFormat = time.RFC3339Nano

// DateFormat is the layout for date-kind fields such as due_date.
const DateFormat = "2006-01-02"

// Record is one persisted entity. Field order comes from its Schema.
type Record struct {
	ID      string
	Fields  map[string]string
	Created time.Time
	Updated time.Time
}

// Get returns the value of a field, or "" if unset.
func (r Record) Get(name string) string {
	return r.Fields[name]
}

// Status returns the status field. Kinds without a status field return "".
func (r Record) Status() string {
	return r.Fields[FieldStatus]
}

// Clone returns a deep copy so callers cannot alias the field map.
func (r Record) Clone() Record {
	c := r
	c.Fields = maps.Clone(r.Fields)
	if c.Fields == nil {
		c.Fields = map[string]string{}
	}
	return c
}

// FormatTime renders a timestamp the way every backend stores it.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeFormat)
}

// legacyTimeFormat is the zone-less ISO 8601 layout older files were written
// with. Such values are read as local time.
const legacyTimeFormat = "2006-01-02T15:04:05.999999999"

// ParseTime parses a stored timestamp. RFC 3339 with or without fractional
// seconds is accepted, as is the legacy zone-less layout.
func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(TimeFormat, s)
	if err != nil {
		lt, lerr := time.ParseInLocation(legacyTimeFormat, s, time.Local)
		if lerr != nil {
			return time.Time{}, err
		}
		t = lt
	}
	return t.UTC(), nil
}
