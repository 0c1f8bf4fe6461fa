package model

import "time"

// RecordState represents the derived state of a record.
// It is computed on read and never persisted.
type RecordState string

const (
	StateOpen      RecordState = "open"
	StateOverdue   RecordState = "overdue"
	StateDone      RecordState = "done"
	StateCancelled RecordState = "cancelled"
)

// ComputeState derives the state of a record at the given time.
//
// Rules (evaluated in order):
//  1. status completed → done
//  2. status cancelled → cancelled
//  3. due_date set and strictly before today → overdue
//  4. otherwise → open
//
// Kinds without status or due_date are always open.
func ComputeState(r Record, now time.Time) RecordState {
	switch r.Status() {
	case StatusCompleted:
		return StateDone
	case StatusCancelled:
		return StateCancelled
	}
	if IsOverdue(r, now) {
		return StateOverdue
	}
	return StateOpen
}

// IsOverdue reports whether the record's due date lies before the day of now.
// Unparsable or empty due dates are never overdue.
func IsOverdue(r Record, now time.Time) bool {
	due := r.Get(FieldDueDate)
	if due == "" {
		return false
	}
	d, err := time.ParseInLocation(DateFormat, due, now.Location())
	if err != nil {
		return false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return d.Before(today)
}
