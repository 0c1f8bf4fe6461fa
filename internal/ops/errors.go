package ops

import "fmt"

// PersistenceError indicates that the backing store failed during a
// Repository operation. The in-memory state has been rolled back.
type PersistenceError struct {
	Op  string // create, update, delete, load, backup, import
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
