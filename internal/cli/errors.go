package cli

import (
	"fmt"
	"strings"
)

// NotFoundError indicates no record matches an ID or ID prefix.
type NotFoundError struct {
	Type string // record kind, e.g. "task" or "contact"
	ID   string // the ID that was not found
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Type, e.ID)
}

// AmbiguousIDError indicates an ID prefix matches more than one record.
type AmbiguousIDError struct {
	Prefix  string
	Matches []string
}

func (e *AmbiguousIDError) Error() string {
	return fmt.Sprintf("ambiguous ID %q matches: %s", e.Prefix, strings.Join(e.Matches, ", "))
}

// FormatError returns a user-friendly error message.
// It prefixes the error with "error: " for consistent CLI output.
func FormatError(err error) string {
	if err == nil {
		return ""
	}
	return "error: " + err.Error()
}
