package model

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"
	"unicode/utf8"
)

// Text length bounds applied to text fields.
const (
	MinTextLength = 1
	MaxTextLength = 255
)

var (
	phoneRegex = regexp.MustCompile(`^\+?[\d\s\-\(\)]{7,}$`)
	emailRegex = regexp.MustCompile(`^[^@]+@[^@]+\.[^@]+$`)
)

// ValidationError indicates a malformed field value. It is reported to the
// caller and never persisted.
type ValidationError struct {
	Field   string // the field that failed validation
	Message string // what went wrong
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
	}
	return e.Message
}

// Validate cleans a raw input value for the named field.
// Returns the cleaned value or a *ValidationError.
func (s *Schema) Validate(field, raw string) (string, error) {
	return s.ValidateAt(field, raw, time.Now())
}

// Text is stored with LF line endings. CSV readers fold CRLF inside quoted
// fields, so keeping CR would not survive a reload.
var lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// ValidateAt is Validate with an explicit clock, used for date checks.
func (s *Schema) ValidateAt(field, raw string, now time.Time) (string, error) {
	f, ok := s.Field(field)
	if !ok {
		return "", &ValidationError{Field: field, Message: fmt.Sprintf("unknown %s field", s.Kind)}
	}

	v := strings.TrimSpace(raw)
	if v == "" {
		if f.Required {
			return "", &ValidationError{Field: field, Message: "this field is required"}
		}
		return "", nil
	}

	switch f.Kind {
	case KindEnum:
		v = strings.ToLower(v)
		if !slices.Contains(f.Choices, v) {
			return "", &ValidationError{
				Field:   field,
				Message: fmt.Sprintf("%q is not one of: %s", v, strings.Join(f.Choices, ", ")),
			}
		}
	case KindDate:
		d, err := time.ParseInLocation(DateFormat, v, now.Location())
		if err != nil {
			return "", &ValidationError{Field: field, Message: "expected date in YYYY-MM-DD format"}
		}
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		if d.Before(today) {
			return "", &ValidationError{Field: field, Message: "date cannot be in the past"}
		}
	case KindPhone:
		if !phoneRegex.MatchString(v) {
			return "", &ValidationError{Field: field, Message: "invalid phone number format"}
		}
	case KindEmail:
		if !emailRegex.MatchString(v) {
			return "", &ValidationError{Field: field, Message: "invalid email format"}
		}
	default:
		v = lineEndings.Replace(v)
		n := utf8.RuneCountInString(v)
		if n < MinTextLength {
			return "", &ValidationError{Field: field, Message: fmt.Sprintf("must be at least %d characters long", MinTextLength)}
		}
		if n > MaxTextLength {
			return "", &ValidationError{Field: field, Message: fmt.Sprintf("must be no more than %d characters long", MaxTextLength)}
		}
	}
	return v, nil
}

// ValidateFields validates every entry of fields and returns the cleaned map.
// The first failure, in schema order, is returned.
func (s *Schema) ValidateFields(fields map[string]string, now time.Time) (map[string]string, error) {
	if err := s.CheckNames(fields); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(fields))
	for _, f := range s.Fields {
		raw, ok := fields[f.Name]
		if !ok {
			continue
		}
		v, err := s.ValidateAt(f.Name, raw, now)
		if err != nil {
			return nil, err
		}
		out[f.Name] = v
	}
	return out, nil
}

// MissingRequired returns the required fields absent or empty in fields.
func (s *Schema) MissingRequired(fields map[string]string) []string {
	var missing []string
	for _, name := range s.Required() {
		if strings.TrimSpace(fields[name]) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}
