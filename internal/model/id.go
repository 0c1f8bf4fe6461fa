package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidID is returned when an ID is empty or malformed.
var ErrInvalidID = errors.New("invalid ID format")

// ShortIDLength is the number of leading characters shown in list views.
const ShortIDLength = 8

// IDGenerator produces fresh record identifiers.
type IDGenerator func() string

// NewID returns a random (version 4) UUID string.
func NewID() string {
	return uuid.NewString()
}

var derivedIDSpace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("rk.record"))

// DerivedID returns a name-based (version 5) UUID for a row stored without
// an id. The same position and content always yield the same id, so the row
// can be addressed across loads before it is ever saved.
func DerivedID(index int, row Row) string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	fmt.Fprintf(&b, "%d", index)
	for _, k := range keys {
		fmt.Fprintf(&b, " %q=%q", k, row[k])
	}
	return uuid.NewSHA1(derivedIDSpace, []byte(b.String())).String()
}

// ValidateID checks that an ID is usable as a record key.
// Any non-empty string without surrounding whitespace or separators is
// accepted, so files written by other tools still load.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty ID", ErrInvalidID)
	}
	if strings.TrimSpace(id) != id || strings.ContainsAny(id, "\n\r\t") {
		return fmt.Errorf("%w: %q contains whitespace", ErrInvalidID, id)
	}
	return nil
}

// IsUUID reports whether id is a canonical UUID.
func IsUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// ShortID returns the abbreviated form of id used in tables.
func ShortID(id string) string {
	if len(id) <= ShortIDLength {
		return id
	}
	return id[:ShortIDLength]
}
