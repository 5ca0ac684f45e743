package repository

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("repository: not found")
)

// DuplicateKeyError reports a uniqueness violation together with the
// offending field name.
type DuplicateKeyError struct {
	Field string
}

// Error implements error.
func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("repository: duplicate value for field %q", e.Field)
}

// IsDuplicateKey reports whether err wraps a DuplicateKeyError and, if so,
// returns the offending field.
func IsDuplicateKey(err error) (string, bool) {
	var dup *DuplicateKeyError
	if errors.As(err, &dup) {
		return dup.Field, true
	}
	return "", false
}
