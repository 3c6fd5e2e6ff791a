package tracker

import (
	"errors"
	"fmt"

	"bookshelf/internal/storage"
)

// ErrNotFound is returned when the identified reading does not exist
var ErrNotFound = storage.ErrNotFound

// ValidationError reports input that would break a reading invariant.
// Nothing is persisted when it is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// RepositoryError wraps any storage failure other than a missing record
type RepositoryError struct {
	Op  string
	Err error
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *RepositoryError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is (or wraps) a ValidationError
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func repoError(op string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("failed to %s: %w", op, ErrNotFound)
	}
	return &RepositoryError{Op: op, Err: err}
}
