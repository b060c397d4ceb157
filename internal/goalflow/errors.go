package goalflow

import (
	"errors"
)

var (
	ErrEmptyMessage    = errors.New("message is required")
	ErrMessageTooLong  = errors.New("message is too long")
	ErrMissingThreadID = errors.New("thread id is required")
	ErrMissingUserID   = errors.New("user id is required")
)

// CreationError reports why a goal could not be assembled.
type CreationError struct {
	Field  string
	Reason string
}

func (e *CreationError) Error() string {
	return "invalid goal " + e.Field + ": " + e.Reason
}

// IsValidationError reports whether err rejects the input before the
// pipeline runs.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrEmptyMessage) ||
		errors.Is(err, ErrMessageTooLong) ||
		errors.Is(err, ErrMissingThreadID) ||
		errors.Is(err, ErrMissingUserID)
}
