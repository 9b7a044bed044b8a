package core

import (
	"errors"
	"strings"
)

var (
	// ErrJobNotFound indicates the record was never created or has expired.
	ErrJobNotFound = errors.New("job not found")
	// ErrQueueEmpty indicates a bounded pop timed out with nothing to deliver.
	ErrQueueEmpty = errors.New("queue empty")
)

// ValidationError is a submission-time rejection. It is surfaced
// synchronously to the caller; no job is created and nothing is queued.
type ValidationError struct {
	// Message is the human-readable cause.
	Message string
	// Choices optionally lists the valid values for the rejected field.
	Choices []string
}

func (e *ValidationError) Error() string {
	if len(e.Choices) == 0 {
		return e.Message
	}

	return e.Message + " (valid: " + strings.Join(e.Choices, ", ") + ")"
}

// AsValidation unwraps err into a ValidationError when it is one.
func AsValidation(err error) (*ValidationError, bool) {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr, true
	}

	return nil, false
}
