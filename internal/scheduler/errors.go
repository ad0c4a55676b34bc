package scheduler

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is matched by every input validation failure of the package.
var ErrInvalidInput = errors.New("scheduler: invalid input")

// InputError describes which argument was rejected and why.
type InputError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *InputError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("scheduler: invalid %s: %s", e.Field, e.Reason)
}

// Is lets errors.Is(err, ErrInvalidInput) succeed for any InputError.
func (e *InputError) Is(target error) bool {
	return target == ErrInvalidInput
}

func invalid(field, format string, args ...any) error {
	return &InputError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
