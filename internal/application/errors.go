package application

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrUnauthorized is returned when no authenticated principal is present.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when a record with the same key already exists.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrInvalidInput is returned when the agenda core rejects its input.
	ErrInvalidInput = errors.New("application: invalid input")
	// ErrScheduleConflict is returned when a favorite overlaps sessions the
	// attendee already committed to.
	ErrScheduleConflict = errors.New("application: schedule conflict")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	if len(v.FieldErrors) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(v.FieldErrors))
	for field := range v.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return "validation failed: " + strings.Join(fields, ", ")
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// merge copies entries from another validation error into the receiver.
func (v *ValidationError) merge(other *ValidationError) {
	if other == nil || len(other.FieldErrors) == 0 {
		return
	}
	for field, msg := range other.FieldErrors {
		v.add(field, msg)
	}
}

// ConflictError lists the committed sessions a new favorite would overlap.
type ConflictError struct {
	SessionID string
	Conflicts []Session
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	if e == nil {
		return ""
	}
	ids := make([]string, 0, len(e.Conflicts))
	for _, session := range e.Conflicts {
		ids = append(ids, session.ID)
	}
	return "application: session " + e.SessionID + " conflicts with " + strings.Join(ids, ", ")
}

// Is lets errors.Is(err, ErrScheduleConflict) match a ConflictError.
func (e *ConflictError) Is(target error) bool {
	return target == ErrScheduleConflict
}
