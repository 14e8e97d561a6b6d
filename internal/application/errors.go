package application

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrForbidden is returned when the access policy denies the acting principal.
	ErrForbidden = errors.New("application: forbidden")
	// ErrNotFound is returned when the requested resource does not exist or is
	// already terminally cancelled.
	ErrNotFound = errors.New("application: not found")
	// ErrVersionConflict is returned when an optimistic concurrency check
	// fails; the caller should reload and retry from the top.
	ErrVersionConflict = errors.New("application: version conflict")
	// ErrTimeout is returned when the atomic commit exceeded its deadline.
	ErrTimeout = errors.New("application: commit timed out")
)

// BlockedWindow is the time range of a conflicting reservation. Only the
// window is exposed; nothing else about other users' reservations leaks to
// the caller.
type BlockedWindow struct {
	Start time.Time
	End   time.Time
}

// SlotUnavailableError reports that the requested time collides with existing
// reservations. It always carries the blocking windows so callers can render
// alternatives.
type SlotUnavailableError struct {
	Conflicts []BlockedWindow
}

// Error implements the error interface.
func (e *SlotUnavailableError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("application: slot unavailable (%d conflicts)", len(e.Conflicts))
}

// ValidationError captures field level validation issues that callers can
// surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	return "validation failed"
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
