package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors
var (
	ErrNotFound          = errors.New("not found")
	ErrAccessDenied      = errors.New("access denied")
	ErrInvalidTransition = errors.New("invalid state transition")
)

// ValidationError is a user-correctable problem attributable to one field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// TransportError wraps a failed call to an entity service.
type TransportError struct {
	Op     string // Operation that failed, e.g. "tracking.set_state"
	Status int    // HTTP status, 0 when the request never got a response
	Err    error
}

func (e *TransportError) Error() string {
	parts := []string{"transport: " + e.Op}
	if e.Status != 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.Status))
	}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	return strings.Join(parts, ": ")
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Temporary reports whether the server failed on its side or never answered.
func (e *TransportError) Temporary() bool {
	return e.Status == 0 || e.Status >= 500
}

// ReconciliationError is returned when refreshing the reminder collection
// after a mutation fails.
type ReconciliationError struct {
	Op  string // Mutation that triggered the refresh
	Err error
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("reconcile after %s: %v", e.Op, e.Err)
}

func (e *ReconciliationError) Unwrap() error {
	return e.Err
}
