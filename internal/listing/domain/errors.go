package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrListingNotFound = errors.New("listing not found")
	// ErrConcurrentModification means the listing changed between the read
	// and the state write; the caller should reload and retry the event.
	ErrConcurrentModification = errors.New("listing was modified concurrently")
)

// ValidationError collects field-level violations found while building or
// updating a listing. Callers correct the input and retry.
type ValidationError struct {
	Violations []FieldViolation
}

type FieldViolation struct {
	Field  string
	Reason string
}

func (e *ValidationError) Add(field, reason string) {
	e.Violations = append(e.Violations, FieldViolation{Field: field, Reason: reason})
}

func (e *ValidationError) HasViolations() bool {
	return len(e.Violations) > 0
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = fmt.Sprintf("%s %s", v.Field, v.Reason)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// InvalidTransitionError rejects a lifecycle event fired from a state not in
// its from set. It is a business-rule rejection, not a system fault.
type InvalidTransitionError struct {
	Event Event
	State State
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition: cannot fire %q from state %q", e.Event, e.State)
}
