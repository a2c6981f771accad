package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrContentNotFound = errors.New("content not found")
	ErrDuplicateVote   = errors.New("vote already exists")
	ErrVoteNotFound    = errors.New("vote not found")
)

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
