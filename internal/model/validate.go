package model

import (
	"fmt"
	"strings"
)

// ValidationError holds a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation failure on a named field.
type FieldError struct {
	Field   string
	Message string
}

// Error formats the validation error as a semicolon-separated list of field messages.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether the validation error contains any field errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// ValidateEvent checks that an Event can be stored under its natural key.
// It returns a *ValidationError if any rules fail, or nil if the event is valid.
func ValidateEvent(e *Event) error {
	var ve ValidationError

	if e.OriginID == 0 {
		ve.Errors = append(ve.Errors, FieldError{Field: "origin_id", Message: "is required"})
	}
	if e.SequenceID <= 0 {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "sequence_id",
			Message: fmt.Sprintf("must be positive, got %d", e.SequenceID),
		})
	}
	if e.ActorID == 0 {
		ve.Errors = append(ve.Errors, FieldError{Field: "actor_id", Message: "is required"})
	}
	if e.OccurredAt < 0 {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "occurred_at",
			Message: fmt.Sprintf("must not be negative, got %d", e.OccurredAt),
		})
	}
	// Kinds outside the known set are tolerated and treated as groups.
	if strings.TrimSpace(string(e.OriginKind)) == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "origin_kind", Message: "is required"})
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}
