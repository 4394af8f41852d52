package model

import (
	"errors"
	"fmt"
)

// Common errors used across the application
var (
	// ErrValidation is matched by every *ValidationError
	ErrValidation = errors.New("validation failed")

	// Player errors
	ErrPlayerNotFound = errors.New("player not found")

	// Message errors
	ErrInvalidMode = errors.New("invalid message mode")

	// Update errors
	ErrFieldNotAllowed   = errors.New("field is not updatable")
	ErrInvalidFieldValue = errors.New("invalid value for field")
	ErrInvalidStat       = errors.New("invalid stat type")
)

// ValidationError reports a missing or malformed field on a create request
type ValidationError struct {
	Field  string
	Reason string
	// Err is the underlying sentinel, if any
	Err error
}

// NewValidationError creates a ValidationError for the given field
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrValidation) match any ValidationError
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
