package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Domain error types for consistent error handling across the catalog layer.

var (
	// ErrNotFound is returned when a requested record does not exist.
	// Find and update operations report misses as empty results instead.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when a value fails validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict is returned when a write collides with existing state,
	// e.g. a duplicate machine name.
	ErrConflict = errors.New("conflict")
)

// DomainError wraps a base error with additional context.
type DomainError struct {
	// Base is the underlying error type (e.g., ErrInvalidInput)
	Base error

	// Message provides human-readable context
	Message string

	// Field indicates which field caused the error (for validation errors)
	Field string
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field: %s)", e.Base.Error(), e.Message, e.Field)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Base.Error(), e.Message)
	}
	return e.Base.Error()
}

// Unwrap returns the base error for errors.Is/As support.
func (e *DomainError) Unwrap() error {
	return e.Base
}

// NewNotFoundError creates a not found error with context.
func NewNotFoundError(resource string) *DomainError {
	return &DomainError{
		Base:    ErrNotFound,
		Message: resource,
	}
}

// NewValidationError creates a validation error for a specific field.
func NewValidationError(field, message string) *DomainError {
	return &DomainError{
		Base:    ErrInvalidInput,
		Message: message,
		Field:   field,
	}
}

// NewEnumError reports a value rejected by a closed vocabulary. The message
// names the rejected value and lists every accepted label.
func NewEnumError(field, value string, labels []string) *DomainError {
	return NewValidationError(field, fmt.Sprintf(
		"invalid value %q, valid values: [%s]", value, strings.Join(labels, ", "),
	))
}

// NewRangeError reports a numeric value outside its permitted bounds.
func NewRangeError(field string, value, min, max float64) *DomainError {
	return NewValidationError(field, fmt.Sprintf("value %v out of range [%v, %v]", value, min, max))
}

// NewConflictError creates a conflict error with context.
func NewConflictError(message string) *DomainError {
	return &DomainError{
		Base:    ErrConflict,
		Message: message,
	}
}

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a validation error.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsConflict checks if an error is a conflict error.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
