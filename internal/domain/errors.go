package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrRequired is returned when a required field is missing or empty.
	ErrRequired = fmt.Errorf("%w: required field", ErrValidation)

	// ErrInvalidDate is returned when a date value cannot be parsed.
	ErrInvalidDate = fmt.Errorf("%w: invalid date", ErrValidation)

	// ErrInvalidFormat is returned when data is not in the expected format.
	ErrInvalidFormat = fmt.Errorf("%w: invalid format", ErrValidation)

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")
)

// ValidationError describes a single field that failed validation.
// Message is the complete human readable text returned to API clients.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.Message
}

// Unwrap exposes ErrValidation and the specific sentinel to errors.Is.
func (e *ValidationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrValidation}
	}
	return []error{ErrValidation, e.Err}
}

// NewValidationError creates a ValidationError for field with the given message.
func NewValidationError(field, message string, err error) *ValidationError {
	return &ValidationError{Field: field, Message: message, Err: err}
}

// RequiredFieldError reports that field was missing from the input.
func RequiredFieldError(field string) *ValidationError {
	return NewValidationError(field, field+" is required", ErrRequired)
}

// InvalidDateError reports that value could not be interpreted as a date for field.
func InvalidDateError(field, value string) *ValidationError {
	return NewValidationError(
		field,
		fmt.Sprintf("Invalid date format for %s: %q", field, value),
		ErrInvalidDate,
	)
}
