package core

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors for handling decisions.
type ErrorCategory string

const (
	ErrCatValidation ErrorCategory = "validation" // Invalid input
	ErrCatExecution  ErrorCategory = "execution"  // Runtime failure
	ErrCatTimeout    ErrorCategory = "timeout"    // Operation timed out
	ErrCatRateLimit  ErrorCategory = "rate_limit" // API rate limited
	ErrCatModel      ErrorCategory = "model"      // Model service failure
	ErrCatExtraction ErrorCategory = "extraction" // Verdict extraction failure
	ErrCatState      ErrorCategory = "state"      // Store corruption/conflict
	ErrCatNetwork    ErrorCategory = "network"    // Network connectivity
	ErrCatNotFound   ErrorCategory = "not_found"  // Resource not found
	ErrCatInternal   ErrorCategory = "internal"   // Unexpected internal error
)

// DomainError represents a structured error from the domain layer.
type DomainError struct {
	Category  ErrorCategory
	Code      string
	Message   string
	Retryable bool
	Cause     error
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (%v)", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches a target.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Category == t.Category && e.Code == t.Code
}

// WithCause wraps an underlying error.
func (e *DomainError) WithCause(cause error) *DomainError {
	e.Cause = cause
	return e
}

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *DomainError {
	return &DomainError{Category: ErrCatValidation, Code: code, Message: message}
}

// NewModelError creates a model-service error. Model errors are retryable
// at the orchestrator level but never inside a single specialist run.
func NewModelError(code, message string) *DomainError {
	return &DomainError{Category: ErrCatModel, Code: code, Message: message, Retryable: true}
}

// NewTimeoutError creates a timeout error.
func NewTimeoutError(code, message string) *DomainError {
	return &DomainError{Category: ErrCatTimeout, Code: code, Message: message, Retryable: true}
}

// NewStateError creates a store error.
func NewStateError(code, message string) *DomainError {
	return &DomainError{Category: ErrCatState, Code: code, Message: message}
}

// NewNotFoundError creates a not-found error.
func NewNotFoundError(code, message string) *DomainError {
	return &DomainError{Category: ErrCatNotFound, Code: code, Message: message}
}

// IsCategory reports whether err is a DomainError of the given category.
func IsCategory(err error, cat ErrorCategory) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Category == cat
	}
	return false
}
