package review

import (
	"errors"
	"fmt"
)

// Common error types for the review recorder
var (
	// ErrNilItem indicates that no item was supplied.
	ErrNilItem = errors.New("memory item cannot be nil")

	// ErrItemNotOwned indicates that the user does not own the item.
	ErrItemNotOwned = errors.New("unauthorized access: item not owned by user")

	// ErrInvalidOutcome indicates an outcome other than correct or incorrect.
	ErrInvalidOutcome = errors.New("invalid review outcome")
)

// ServiceError wraps errors from the recorder with additional context.
// This allows consumers to differentiate between different types of service errors
// using errors.As instead of string matching.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "record_review")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewRecordError returns a new ServiceError for the record_review operation.
func NewRecordError(message string, err error) *ServiceError {
	return &ServiceError{
		Operation: "record_review",
		Message:   message,
		Err:       err,
	}
}
