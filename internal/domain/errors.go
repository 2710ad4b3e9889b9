package domain

import "errors"

var (
	// ErrValidation wraps every constructor and Validate failure, so callers
	// can tell malformed input from storage or scheduling errors.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID marks a missing or malformed item, user or session id.
	ErrInvalidID = errors.New("invalid ID")

	// ErrInvalidReviewOutcome marks an outcome other than correct or incorrect.
	ErrInvalidReviewOutcome = errors.New("invalid review outcome")
)
