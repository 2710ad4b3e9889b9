package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/scry-scheduler/internal/domain"
	"github.com/phrazzld/scry-scheduler/internal/service/review"
	"github.com/phrazzld/scry-scheduler/internal/service/study"
	"github.com/phrazzld/scry-scheduler/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authorization errors
	case errors.Is(err, review.ErrItemNotOwned):
		return http.StatusForbidden

	// Not found errors
	case errors.Is(err, study.ErrSessionNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, store.ErrConcurrentUpdate),
		errors.Is(err, store.ErrDuplicate),
		errors.Is(err, study.ErrNotCurrentItem),
		errors.Is(err, study.ErrSessionFinished):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, study.ErrInvalidMode),
		errors.Is(err, study.ErrInvalidMaxTerms),
		errors.Is(err, study.ErrInvalidItem),
		errors.Is(err, review.ErrInvalidOutcome),
		errors.Is(err, review.ErrNilItem),
		errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, review.ErrItemNotOwned):
		return "You do not own this item"

	case errors.Is(err, study.ErrSessionNotFound):
		return "Session not found"

	case errors.Is(err, store.ErrNotFound):
		return "Item not found"

	case errors.Is(err, store.ErrConcurrentUpdate):
		return "Item was updated concurrently, please retry"

	case errors.Is(err, store.ErrDuplicate):
		return "Item already exists"

	case errors.Is(err, study.ErrNotCurrentItem):
		return "Item is not the current session item"

	case errors.Is(err, study.ErrSessionFinished):
		return "Session is finished"

	case errors.Is(err, study.ErrInvalidMode):
		return "Invalid session mode"

	case errors.Is(err, study.ErrInvalidMaxTerms):
		return "Invalid session size"

	case errors.Is(err, study.ErrInvalidItem),
		errors.Is(err, store.ErrInvalidEntity):
		return "Invalid item data"

	case errors.Is(err, review.ErrInvalidOutcome):
		return "Invalid outcome"

	case errors.Is(err, domain.ErrInvalidID):
		return "Invalid ID"

	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError turns a validator error into a short message naming
// the first offending field.
func SanitizeValidationError(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Sprintf("Invalid %s: %s", fe.Field(), getValidationTagMessage(fe.Tag()))
	}
	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "uuid":
		return "invalid UUID"
	case "min", "gte":
		return "too small"
	case "max", "lte":
		return "too large"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
