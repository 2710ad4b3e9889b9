package srs

import (
	"errors"
	"fmt"

	"github.com/phrazzld/scry-scheduler/internal/domain"
)

// Common errors
var (
	ErrNilItem        = errors.New("memory item cannot be nil")
	ErrInvalidOutcome = errors.New("invalid review outcome")

	// ErrInvalidStrength is the sentinel every InvalidStrengthError unwraps to.
	ErrInvalidStrength = errors.New("invalid strength")
)

// InvalidStrengthError reports a strength outside [0,5]. It indicates corrupt
// data or a programming bug and must not be retried.
type InvalidStrengthError struct {
	Strength int
}

// Error implements the error interface.
func (e *InvalidStrengthError) Error() string {
	return fmt.Sprintf("%v: %d is outside [%d,%d]",
		ErrInvalidStrength, e.Strength, domain.MinStrength, domain.MaxStrength)
}

// Unwrap supports errors.Is(err, ErrInvalidStrength).
func (e *InvalidStrengthError) Unwrap() error {
	return ErrInvalidStrength
}

func checkStrength(strength int) error {
	if strength < domain.MinStrength || strength > domain.MaxStrength {
		return &InvalidStrengthError{Strength: strength}
	}
	return nil
}
