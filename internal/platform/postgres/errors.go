package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/scry-scheduler/internal/store"
)

// SQLSTATE codes the item store reacts to.
const (
	uniqueViolationCode      = "23505"
	foreignKeyViolationCode  = "23503"
	checkViolationCode       = "23514"
	notNullViolationCode     = "23502"
	serializationFailureCode = "40001"
	deadlockDetectedCode     = "40P01"
)

// pgCodeErrors maps SQLSTATE codes to the store sentinel they surface as.
// Constraint failures mean the item or event was malformed (strength outside
// [0,5], score outside [0,5], event for an unknown item). Serialization
// failures and deadlocks mean a concurrent review touched the same row.
var pgCodeErrors = map[string]error{
	uniqueViolationCode:      store.ErrDuplicate,
	foreignKeyViolationCode:  store.ErrInvalidEntity,
	checkViolationCode:       store.ErrInvalidEntity,
	notNullViolationCode:     store.ErrInvalidEntity,
	serializationFailureCode: store.ErrConcurrentUpdate,
	deadlockDetectedCode:     store.ErrConcurrentUpdate,
}

// MapError translates a driver error into a store sentinel, keeping the
// original error in the chain. Unknown errors pass through unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %w", store.ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	sentinel, ok := pgCodeErrors[pgErr.Code]
	if !ok {
		return err
	}
	if pgErr.ConstraintName != "" {
		return fmt.Errorf("%w (%s): %w", sentinel, pgErr.ConstraintName, err)
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}

// IsUniqueViolation reports whether err is a unique constraint violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// affectedOne reports whether a write touched exactly one row.
func affectedOne(result sql.Result) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n == 1, nil
}
