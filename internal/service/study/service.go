// Package study runs study sessions for a host application. It loads a user's
// items, composes the session plan, walks the plan one item at a time and
// records each answer through the review recorder.
//
// Sessions are ephemeral and live in an in-process registry; everything that
// must survive a restart is written through the item store.
package study

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/domain"
	"github.com/phrazzld/scry-scheduler/internal/domain/session"
)

// Mode selects how a session plan is composed.
type Mode string

// Supported session modes
const (
	// ModeIntake orders all eligible items (new, then due, then not yet due).
	ModeIntake Mode = "intake"
	// ModeMixed blends due new items and weighted review samples under the
	// new:review time budget.
	ModeMixed Mode = "mixed"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeIntake || m == ModeMixed
}

// StartOptions configures a new session. A zero MaxTerms (and, in mixed mode,
// a zero TimeBudget) falls back to the service default.
type StartOptions struct {
	Mode               Mode
	MaxTerms           int
	TimeBudget         time.Duration
	IncludeNewTerms    bool
	PrioritizeDueTerms bool
}

// Answer is one answer submitted within a session.
type Answer struct {
	ItemID    uuid.UUID
	Outcome   domain.ReviewOutcome
	LatencyMs int64
}

// NewItem is the content of an item to import.
type NewItem struct {
	Front string
	Back  string
}

// Snapshot is a read-only view of a session.
type Snapshot struct {
	ID        uuid.UUID            `json:"id"`
	UserID    uuid.UUID            `json:"user_id"`
	Mode      Mode                 `json:"mode"`
	StartedAt time.Time            `json:"started_at"`
	Plan      []*domain.MemoryItem `json:"plan"`
	Remaining int                  `json:"remaining"`
	Stats     session.Stats        `json:"stats"`
}

// AnswerResult is the outcome of a recorded answer.
type AnswerResult struct {
	Item  *domain.MemoryItem `json:"item"`
	Event domain.ReviewEvent `json:"event"`
	Stats session.Stats      `json:"stats"`
	// Requeued is set when an incorrect answer put the item back at the end
	// of the session.
	Requeued bool `json:"requeued"`
	Finished bool `json:"finished"`
}

// Service manages study sessions.
type Service interface {
	// Start loads the user's items, composes a plan and opens a session.
	// An empty plan is not an error: the session is simply already finished.
	Start(ctx context.Context, userID uuid.UUID, opts StartOptions) (*Snapshot, error)

	// Preview composes a plan without opening a session.
	Preview(ctx context.Context, userID uuid.UUID, opts StartOptions) (session.Plan, error)

	// Get returns the current state of a session.
	Get(ctx context.Context, sessionID uuid.UUID) (*Snapshot, error)

	// Next returns the item to study now, or ErrSessionFinished.
	Next(ctx context.Context, sessionID uuid.UUID) (*domain.MemoryItem, error)

	// Answer records an answer for the current item and advances the session.
	Answer(ctx context.Context, sessionID uuid.UUID, answer Answer) (*AnswerResult, error)

	// Stats folds the reviews recorded so far.
	Stats(ctx context.Context, sessionID uuid.UUID) (session.Stats, error)

	// End closes the session and returns its final stats.
	End(ctx context.Context, sessionID uuid.UUID) (session.Stats, error)

	// DueItems returns the user's items that are due now.
	DueItems(ctx context.Context, userID uuid.UUID) ([]*domain.MemoryItem, error)

	// ImportItems creates new, never-reviewed items for the user.
	ImportItems(ctx context.Context, userID uuid.UUID, items []NewItem) ([]*domain.MemoryItem, error)

	// History lists review events of a user, optionally for one item.
	History(ctx context.Context, userID, itemID uuid.UUID) ([]domain.ReviewEvent, error)
}

// Common error types for the study service
var (
	// ErrSessionNotFound indicates an unknown or already ended session.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionFinished indicates that the session has no items left.
	ErrSessionFinished = errors.New("session finished")

	// ErrNotCurrentItem indicates an answer for an item other than the one
	// returned by Next.
	ErrNotCurrentItem = errors.New("item is not the current session item")

	// ErrInvalidMode indicates an unknown session mode.
	ErrInvalidMode = errors.New("invalid session mode")

	// ErrInvalidMaxTerms indicates a negative size limit.
	ErrInvalidMaxTerms = errors.New("max terms cannot be negative")

	// ErrInvalidItem indicates item content that fails validation.
	ErrInvalidItem = errors.New("invalid item")
)

// ServiceError wraps errors from the study service with the failed operation.
type ServiceError struct {
	Operation string
	Message   string
	Err       error
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

func newServiceError(operation, message string, err error) *ServiceError {
	return &ServiceError{Operation: operation, Message: message, Err: err}
}
