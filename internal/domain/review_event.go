package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ReviewOutcome represents the result of reviewing an item.
type ReviewOutcome string

// Possible review outcome values
const (
	ReviewOutcomeCorrect   ReviewOutcome = "correct"
	ReviewOutcomeIncorrect ReviewOutcome = "incorrect"
)

// Valid reports whether o is a known outcome.
func (o ReviewOutcome) Valid() bool {
	return o == ReviewOutcomeCorrect || o == ReviewOutcomeIncorrect
}

// Common validation errors for ReviewEvent
var (
	ErrEmptyEventID     = errors.New("review event ID cannot be empty")
	ErrEmptyEventItemID = errors.New("review event item ID cannot be empty")
	ErrInvalidScore     = errors.New("performance score must be between 0 and 5")
)

// ReviewEvent is one entry of a user's append-only review history.
// Events are written once and never mutated.
type ReviewEvent struct {
	ID                uuid.UUID     `json:"id"`
	UserID            uuid.UUID     `json:"user_id"`
	ItemID            uuid.UUID     `json:"item_id"`
	Timestamp         time.Time     `json:"timestamp"`
	Outcome           ReviewOutcome `json:"outcome"`
	ResponseLatencyMs int64         `json:"response_latency_ms"`
	PerformanceScore  int           `json:"performance_score"`
}

// NewReviewEvent builds a validated review event for the given item.
func NewReviewEvent(
	userID, itemID uuid.UUID,
	at time.Time,
	outcome ReviewOutcome,
	latencyMs int64,
	score int,
) (*ReviewEvent, error) {
	event := &ReviewEvent{
		ID:                uuid.New(),
		UserID:            userID,
		ItemID:            itemID,
		Timestamp:         at,
		Outcome:           outcome,
		ResponseLatencyMs: latencyMs,
		PerformanceScore:  score,
	}

	if err := event.Validate(); err != nil {
		return nil, err
	}

	return event, nil
}

// Validate checks if the ReviewEvent has valid data.
func (e *ReviewEvent) Validate() error {
	if e.ID == uuid.Nil {
		return ErrEmptyEventID
	}

	if e.UserID == uuid.Nil {
		return ErrItemUserIDEmpty
	}

	if e.ItemID == uuid.Nil {
		return ErrEmptyEventItemID
	}

	if !e.Outcome.Valid() {
		return ErrInvalidReviewOutcome
	}

	if e.PerformanceScore < 0 || e.PerformanceScore > 5 {
		return ErrInvalidScore
	}

	return nil
}
