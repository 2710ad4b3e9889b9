package srs

import (
	"time"

	"github.com/phrazzld/scry-scheduler/internal/domain"
)

// ReviewResult is the outcome of applying one review to an item.
type ReviewResult struct {
	Item             *domain.MemoryItem
	PerformanceScore int
}

// Service defines the interface for scheduling calculations.
// Every method is pure apart from reading the clock.
type Service interface {
	// Score converts an outcome and response latency into a 0-5 performance score.
	Score(outcome domain.ReviewOutcome, latencyMs int64) int

	// NextStrength returns the strength after a review with the given score.
	NextStrength(current, score int) (int, error)

	// NextDueDate returns when an item of the given strength is next due.
	NextDueDate(strength int, ref time.Time) (time.Time, error)

	// CalculateNextReview computes the post-review state of an item.
	// adjust=false keeps strength and due date unchanged (see AdjustedSet).
	CalculateNextReview(
		item *domain.MemoryItem,
		outcome domain.ReviewOutcome,
		latencyMs int64,
		now time.Time,
		adjust bool,
	) (*ReviewResult, error)

	// Clock returns the reference-timezone clock.
	Clock() *Clock

	// Params returns the active parameters.
	Params() *Params
}

// defaultService is the standard implementation of the Service interface
type defaultService struct {
	params *Params
	clock  *Clock
}

// NewDefaultService creates a new scheduling service with default parameters
func NewDefaultService() Service {
	params := NewDefaultParams()
	return &defaultService{
		params: params,
		clock:  NewClock(params.UTCOffset),
	}
}

// NewServiceWithParams creates a new scheduling service with custom parameters.
// A nil clock uses the wall clock at params.UTCOffset.
func NewServiceWithParams(params *Params, clock *Clock) Service {
	if params == nil {
		params = NewDefaultParams()
	}
	if clock == nil {
		clock = NewClock(params.UTCOffset)
	}
	return &defaultService{
		params: params,
		clock:  clock,
	}
}

func (s *defaultService) Score(outcome domain.ReviewOutcome, latencyMs int64) int {
	return calculatePerformanceScore(outcome, latencyMs, s.params)
}

func (s *defaultService) NextStrength(current, score int) (int, error) {
	return calculateNextStrength(current, score, s.params)
}

func (s *defaultService) NextDueDate(strength int, ref time.Time) (time.Time, error) {
	return calculateNextDueDate(strength, ref, s.clock, s.params)
}

// CalculateNextReview implements the Service interface for calculating the updated item
func (s *defaultService) CalculateNextReview(
	item *domain.MemoryItem,
	outcome domain.ReviewOutcome,
	latencyMs int64,
	now time.Time,
	adjust bool,
) (*ReviewResult, error) {
	if item == nil {
		return nil, ErrNilItem
	}

	if !outcome.Valid() {
		return nil, ErrInvalidOutcome
	}

	score := calculatePerformanceScore(outcome, latencyMs, s.params)

	next, err := calculateNextItem(item, outcome, score, now, adjust, s.clock, s.params)
	if err != nil {
		return nil, err
	}

	return &ReviewResult{Item: next, PerformanceScore: score}, nil
}

func (s *defaultService) Clock() *Clock {
	return s.clock
}

func (s *defaultService) Params() *Params {
	return s.params
}
