package session

import (
	"sync"

	"github.com/phrazzld/scry-scheduler/internal/domain"
)

// Stats summarises the reviews of one session.
type Stats struct {
	TotalReviewed      int     `json:"total_reviewed"`
	CorrectAnswers     int     `json:"correct_answers"`
	IncorrectAnswers   int     `json:"incorrect_answers"`
	AveragePerformance float64 `json:"average_performance"`
}

// Fold derives Stats from the full event sequence. It is a pure left fold, so
// folding the same events twice yields identical stats.
func Fold(events []domain.ReviewEvent) Stats {
	var stats Stats
	sum := 0
	for _, event := range events {
		stats.TotalReviewed++
		switch event.Outcome {
		case domain.ReviewOutcomeCorrect:
			stats.CorrectAnswers++
		case domain.ReviewOutcomeIncorrect:
			stats.IncorrectAnswers++
		}
		sum += event.PerformanceScore
	}

	if stats.TotalReviewed > 0 {
		stats.AveragePerformance = float64(sum) / float64(stats.TotalReviewed)
	}
	return stats
}

// Tracker accumulates the events of a running session. It keeps only the
// event log; Stats is always recomputed from it.
type Tracker struct {
	mu     sync.Mutex
	events []domain.ReviewEvent
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Add appends an event to the session log.
func (t *Tracker) Add(event domain.ReviewEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, event)
}

// Events returns a copy of the events seen so far.
func (t *Tracker) Events() []domain.ReviewEvent {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]domain.ReviewEvent, len(t.events))
	copy(out, t.events)
	return out
}

// Stats folds the events seen so far.
func (t *Tracker) Stats() Stats {
	return Fold(t.Events())
}
