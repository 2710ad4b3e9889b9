package srs

import (
	"time"

	"github.com/phrazzld/scry-scheduler/internal/domain"
)

// calculatePerformanceScore converts a raw review outcome into a 0-5 score.
//
// Parameters:
//   - outcome: Whether the learner recalled the item
//   - latencyMs: Response time in milliseconds; negative values are clamped to 0
//   - params: Configuration parameters holding the latency tiers
//
// Algorithm behavior:
//   - Incorrect outcomes always score 0
//   - Correct within FastLatencyMs (inclusive) scores 5
//   - Correct within MediumLatencyMs (inclusive) scores 4
//   - Slower correct answers score 3
//
// The function is total: malformed input is clamped rather than rejected.
func calculatePerformanceScore(outcome domain.ReviewOutcome, latencyMs int64, params *Params) int {
	if outcome != domain.ReviewOutcomeCorrect {
		return 0
	}

	if latencyMs < 0 {
		latencyMs = 0
	}

	switch {
	case latencyMs <= params.FastLatencyMs:
		return 5
	case latencyMs <= params.MediumLatencyMs:
		return 4
	default:
		return 3
	}
}

// calculateNextStrength moves strength one step up when the score reaches the
// pass threshold and one step down otherwise, clamped to [0,5].
func calculateNextStrength(current, score int, params *Params) (int, error) {
	if err := checkStrength(current); err != nil {
		return 0, err
	}

	if score >= params.PassThreshold {
		return min(current+1, domain.MaxStrength), nil
	}
	return max(current-1, domain.MinStrength), nil
}

// calculateNextDueDate determines when an item of the given strength is next due.
//
// Whole-day intervals land on the start of the target calendar day in the
// clock's reference timezone, so the time of day of the review does not
// matter. Sub-day intervals (strength 0) keep the exact instant; truncating
// them would make a 4 hour interval alias to "today" (immediately due) or
// "tomorrow" depending on when the review happened.
func calculateNextDueDate(strength int, ref time.Time, clock *Clock, params *Params) (time.Time, error) {
	if err := checkStrength(strength); err != nil {
		return time.Time{}, err
	}

	interval := params.Intervals[strength]
	if interval%day != 0 {
		return ref.In(clock.Location()).Add(interval), nil
	}

	days := int(interval / day)
	return clock.StartOfDay(ref).AddDate(0, 0, days), nil
}

// calculateNextItem creates the post-review state of an item.
//
// It never modifies the input. When adjust is false the item was already
// adjusted earlier in the same session: the review is still counted against
// wrongCount and lastReviewedAt, but strength and due date stay put.
func calculateNextItem(
	item *domain.MemoryItem,
	outcome domain.ReviewOutcome,
	score int,
	now time.Time,
	adjust bool,
	clock *Clock,
	params *Params,
) (*domain.MemoryItem, error) {
	next := item.Clone()

	if adjust {
		strength, err := calculateNextStrength(item.Strength, score, params)
		if err != nil {
			return nil, err
		}
		due, err := calculateNextDueDate(strength, now, clock, params)
		if err != nil {
			return nil, err
		}
		next.Strength = strength
		next.NextDueAt = &due
	} else if next.NextDueAt == nil {
		// A reviewed item always carries a due date
		due, err := calculateNextDueDate(next.Strength, now, clock, params)
		if err != nil {
			return nil, err
		}
		next.NextDueAt = &due
	}

	if outcome == domain.ReviewOutcomeIncorrect {
		next.WrongCount++
	}

	reviewedAt := now
	next.LastReviewedAt = &reviewedAt
	next.Version = item.Version + 1
	next.UpdatedAt = now.UTC()

	return next, nil
}
