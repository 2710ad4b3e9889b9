// Package review records a single answer: it scores it, moves the item along
// the retention model and persists the new item state together with the
// review event.
package review

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/domain"
	"github.com/phrazzld/scry-scheduler/internal/domain/session"
	"github.com/phrazzld/scry-scheduler/internal/domain/srs"
	"github.com/phrazzld/scry-scheduler/internal/platform/logger"
	"github.com/phrazzld/scry-scheduler/internal/platform/metrics"
	"github.com/phrazzld/scry-scheduler/internal/store"
)

// Input is one answer to record.
type Input struct {
	UserID    uuid.UUID
	Item      *domain.MemoryItem
	Outcome   domain.ReviewOutcome
	LatencyMs int64
	// At is the reference instant of the review. Zero means the clock's now.
	At time.Time
}

// Result is the committed outcome of a review.
type Result struct {
	Item  *domain.MemoryItem
	Event domain.ReviewEvent
	// Adjusted is false when the item had already been adjusted earlier in
	// the session and kept its strength and due date.
	Adjusted bool
}

// Recorder is the review orchestrator. It is safe for concurrent use; the
// per-session AdjustedSet passed to Record is not, and belongs to its session.
type Recorder struct {
	srs     srs.Service
	items   store.ItemStore
	metrics *metrics.Collector
	logger  *slog.Logger
}

// NewRecorder creates a Recorder. metrics may be nil.
func NewRecorder(
	srsService srs.Service,
	items store.ItemStore,
	collector *metrics.Collector,
	logger *slog.Logger,
) *Recorder {
	if srsService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("srsService cannot be nil")
	}
	if items == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("items cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Recorder{
		srs:     srsService,
		items:   items,
		metrics: collector,
		logger:  logger.With(slog.String("component", "review_recorder")),
	}
}

// Record scores the answer, computes the next item state and writes the item
// and its review event in one atomic store call.
//
// Only the first review of an item within a session adjusts strength and due
// date; adjusted tracks those ids and gains the item id once the write has
// committed. On success the event is also fed to tracker. On failure neither
// adjusted nor tracker changes, and the error is a *ServiceError wrapping the
// cause, so errors.Is(err, store.ErrConcurrentUpdate) still works. The recorder
// never retries.
func (r *Recorder) Record(
	ctx context.Context,
	in Input,
	adjusted session.AdjustedSet,
	tracker *session.Tracker,
) (*Result, error) {
	log := logger.FromContextOrDefault(ctx, r.logger)

	if in.Item == nil {
		r.metrics.ReviewFailed(metrics.ReasonInvalid)
		return nil, NewRecordError("no item supplied", ErrNilItem)
	}
	if in.Item.UserID != in.UserID {
		log.Warn("user does not own item",
			slog.String("user_id", in.UserID.String()),
			slog.String("item_id", in.Item.ID.String()),
			slog.String("owner_id", in.Item.UserID.String()))
		r.metrics.ReviewFailed(metrics.ReasonInvalid)
		return nil, NewRecordError("item belongs to another user", ErrItemNotOwned)
	}
	if !in.Outcome.Valid() {
		log.Warn("invalid review outcome",
			slog.String("user_id", in.UserID.String()),
			slog.String("item_id", in.Item.ID.String()),
			slog.String("outcome", string(in.Outcome)))
		r.metrics.ReviewFailed(metrics.ReasonInvalid)
		return nil, NewRecordError("unknown outcome", ErrInvalidOutcome)
	}

	at := in.At
	if at.IsZero() {
		at = r.srs.Clock().Now()
	}
	latency := max(in.LatencyMs, 0)
	adjust := !adjusted.Has(in.Item.ID)

	next, err := r.srs.CalculateNextReview(in.Item, in.Outcome, latency, at, adjust)
	if err != nil {
		log.Error("failed to calculate next review",
			slog.String("error", err.Error()),
			slog.String("user_id", in.UserID.String()),
			slog.String("item_id", in.Item.ID.String()))
		r.metrics.ReviewFailed(metrics.ReasonInvalid)
		return nil, NewRecordError("failed to calculate next review", err)
	}

	event, err := domain.NewReviewEvent(in.UserID, in.Item.ID, at, in.Outcome, latency, next.PerformanceScore)
	if err != nil {
		r.metrics.ReviewFailed(metrics.ReasonInvalid)
		return nil, NewRecordError("failed to build review event", err)
	}

	if err := r.items.SaveItemAndAppendEvent(ctx, in.UserID, next.Item, event); err != nil {
		reason := failureReason(err)
		r.metrics.ReviewFailed(reason)
		if reason == metrics.ReasonStorage {
			log.Error("failed to save review",
				slog.String("error", err.Error()),
				slog.String("user_id", in.UserID.String()),
				slog.String("item_id", in.Item.ID.String()))
		} else {
			log.Warn("review write rejected",
				slog.String("reason", reason),
				slog.String("user_id", in.UserID.String()),
				slog.String("item_id", in.Item.ID.String()),
				slog.Int("version", in.Item.Version))
		}
		return nil, NewRecordError("failed to save review", err)
	}

	if adjust && adjusted != nil {
		adjusted.Add(in.Item.ID)
	}
	if tracker != nil {
		tracker.Add(*event)
	}
	r.metrics.ObserveReview(string(in.Outcome), next.Item.Strength)

	log.Debug("review recorded",
		slog.String("user_id", in.UserID.String()),
		slog.String("item_id", in.Item.ID.String()),
		slog.String("outcome", string(in.Outcome)),
		slog.Int("performance_score", next.PerformanceScore),
		slog.Int("strength", next.Item.Strength),
		slog.Bool("adjusted", adjust),
		slog.Time("next_due_at", *next.Item.NextDueAt))

	return &Result{Item: next.Item, Event: *event, Adjusted: adjust}, nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, store.ErrConcurrentUpdate):
		return metrics.ReasonConflict
	case errors.Is(err, store.ErrNotFound):
		return metrics.ReasonNotFound
	case errors.Is(err, store.ErrInvalidEntity):
		return metrics.ReasonInvalid
	default:
		return metrics.ReasonStorage
	}
}
