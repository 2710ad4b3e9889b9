package session

import (
	"time"

	"github.com/phrazzld/scry-scheduler/internal/domain"
	"github.com/phrazzld/scry-scheduler/internal/domain/srs"
)

// Resolver decides which items are due at a given instant.
type Resolver struct {
	clock *srs.Clock
}

// NewResolver creates a Resolver that compares days in the clock's reference timezone.
func NewResolver(clock *srs.Clock) *Resolver {
	if clock == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("clock cannot be nil")
	}
	return &Resolver{clock: clock}
}

// IsDue reports whether item is due at now.
//
// Items without a due date are always due. Day-granular due dates are compared
// by calendar day, so an item scheduled for today stays due all day. Exact
// instants (sub-day intervals) become due once now reaches them.
func (r *Resolver) IsDue(item *domain.MemoryItem, now time.Time) bool {
	if item.NextDueAt == nil {
		return true
	}

	due := *item.NextDueAt
	if r.clock.IsStartOfDay(due) {
		return !r.clock.DayOf(now).Before(r.clock.DayOf(due))
	}
	return !now.Before(due)
}

// Resolve returns the subset of items due at now. Order is not significant.
func (r *Resolver) Resolve(items []*domain.MemoryItem, now time.Time) []*domain.MemoryItem {
	due := make([]*domain.MemoryItem, 0, len(items))
	for _, item := range items {
		if item != nil && r.IsDue(item, now) {
			due = append(due, item)
		}
	}
	return due
}

// Split partitions the due items into never-reviewed and previously reviewed
// pools, the shape Composer.Blend expects.
func (r *Resolver) Split(items []*domain.MemoryItem, now time.Time) (newPool, reviewPool []*domain.MemoryItem) {
	for _, item := range r.Resolve(items, now) {
		if item.IsNew() {
			newPool = append(newPool, item)
		} else {
			reviewPool = append(reviewPool, item)
		}
	}
	return newPool, reviewPool
}
