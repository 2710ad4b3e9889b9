package session

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/domain"
	"github.com/phrazzld/scry-scheduler/internal/domain/srs"
)

// 03:00 UTC is 10:00 in UTC+7.
var testNow = time.Date(2024, 5, 20, 3, 0, 0, 0, time.UTC)

func testClock() *srs.Clock {
	return srs.NewFixedClock(testNow, srs.DefaultUTCOffset)
}

func newItem(t *testing.T) *domain.MemoryItem {
	t.Helper()
	item, err := domain.NewMemoryItem(uuid.New(), "front", "back")
	if err != nil {
		t.Fatalf("Failed to create item: %v", err)
	}
	return item
}

// reviewedItem returns an item last reviewed yesterday and due dayOffset days
// from the start of today (negative means overdue).
func reviewedItem(t *testing.T, strength, wrong, dayOffset int) *domain.MemoryItem {
	t.Helper()
	clock := testClock()
	item := newItem(t)
	reviewed := testNow.AddDate(0, 0, -1)
	due := clock.StartOfDay(testNow).AddDate(0, 0, dayOffset)
	item.Strength = strength
	item.WrongCount = wrong
	item.LastReviewedAt = &reviewed
	item.NextDueAt = &due
	return item
}

func hasDuplicates(plan Plan) bool {
	seen := make(map[uuid.UUID]bool, plan.Len())
	for _, id := range plan.IDs() {
		if seen[id] {
			return true
		}
		seen[id] = true
	}
	return false
}

func asSlice(items ...*domain.MemoryItem) []*domain.MemoryItem {
	return items
}
