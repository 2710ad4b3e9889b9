package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/domain"
	"github.com/phrazzld/scry-scheduler/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 5, 20, 3, 0, 0, 0, time.UTC)

func seed(t *testing.T, s *Store, userID uuid.UUID, n int) []*domain.MemoryItem {
	t.Helper()
	items := make([]*domain.MemoryItem, 0, n)
	for i := 0; i < n; i++ {
		item, err := domain.NewMemoryItem(userID, "front", "back")
		require.NoError(t, err)
		item.CreatedAt = testNow.Add(time.Duration(i) * time.Minute)
		items = append(items, item)
	}
	require.NoError(t, s.CreateItems(context.Background(), items))
	return items
}

// reviewed returns the next version of item and a matching event.
func reviewed(t *testing.T, item *domain.MemoryItem, at time.Time) (*domain.MemoryItem, *domain.ReviewEvent) {
	t.Helper()
	next := item.Clone()
	due := at.Add(24 * time.Hour)
	next.Strength = min(item.Strength+1, domain.MaxStrength)
	next.LastReviewedAt = &at
	next.NextDueAt = &due
	next.Version = item.Version + 1

	event, err := domain.NewReviewEvent(item.UserID, item.ID, at, domain.ReviewOutcomeCorrect, 1200, 5)
	require.NoError(t, err)
	return next, event
}

func TestStore_LoadItems(t *testing.T) {
	t.Parallel() // Enable parallel execution
	ctx := context.Background()
	s := NewStore(nil)

	userID := uuid.New()
	items := seed(t, s, userID, 3)
	seed(t, s, uuid.New(), 2)

	loaded, err := s.LoadItems(ctx, userID)
	require.NoError(t, err)
	require.Len(t, loaded, 3)
	for i := range items {
		assert.Equal(t, items[i].ID, loaded[i].ID)
	}

	// Returned items are copies
	loaded[0].Strength = 5
	again, err := s.LoadItems(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 0, again[0].Strength)

	empty, err := s.LoadItems(ctx, uuid.New())
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestStore_SaveItemAndAppendEvent(t *testing.T) {
	t.Parallel() // Enable parallel execution
	ctx := context.Background()
	s := NewStore(nil)

	userID := uuid.New()
	item := seed(t, s, userID, 1)[0]

	next, event := reviewed(t, item, testNow)
	require.NoError(t, s.SaveItemAndAppendEvent(ctx, userID, next, event))

	loaded, err := s.LoadItems(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded[0].Strength)
	assert.Equal(t, 1, loaded[0].Version)

	events, err := s.ListEvents(ctx, userID, item.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, event.ID, events[0].ID)
}

func TestStore_SaveRejectsStaleVersion(t *testing.T) {
	t.Parallel() // Enable parallel execution
	ctx := context.Background()
	s := NewStore(nil)

	userID := uuid.New()
	item := seed(t, s, userID, 1)[0]

	first, firstEvent := reviewed(t, item, testNow)
	stale, staleEvent := reviewed(t, item, testNow.Add(time.Second))

	require.NoError(t, s.SaveItemAndAppendEvent(ctx, userID, first, firstEvent))
	err := s.SaveItemAndAppendEvent(ctx, userID, stale, staleEvent)
	assert.ErrorIs(t, err, store.ErrConcurrentUpdate)

	// Neither half of the losing write is visible
	events, err := s.ListEvents(ctx, userID, uuid.Nil)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestStore_SaveErrors(t *testing.T) {
	t.Parallel() // Enable parallel execution
	ctx := context.Background()
	s := NewStore(nil)

	userID := uuid.New()
	item := seed(t, s, userID, 1)[0]

	t.Run("unknown item", func(t *testing.T) {
		ghost, err := domain.NewMemoryItem(userID, "x", "y")
		require.NoError(t, err)
		next, event := reviewed(t, ghost, testNow)
		assert.ErrorIs(t, s.SaveItemAndAppendEvent(ctx, userID, next, event), store.ErrItemNotFound)
	})

	t.Run("invalid write", func(t *testing.T) {
		next, event := reviewed(t, item, testNow)
		next.Strength = 9
		assert.ErrorIs(t, s.SaveItemAndAppendEvent(ctx, userID, next, event), store.ErrInvalidEntity)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		next, event := reviewed(t, item, testNow)
		assert.ErrorIs(t, s.SaveItemAndAppendEvent(cancelled, userID, next, event), context.Canceled)
	})
}

func TestStore_CreateItemsRejectsExisting(t *testing.T) {
	t.Parallel() // Enable parallel execution
	ctx := context.Background()
	s := NewStore(nil)

	userID := uuid.New()
	item := seed(t, s, userID, 1)[0]
	fresh, err := domain.NewMemoryItem(userID, "new", "item")
	require.NoError(t, err)

	err = s.CreateItems(ctx, []*domain.MemoryItem{fresh, item})
	assert.ErrorIs(t, err, store.ErrItemExists)

	// The batch is all-or-nothing
	loaded, err := s.LoadItems(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, loaded, 1)
}

func TestStore_ListEventsOrdering(t *testing.T) {
	t.Parallel() // Enable parallel execution
	ctx := context.Background()
	s := NewStore(nil)

	userID := uuid.New()
	items := seed(t, s, userID, 2)

	a1, e1 := reviewed(t, items[0], testNow.Add(2*time.Hour))
	require.NoError(t, s.SaveItemAndAppendEvent(ctx, userID, a1, e1))
	b1, e2 := reviewed(t, items[1], testNow.Add(time.Hour))
	require.NoError(t, s.SaveItemAndAppendEvent(ctx, userID, b1, e2))

	all, err := s.ListEvents(ctx, userID, uuid.Nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, e2.ID, all[0].ID)
	assert.Equal(t, e1.ID, all[1].ID)

	one, err := s.ListEvents(ctx, userID, items[0].ID)
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, e1.ID, one[0].ID)
}

func TestStore_ConcurrentWritersOneWins(t *testing.T) {
	t.Parallel() // Enable parallel execution
	ctx := context.Background()
	s := NewStore(nil)

	userID := uuid.New()
	item := seed(t, s, userID, 1)[0]

	const writers = 16
	var wg sync.WaitGroup
	results := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			next, event := reviewed(t, item, testNow.Add(time.Duration(i)*time.Second))
			results <- s.SaveItemAndAppendEvent(ctx, userID, next, event)
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, store.ErrConcurrentUpdate)
	}
	assert.Equal(t, 1, succeeded)
}
