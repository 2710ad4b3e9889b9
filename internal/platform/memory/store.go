// Package memory provides a mutex-guarded in-memory store. It backs the
// "memory" database driver and the service tests.
package memory

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/domain"
	"github.com/phrazzld/scry-scheduler/internal/store"
)

// Store implements store.Store in memory. Items are cloned on the way in and
// out so callers never share state with the store.
type Store struct {
	mu     sync.RWMutex
	items  map[uuid.UUID]*domain.MemoryItem
	events map[uuid.UUID][]domain.ReviewEvent // keyed by user id
	logger *slog.Logger
}

var _ store.Store = (*Store)(nil)

// NewStore creates an empty Store.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		items:  make(map[uuid.UUID]*domain.MemoryItem),
		events: make(map[uuid.UUID][]domain.ReviewEvent),
		logger: logger.With(slog.String("component", "memory_store")),
	}
}

// LoadItems implements store.ItemStore.
func (s *Store) LoadItems(ctx context.Context, userID uuid.UUID) ([]*domain.MemoryItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]*domain.MemoryItem, 0)
	for _, item := range s.items {
		if item.UserID == userID {
			items = append(items, item.Clone())
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].ID.String() < items[j].ID.String()
	})
	return items, nil
}

// SaveItemAndAppendEvent implements store.ItemStore. Both writes happen under
// one lock, so they are never observed apart.
func (s *Store) SaveItemAndAppendEvent(
	ctx context.Context,
	userID uuid.UUID,
	item *domain.MemoryItem,
	event *domain.ReviewEvent,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := store.CheckReviewWrite(userID, item, event); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.items[item.ID]
	if !ok || current.UserID != userID {
		return store.ErrItemNotFound
	}
	if current.Version != item.Version-1 {
		s.logger.Debug("version conflict on item write",
			slog.String("item_id", item.ID.String()),
			slog.Int("stored_version", current.Version),
			slog.Int("update_version", item.Version))
		return store.NewStoreError("item", "save", "version mismatch", store.ErrConcurrentUpdate)
	}

	s.items[item.ID] = item.Clone()
	s.events[userID] = append(s.events[userID], *event)
	return nil
}

// CreateItems implements store.ItemSeeder.
func (s *Store) CreateItems(ctx context.Context, items []*domain.MemoryItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := store.CheckSeed(items); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range items {
		if _, exists := s.items[item.ID]; exists {
			return store.ErrItemExists
		}
	}
	for _, item := range items {
		s.items[item.ID] = item.Clone()
	}
	return nil
}

// ListEvents implements store.EventReader.
func (s *Store) ListEvents(ctx context.Context, userID, itemID uuid.UUID) ([]domain.ReviewEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]domain.ReviewEvent, 0)
	for _, event := range s.events[userID] {
		if itemID == uuid.Nil || event.ItemID == itemID {
			events = append(events, event)
		}
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
	return events, nil
}
