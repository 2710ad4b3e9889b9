package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/domain"
	"github.com/phrazzld/scry-scheduler/internal/store"
)

// MockItemStore implements store.Store for testing
type MockItemStore struct {
	// Custom behavior functions
	LoadItemsFn              func(ctx context.Context, userID uuid.UUID) ([]*domain.MemoryItem, error)
	SaveItemAndAppendEventFn func(ctx context.Context, userID uuid.UUID, item *domain.MemoryItem, event *domain.ReviewEvent) error
	CreateItemsFn            func(ctx context.Context, items []*domain.MemoryItem) error
	ListEventsFn             func(ctx context.Context, userID, itemID uuid.UUID) ([]domain.ReviewEvent, error)

	// Default response values
	Items  []*domain.MemoryItem
	Events []domain.ReviewEvent
	Err    error

	// Call tracking for verification
	LoadItemsCalls struct {
		mu      sync.Mutex
		Count   int
		UserIDs []uuid.UUID
	}

	SaveCalls struct {
		mu      sync.Mutex
		Count   int
		UserIDs []uuid.UUID
		Items   []*domain.MemoryItem
		Events  []*domain.ReviewEvent
	}

	CreateItemsCalls struct {
		mu      sync.Mutex
		Count   int
		Batches [][]*domain.MemoryItem
	}
}

var _ store.Store = (*MockItemStore)(nil)

// LoadItems implements the store.ItemStore interface
func (m *MockItemStore) LoadItems(ctx context.Context, userID uuid.UUID) ([]*domain.MemoryItem, error) {
	m.LoadItemsCalls.mu.Lock()
	m.LoadItemsCalls.Count++
	m.LoadItemsCalls.UserIDs = append(m.LoadItemsCalls.UserIDs, userID)
	m.LoadItemsCalls.mu.Unlock()

	if m.LoadItemsFn != nil {
		return m.LoadItemsFn(ctx, userID)
	}
	if m.Err != nil {
		return nil, m.Err
	}

	items := make([]*domain.MemoryItem, 0, len(m.Items))
	for _, item := range m.Items {
		if item.UserID == userID {
			items = append(items, item.Clone())
		}
	}
	return items, nil
}

// SaveItemAndAppendEvent implements the store.ItemStore interface
func (m *MockItemStore) SaveItemAndAppendEvent(
	ctx context.Context,
	userID uuid.UUID,
	item *domain.MemoryItem,
	event *domain.ReviewEvent,
) error {
	m.SaveCalls.mu.Lock()
	m.SaveCalls.Count++
	m.SaveCalls.UserIDs = append(m.SaveCalls.UserIDs, userID)
	m.SaveCalls.Items = append(m.SaveCalls.Items, item)
	m.SaveCalls.Events = append(m.SaveCalls.Events, event)
	m.SaveCalls.mu.Unlock()

	if m.SaveItemAndAppendEventFn != nil {
		return m.SaveItemAndAppendEventFn(ctx, userID, item, event)
	}
	return m.Err
}

// CreateItems implements the store.ItemSeeder interface
func (m *MockItemStore) CreateItems(ctx context.Context, items []*domain.MemoryItem) error {
	m.CreateItemsCalls.mu.Lock()
	m.CreateItemsCalls.Count++
	m.CreateItemsCalls.Batches = append(m.CreateItemsCalls.Batches, items)
	m.CreateItemsCalls.mu.Unlock()

	if m.CreateItemsFn != nil {
		return m.CreateItemsFn(ctx, items)
	}
	return m.Err
}

// ListEvents implements the store.EventReader interface
func (m *MockItemStore) ListEvents(ctx context.Context, userID, itemID uuid.UUID) ([]domain.ReviewEvent, error) {
	if m.ListEventsFn != nil {
		return m.ListEventsFn(ctx, userID, itemID)
	}
	if m.Err != nil {
		return nil, m.Err
	}

	events := make([]domain.ReviewEvent, 0, len(m.Events))
	for _, event := range m.Events {
		if event.UserID == userID && (itemID == uuid.Nil || event.ItemID == itemID) {
			events = append(events, event)
		}
	}
	return events, nil
}

// SaveCount returns how many times SaveItemAndAppendEvent was called.
func (m *MockItemStore) SaveCount() int {
	m.SaveCalls.mu.Lock()
	defer m.SaveCalls.mu.Unlock()
	return m.SaveCalls.Count
}
