package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/domain"
)

// ItemStore is the storage collaborator used by the review recorder and the
// session service.
type ItemStore interface {
	// LoadItems returns every memory item owned by the user. A user with no
	// items yields an empty slice, not an error.
	LoadItems(ctx context.Context, userID uuid.UUID) ([]*domain.MemoryItem, error)

	// SaveItemAndAppendEvent writes the updated item and appends the review
	// event atomically. The write only applies when the stored item version
	// equals item.Version-1; otherwise ErrConcurrentUpdate is returned and
	// nothing is written. Returns ErrItemNotFound if the item does not exist
	// for the user.
	SaveItemAndAppendEvent(
		ctx context.Context,
		userID uuid.UUID,
		item *domain.MemoryItem,
		event *domain.ReviewEvent,
	) error
}

// ItemSeeder inserts new memory items. Items are validated before they are
// stored; any invalid item fails the whole batch with ErrInvalidEntity.
type ItemSeeder interface {
	CreateItems(ctx context.Context, items []*domain.MemoryItem) error
}

// EventReader reads the append-only review history.
type EventReader interface {
	// ListEvents returns the review events for one item ordered by timestamp,
	// oldest first. Passing uuid.Nil as itemID lists all of the user's events.
	ListEvents(ctx context.Context, userID, itemID uuid.UUID) ([]domain.ReviewEvent, error)
}

// Store bundles the collaborators every platform implementation provides.
type Store interface {
	ItemStore
	ItemSeeder
	EventReader
}

// CheckReviewWrite validates the arguments of SaveItemAndAppendEvent the same
// way for every implementation.
func CheckReviewWrite(userID uuid.UUID, item *domain.MemoryItem, event *domain.ReviewEvent) error {
	if item == nil || event == nil {
		return NewStoreError("item", "save", "item and event are required", ErrInvalidEntity)
	}
	if item.UserID != userID || event.UserID != userID {
		return NewStoreError("item", "save", "user mismatch", ErrInvalidEntity)
	}
	if event.ItemID != item.ID {
		return NewStoreError("item", "save", "event does not belong to item", ErrInvalidEntity)
	}
	if err := item.Validate(); err != nil {
		return NewStoreError("item", "save", "invalid item", errors.Join(ErrInvalidEntity, err))
	}
	if err := event.Validate(); err != nil {
		return NewStoreError("review_event", "save", "invalid event", errors.Join(ErrInvalidEntity, err))
	}
	if item.Version < 1 {
		return NewStoreError("item", "save", "updated item must carry a version above zero", ErrInvalidEntity)
	}
	return nil
}

// CheckSeed validates a batch for CreateItems.
func CheckSeed(items []*domain.MemoryItem) error {
	seen := make(map[uuid.UUID]struct{}, len(items))
	for _, item := range items {
		if item == nil {
			return NewStoreError("item", "create", "nil item", ErrInvalidEntity)
		}
		if err := item.Validate(); err != nil {
			return NewStoreError("item", "create", "invalid item", errors.Join(ErrInvalidEntity, err))
		}
		if _, dup := seen[item.ID]; dup {
			return NewStoreError("item", "create", "duplicate id in batch", ErrDuplicate)
		}
		seen[item.ID] = struct{}{}
	}
	return nil
}
