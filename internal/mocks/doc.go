// Package mocks holds hand-written test doubles for the storage collaborator.
//
// A mock answers from its Fn fields when set and from its plain fields
// (Items, Events, Err) otherwise, and records every call so tests can assert
// on what the engine wrote:
//
//	items := &mocks.MockItemStore{
//	    SaveItemAndAppendEventFn: func(ctx context.Context, userID uuid.UUID,
//	        item *domain.MemoryItem, event *domain.ReviewEvent) error {
//	        return store.ErrConcurrentUpdate
//	    },
//	}
//	...
//	assert.Equal(t, 1, items.SaveCount())
//
// Stateful behavior such as version checks belongs to platform/memory, which
// tests should prefer when they need a working store.
package mocks
