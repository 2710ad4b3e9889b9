package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorClassification(t *testing.T) {
	t.Parallel() // Enable parallel execution

	testCases := []struct {
		name       string
		err        error
		notFound   bool
		duplicate  bool
		concurrent bool
	}{
		{name: "not found", err: ErrNotFound, notFound: true},
		{name: "item not found", err: ErrItemNotFound, notFound: true},
		{name: "wrapped item not found", err: fmt.Errorf("load: %w", ErrItemNotFound), notFound: true},
		{name: "item exists", err: ErrItemExists, duplicate: true},
		{name: "concurrent update", err: NewStoreError("item", "save", "version mismatch", ErrConcurrentUpdate), concurrent: true},
		{name: "unrelated", err: errors.New("boom")},
		{name: "nil", err: nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.notFound, IsNotFoundError(tc.err))
			assert.Equal(t, tc.duplicate, IsDuplicateError(tc.err))
			assert.Equal(t, tc.concurrent, IsConcurrentUpdate(tc.err))
		})
	}
}

func TestStoreError(t *testing.T) {
	t.Parallel() // Enable parallel execution

	cause := errors.New("connection reset")
	err := NewStoreError("item", "save", "failed to write item", cause)

	assert.Equal(t, "save operation on item failed: failed to write item: connection reset", err.Error())
	assert.ErrorIs(t, err, cause)

	var storeErr *StoreError
	assert.True(t, errors.As(fmt.Errorf("outer: %w", err), &storeErr))
	assert.Equal(t, "item", storeErr.Entity)

	bare := NewStoreError("review_event", "list", "query failed", nil)
	assert.Equal(t, "list operation on review_event failed: query failed", bare.Error())
	assert.Nil(t, bare.Unwrap())
}
