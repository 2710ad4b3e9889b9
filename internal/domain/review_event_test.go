package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReviewEvent(t *testing.T) {
	t.Parallel() // Enable parallel execution
	userID := uuid.New()
	itemID := uuid.New()
	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	event, err := NewReviewEvent(userID, itemID, at, ReviewOutcomeCorrect, 1500, 5)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, itemID, event.ItemID)
	assert.Equal(t, 5, event.PerformanceScore)

	_, err = NewReviewEvent(userID, itemID, at, "maybe", 1500, 5)
	assert.ErrorIs(t, err, ErrInvalidReviewOutcome)

	_, err = NewReviewEvent(userID, uuid.Nil, at, ReviewOutcomeCorrect, 1500, 5)
	assert.ErrorIs(t, err, ErrEmptyEventItemID)

	_, err = NewReviewEvent(userID, itemID, at, ReviewOutcomeIncorrect, 1500, 6)
	assert.ErrorIs(t, err, ErrInvalidScore)
}

func TestReviewOutcomeValid(t *testing.T) {
	t.Parallel() // Enable parallel execution
	assert.True(t, ReviewOutcomeCorrect.Valid())
	assert.True(t, ReviewOutcomeIncorrect.Valid())
	assert.False(t, ReviewOutcome("").Valid())
	assert.False(t, ReviewOutcome("good").Valid())
}
