package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewMemoryItem(t *testing.T) {
	t.Parallel() // Enable parallel execution
	userID := uuid.New()

	item, err := NewMemoryItem(userID, "der Hund", "the dog")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if item.ID == uuid.Nil {
		t.Error("Expected non-nil UUID, got nil UUID")
	}

	if item.Strength != MinStrength {
		t.Errorf("Expected strength %d, got %d", MinStrength, item.Strength)
	}

	if !item.IsNew() {
		t.Error("Expected a freshly created item to be new")
	}

	if item.NextDueAt != nil {
		t.Errorf("Expected nil NextDueAt, got %v", item.NextDueAt)
	}

	_, err = NewMemoryItem(uuid.Nil, "der Hund", "the dog")
	if err != ErrItemUserIDEmpty {
		t.Errorf("Expected error %v, got %v", ErrItemUserIDEmpty, err)
	}

	_, err = NewMemoryItem(userID, "", "the dog")
	if err != ErrItemContentEmpty {
		t.Errorf("Expected error %v, got %v", ErrItemContentEmpty, err)
	}
}

func TestMemoryItemValidate(t *testing.T) {
	t.Parallel() // Enable parallel execution
	reviewed := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	due := reviewed.AddDate(0, 0, 1)

	valid := MemoryItem{
		ID:             uuid.New(),
		UserID:         uuid.New(),
		FrontContent:   "la mesa",
		Strength:       2,
		LastReviewedAt: &reviewed,
		NextDueAt:      &due,
	}

	testCases := []struct {
		name     string
		mutate   func(i *MemoryItem)
		expected error
	}{
		{name: "valid item", mutate: func(i *MemoryItem) {}, expected: nil},
		{name: "nil id", mutate: func(i *MemoryItem) { i.ID = uuid.Nil }, expected: ErrItemIDEmpty},
		{name: "nil user", mutate: func(i *MemoryItem) { i.UserID = uuid.Nil }, expected: ErrItemUserIDEmpty},
		{name: "empty front", mutate: func(i *MemoryItem) { i.FrontContent = "" }, expected: ErrItemContentEmpty},
		{name: "strength too low", mutate: func(i *MemoryItem) { i.Strength = -1 }, expected: ErrItemStrengthRange},
		{name: "strength too high", mutate: func(i *MemoryItem) { i.Strength = 6 }, expected: ErrItemStrengthRange},
		{name: "negative wrong count", mutate: func(i *MemoryItem) { i.WrongCount = -1 }, expected: ErrItemWrongCountNegative},
		{
			name:     "due date without review",
			mutate:   func(i *MemoryItem) { i.LastReviewedAt = nil },
			expected: ErrItemDueWithoutReview,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			item := valid.Clone()
			tc.mutate(item)
			if err := item.Validate(); err != tc.expected {
				t.Errorf("Expected error %v, got %v", tc.expected, err)
			}
		})
	}
}

func TestMemoryItemClone(t *testing.T) {
	t.Parallel() // Enable parallel execution
	reviewed := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	item := &MemoryItem{ID: uuid.New(), UserID: uuid.New(), FrontContent: "x", LastReviewedAt: &reviewed}

	clone := item.Clone()
	*clone.LastReviewedAt = reviewed.Add(time.Hour)
	clone.Strength = 4

	if !item.LastReviewedAt.Equal(reviewed) {
		t.Error("Clone shares LastReviewedAt with the original")
	}
	if item.Strength != 0 {
		t.Error("Clone shares fields with the original")
	}
}
