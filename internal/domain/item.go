package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Strength bounds for a MemoryItem.
const (
	MinStrength = 0
	MaxStrength = 5
)

// Item-specific validation errors
var (
	// ErrItemIDEmpty is returned when an item ID is empty or nil.
	ErrItemIDEmpty = errors.New("item ID cannot be empty")

	// ErrItemUserIDEmpty is returned when an item's user ID is empty or nil.
	ErrItemUserIDEmpty = errors.New("item user ID cannot be empty")

	// ErrItemContentEmpty is returned when the front of an item is empty.
	ErrItemContentEmpty = errors.New("item front content cannot be empty")

	// ErrItemStrengthRange is returned when strength is outside [MinStrength, MaxStrength].
	ErrItemStrengthRange = errors.New("item strength must be between 0 and 5")

	// ErrItemWrongCountNegative is returned when the wrong count is negative.
	ErrItemWrongCountNegative = errors.New("item wrong count cannot be negative")

	// ErrItemDueWithoutReview is returned when a never-reviewed item carries a due date.
	ErrItemDueWithoutReview = errors.New("item without a review cannot have a due date")
)

// MemoryItem is a single learnable fact owned by a user.
//
// An item with a nil LastReviewedAt is "new". NextDueAt is nil for new items and
// is otherwise either the start of a calendar day in the scheduler's reference
// timezone or, for sub-day intervals, an exact instant.
type MemoryItem struct {
	ID             uuid.UUID  `json:"id"`
	UserID         uuid.UUID  `json:"user_id"`
	FrontContent   string     `json:"front_content"`
	BackContent    string     `json:"back_content"`
	Strength       int        `json:"strength"`
	LastReviewedAt *time.Time `json:"last_reviewed_at,omitempty"`
	NextDueAt      *time.Time `json:"next_due_at,omitempty"`
	WrongCount     int        `json:"wrong_count"`
	Version        int        `json:"version"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// NewMemoryItem creates a new, never-reviewed item with strength 0.
// Returns an error if validation fails.
func NewMemoryItem(userID uuid.UUID, front, back string) (*MemoryItem, error) {
	now := time.Now().UTC()
	item := &MemoryItem{
		ID:           uuid.New(),
		UserID:       userID,
		FrontContent: front,
		BackContent:  back,
		Strength:     MinStrength,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := item.Validate(); err != nil {
		return nil, err
	}

	return item, nil
}

// Validate checks if the MemoryItem has valid data.
func (i *MemoryItem) Validate() error {
	if i.ID == uuid.Nil {
		return ErrItemIDEmpty
	}

	if i.UserID == uuid.Nil {
		return ErrItemUserIDEmpty
	}

	if i.FrontContent == "" {
		return ErrItemContentEmpty
	}

	if i.Strength < MinStrength || i.Strength > MaxStrength {
		return ErrItemStrengthRange
	}

	if i.WrongCount < 0 {
		return ErrItemWrongCountNegative
	}

	if i.LastReviewedAt == nil && i.NextDueAt != nil {
		return ErrItemDueWithoutReview
	}

	return nil
}

// IsNew reports whether the item has never been reviewed.
func (i *MemoryItem) IsNew() bool {
	return i.LastReviewedAt == nil
}

// Clone returns a deep copy of the item, so updates never alias the original.
func (i *MemoryItem) Clone() *MemoryItem {
	c := *i
	if i.LastReviewedAt != nil {
		t := *i.LastReviewedAt
		c.LastReviewedAt = &t
	}
	if i.NextDueAt != nil {
		t := *i.NextDueAt
		c.NextDueAt = &t
	}
	return &c
}
