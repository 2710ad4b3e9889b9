package sqlite

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/domain"
)

// itemRecord is the gorm model of a memory item.
type itemRecord struct {
	ID             string `gorm:"primaryKey;size:36"`
	UserID         string `gorm:"size:36;not null;index:idx_items_user"`
	FrontContent   string `gorm:"not null"`
	BackContent    string
	Strength       int `gorm:"not null;default:0"`
	LastReviewedAt *time.Time
	NextDueAt      *time.Time
	WrongCount     int       `gorm:"not null;default:0"`
	Version        int       `gorm:"not null;default:0"`
	CreatedAt      time.Time `gorm:"not null;index:idx_items_user"`
	UpdatedAt      time.Time `gorm:"not null"`
}

// TableName overrides the gorm default.
func (itemRecord) TableName() string { return "memory_items" }

// eventRecord is the gorm model of a review event.
type eventRecord struct {
	ID                string    `gorm:"primaryKey;size:36"`
	UserID            string    `gorm:"size:36;not null;index:idx_events_user_time"`
	ItemID            string    `gorm:"size:36;not null;index:idx_events_item"`
	ReviewedAt        time.Time `gorm:"not null;index:idx_events_user_time"`
	Outcome           string    `gorm:"size:16;not null"`
	ResponseLatencyMs int64     `gorm:"not null"`
	PerformanceScore  int       `gorm:"not null"`
}

// TableName overrides the gorm default.
func (eventRecord) TableName() string { return "review_events" }

func toItemRecord(item *domain.MemoryItem) itemRecord {
	return itemRecord{
		ID:             item.ID.String(),
		UserID:         item.UserID.String(),
		FrontContent:   item.FrontContent,
		BackContent:    item.BackContent,
		Strength:       item.Strength,
		LastReviewedAt: utcPtr(item.LastReviewedAt),
		NextDueAt:      utcPtr(item.NextDueAt),
		WrongCount:     item.WrongCount,
		Version:        item.Version,
		CreatedAt:      item.CreatedAt.UTC(),
		UpdatedAt:      item.UpdatedAt.UTC(),
	}
}

func (r itemRecord) toDomain() (*domain.MemoryItem, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, err
	}
	userID, err := uuid.Parse(r.UserID)
	if err != nil {
		return nil, err
	}
	return &domain.MemoryItem{
		ID:             id,
		UserID:         userID,
		FrontContent:   r.FrontContent,
		BackContent:    r.BackContent,
		Strength:       r.Strength,
		LastReviewedAt: utcPtr(r.LastReviewedAt),
		NextDueAt:      utcPtr(r.NextDueAt),
		WrongCount:     r.WrongCount,
		Version:        r.Version,
		CreatedAt:      r.CreatedAt.UTC(),
		UpdatedAt:      r.UpdatedAt.UTC(),
	}, nil
}

func toEventRecord(event *domain.ReviewEvent) eventRecord {
	return eventRecord{
		ID:                event.ID.String(),
		UserID:            event.UserID.String(),
		ItemID:            event.ItemID.String(),
		ReviewedAt:        event.Timestamp.UTC(),
		Outcome:           string(event.Outcome),
		ResponseLatencyMs: event.ResponseLatencyMs,
		PerformanceScore:  event.PerformanceScore,
	}
}

func (r eventRecord) toDomain() (domain.ReviewEvent, error) {
	var event domain.ReviewEvent
	var err error
	if event.ID, err = uuid.Parse(r.ID); err != nil {
		return event, err
	}
	if event.UserID, err = uuid.Parse(r.UserID); err != nil {
		return event, err
	}
	if event.ItemID, err = uuid.Parse(r.ItemID); err != nil {
		return event, err
	}
	event.Timestamp = r.ReviewedAt.UTC()
	event.Outcome = domain.ReviewOutcome(r.Outcome)
	event.ResponseLatencyMs = r.ResponseLatencyMs
	event.PerformanceScore = r.PerformanceScore
	return event, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
