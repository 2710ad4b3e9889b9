package dynamo

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/domain"
)

const (
	entityItem  = "ITEM"
	entityEvent = "EVENT"

	itemPrefix  = "ITEM#"
	eventPrefix = "EVENT#"

	// sortableTime has a fixed width so lexical order is time order.
	sortableTime = "2006-01-02T15:04:05.000000000Z"
)

func userPK(userID uuid.UUID) string {
	return "USER#" + userID.String()
}

func itemSK(itemID uuid.UUID) string {
	return itemPrefix + itemID.String()
}

func eventSK(at time.Time, eventID uuid.UUID) string {
	return eventPrefix + at.UTC().Format(sortableTime) + "#" + eventID.String()
}

// itemRecord is the DynamoDB shape of a memory item.
type itemRecord struct {
	PK             string `dynamodbav:"PK"`
	SK             string `dynamodbav:"SK"`
	EntityType     string `dynamodbav:"EntityType"`
	ItemID         string `dynamodbav:"ItemID"`
	UserID         string `dynamodbav:"UserID"`
	FrontContent   string `dynamodbav:"FrontContent"`
	BackContent    string `dynamodbav:"BackContent"`
	Strength       int    `dynamodbav:"Strength"`
	LastReviewedAt string `dynamodbav:"LastReviewedAt,omitempty"`
	NextDueAt      string `dynamodbav:"NextDueAt,omitempty"`
	WrongCount     int    `dynamodbav:"WrongCount"`
	Version        int    `dynamodbav:"Version"`
	CreatedAt      string `dynamodbav:"CreatedAt"`
	UpdatedAt      string `dynamodbav:"UpdatedAt"`
}

// eventRecord is the DynamoDB shape of a review event.
type eventRecord struct {
	PK                string `dynamodbav:"PK"`
	SK                string `dynamodbav:"SK"`
	EntityType        string `dynamodbav:"EntityType"`
	EventID           string `dynamodbav:"EventID"`
	UserID            string `dynamodbav:"UserID"`
	ItemID            string `dynamodbav:"ItemID"`
	Timestamp         string `dynamodbav:"Timestamp"`
	Outcome           string `dynamodbav:"Outcome"`
	ResponseLatencyMs int64  `dynamodbav:"ResponseLatencyMs"`
	PerformanceScore  int    `dynamodbav:"PerformanceScore"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

func parseOptionalTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func toItemRecord(item *domain.MemoryItem) itemRecord {
	return itemRecord{
		PK:             userPK(item.UserID),
		SK:             itemSK(item.ID),
		EntityType:     entityItem,
		ItemID:         item.ID.String(),
		UserID:         item.UserID.String(),
		FrontContent:   item.FrontContent,
		BackContent:    item.BackContent,
		Strength:       item.Strength,
		LastReviewedAt: formatOptionalTime(item.LastReviewedAt),
		NextDueAt:      formatOptionalTime(item.NextDueAt),
		WrongCount:     item.WrongCount,
		Version:        item.Version,
		CreatedAt:      formatTime(item.CreatedAt),
		UpdatedAt:      formatTime(item.UpdatedAt),
	}
}

func (r itemRecord) toDomain() (*domain.MemoryItem, error) {
	id, err := uuid.Parse(r.ItemID)
	if err != nil {
		return nil, fmt.Errorf("item id: %w", err)
	}
	userID, err := uuid.Parse(r.UserID)
	if err != nil {
		return nil, fmt.Errorf("user id: %w", err)
	}
	lastReviewed, err := parseOptionalTime(r.LastReviewedAt)
	if err != nil {
		return nil, fmt.Errorf("last reviewed: %w", err)
	}
	nextDue, err := parseOptionalTime(r.NextDueAt)
	if err != nil {
		return nil, fmt.Errorf("next due: %w", err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("created at: %w", err)
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, r.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("updated at: %w", err)
	}

	return &domain.MemoryItem{
		ID:             id,
		UserID:         userID,
		FrontContent:   r.FrontContent,
		BackContent:    r.BackContent,
		Strength:       r.Strength,
		LastReviewedAt: lastReviewed,
		NextDueAt:      nextDue,
		WrongCount:     r.WrongCount,
		Version:        r.Version,
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
	}, nil
}

func toEventRecord(event *domain.ReviewEvent) eventRecord {
	return eventRecord{
		PK:                userPK(event.UserID),
		SK:                eventSK(event.Timestamp, event.ID),
		EntityType:        entityEvent,
		EventID:           event.ID.String(),
		UserID:            event.UserID.String(),
		ItemID:            event.ItemID.String(),
		Timestamp:         formatTime(event.Timestamp),
		Outcome:           string(event.Outcome),
		ResponseLatencyMs: event.ResponseLatencyMs,
		PerformanceScore:  event.PerformanceScore,
	}
}

func (r eventRecord) toDomain() (domain.ReviewEvent, error) {
	var event domain.ReviewEvent
	var err error
	if event.ID, err = uuid.Parse(r.EventID); err != nil {
		return event, fmt.Errorf("event id: %w", err)
	}
	if event.UserID, err = uuid.Parse(r.UserID); err != nil {
		return event, fmt.Errorf("user id: %w", err)
	}
	if event.ItemID, err = uuid.Parse(r.ItemID); err != nil {
		return event, fmt.Errorf("item id: %w", err)
	}
	if event.Timestamp, err = time.Parse(time.RFC3339Nano, r.Timestamp); err != nil {
		return event, fmt.Errorf("timestamp: %w", err)
	}
	event.Outcome = domain.ReviewOutcome(r.Outcome)
	event.ResponseLatencyMs = r.ResponseLatencyMs
	event.PerformanceScore = r.PerformanceScore
	return event, nil
}
