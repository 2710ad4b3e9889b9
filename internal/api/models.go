package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/domain"
	"github.com/phrazzld/scry-scheduler/internal/domain/session"
	"github.com/phrazzld/scry-scheduler/internal/service/study"
)

// ItemInput is the content of one item to import.
type ItemInput struct {
	Front string `json:"front" validate:"required,max=4000"`
	Back  string `json:"back"  validate:"max=4000"`
}

// ImportItemsRequest defines the payload for the bulk item import endpoint.
type ImportItemsRequest struct {
	Items []ItemInput `json:"items" validate:"required,min=1,max=1000,dive"`
}

// StartSessionRequest defines the payload for starting a study session.
type StartSessionRequest struct {
	Mode               string `json:"mode"                 validate:"omitempty,oneof=intake mixed"`
	MaxTerms           int    `json:"max_terms"            validate:"gte=0,lte=500"`
	TimeBudgetSeconds  int    `json:"time_budget_seconds"  validate:"gte=0,lte=86400"`
	IncludeNewTerms    bool   `json:"include_new_terms"`
	PrioritizeDueTerms bool   `json:"prioritize_due_terms"`
}

// SubmitReviewRequest defines the payload for answering the current item.
// Negative latencies are accepted and treated as zero.
type SubmitReviewRequest struct {
	ItemID    string `json:"item_id"    validate:"required,uuid"`
	Outcome   string `json:"outcome"    validate:"required,oneof=correct incorrect"`
	LatencyMs int64  `json:"latency_ms"`
}

// ItemResponse represents a memory item.
type ItemResponse struct {
	ID             uuid.UUID  `json:"id"`
	FrontContent   string     `json:"front_content"`
	BackContent    string     `json:"back_content"`
	Strength       int        `json:"strength"`
	LastReviewedAt *time.Time `json:"last_reviewed_at,omitempty"`
	NextDueAt      *time.Time `json:"next_due_at,omitempty"`
	WrongCount     int        `json:"wrong_count"`
	Version        int        `json:"version"`
}

// ItemsResponse wraps a list of items.
type ItemsResponse struct {
	Items []ItemResponse `json:"items"`
}

// EventResponse represents one review history entry.
type EventResponse struct {
	ID                uuid.UUID `json:"id"`
	ItemID            uuid.UUID `json:"item_id"`
	Timestamp         time.Time `json:"timestamp"`
	Outcome           string    `json:"outcome"`
	ResponseLatencyMs int64     `json:"response_latency_ms"`
	PerformanceScore  int       `json:"performance_score"`
}

// EventsResponse wraps a list of review events.
type EventsResponse struct {
	Events []EventResponse `json:"events"`
}

// SessionResponse represents a study session.
type SessionResponse struct {
	ID        uuid.UUID      `json:"id"`
	UserID    uuid.UUID      `json:"user_id"`
	Mode      string         `json:"mode"`
	StartedAt time.Time      `json:"started_at"`
	Plan      []ItemResponse `json:"plan"`
	Remaining int            `json:"remaining"`
	Stats     session.Stats  `json:"stats"`
}

// ReviewResponse is returned after an answer was recorded.
type ReviewResponse struct {
	Item     ItemResponse  `json:"item"`
	Event    EventResponse `json:"event"`
	Stats    session.Stats `json:"stats"`
	Requeued bool          `json:"requeued"`
	Finished bool          `json:"finished"`
}

func itemToResponse(item *domain.MemoryItem) ItemResponse {
	return ItemResponse{
		ID:             item.ID,
		FrontContent:   item.FrontContent,
		BackContent:    item.BackContent,
		Strength:       item.Strength,
		LastReviewedAt: item.LastReviewedAt,
		NextDueAt:      item.NextDueAt,
		WrongCount:     item.WrongCount,
		Version:        item.Version,
	}
}

func itemsToResponse(items []*domain.MemoryItem) ItemsResponse {
	out := make([]ItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, itemToResponse(item))
	}
	return ItemsResponse{Items: out}
}

func eventToResponse(event domain.ReviewEvent) EventResponse {
	return EventResponse{
		ID:                event.ID,
		ItemID:            event.ItemID,
		Timestamp:         event.Timestamp,
		Outcome:           string(event.Outcome),
		ResponseLatencyMs: event.ResponseLatencyMs,
		PerformanceScore:  event.PerformanceScore,
	}
}

func sessionToResponse(snap *study.Snapshot) SessionResponse {
	plan := make([]ItemResponse, 0, len(snap.Plan))
	for _, item := range snap.Plan {
		plan = append(plan, itemToResponse(item))
	}
	return SessionResponse{
		ID:        snap.ID,
		UserID:    snap.UserID,
		Mode:      string(snap.Mode),
		StartedAt: snap.StartedAt,
		Plan:      plan,
		Remaining: snap.Remaining,
		Stats:     snap.Stats,
	}
}
