package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/api/shared"
	"github.com/phrazzld/scry-scheduler/internal/domain"
	"github.com/phrazzld/scry-scheduler/internal/platform/logger"
	"github.com/phrazzld/scry-scheduler/internal/service/study"
)

// StudyHandler handles item and study session HTTP requests
type StudyHandler struct {
	study  study.Service
	logger *slog.Logger
}

// NewStudyHandler creates a new StudyHandler
func NewStudyHandler(studyService study.Service, logger *slog.Logger) *StudyHandler {
	if studyService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("studyService cannot be nil for StudyHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StudyHandler{
		study:  studyService,
		logger: logger.With(slog.String("component", "study_handler")),
	}
}

// ImportItems handles POST /users/{userID}/items requests.
func (h *StudyHandler) ImportItems(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := handlePathUUID(w, r, "userID", log)
	if !ok {
		return
	}

	var req ImportItemsRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	inputs := make([]study.NewItem, 0, len(req.Items))
	for _, in := range req.Items {
		inputs = append(inputs, study.NewItem{Front: in.Front, Back: in.Back})
	}

	items, err := h.study.ImportItems(r.Context(), userID, inputs)
	if err != nil {
		respondServiceError(w, r, err, "Failed to import items")
		return
	}

	log.Debug("items imported",
		slog.String("user_id", userID.String()),
		slog.Int("count", len(items)))
	shared.RespondWithJSON(w, r, http.StatusCreated, itemsToResponse(items))
}

// DueItems handles GET /users/{userID}/due requests.
func (h *StudyHandler) DueItems(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := handlePathUUID(w, r, "userID", log)
	if !ok {
		return
	}

	items, err := h.study.DueItems(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, err, "Failed to load due items")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, itemsToResponse(items))
}

// History handles GET /users/{userID}/events requests. The optional item_id
// query parameter narrows the history to one item.
func (h *StudyHandler) History(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := handlePathUUID(w, r, "userID", log)
	if !ok {
		return
	}

	itemID := uuid.Nil
	if raw := r.URL.Query().Get("item_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			log.Warn("invalid item_id query parameter", slog.String("value", raw))
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid item_id")
			return
		}
		itemID = parsed
	}

	events, err := h.study.History(r.Context(), userID, itemID)
	if err != nil {
		respondServiceError(w, r, err, "Failed to load review history")
		return
	}

	out := make([]EventResponse, 0, len(events))
	for _, event := range events {
		out = append(out, eventToResponse(event))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, EventsResponse{Events: out})
}

// StartSession handles POST /users/{userID}/sessions requests.
func (h *StudyHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := handlePathUUID(w, r, "userID", log)
	if !ok {
		return
	}

	var req StartSessionRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	snap, err := h.study.Start(r.Context(), userID, study.StartOptions{
		Mode:               study.Mode(req.Mode),
		MaxTerms:           req.MaxTerms,
		TimeBudget:         time.Duration(req.TimeBudgetSeconds) * time.Second,
		IncludeNewTerms:    req.IncludeNewTerms,
		PrioritizeDueTerms: req.PrioritizeDueTerms,
	})
	if err != nil {
		respondServiceError(w, r, err, "Failed to start session")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, sessionToResponse(snap))
}

// GetSession handles GET /sessions/{sessionID} requests.
func (h *StudyHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	sessionID, ok := handlePathUUID(w, r, "sessionID", log)
	if !ok {
		return
	}

	snap, err := h.study.Get(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, r, err, "Failed to load session")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, sessionToResponse(snap))
}

// NextItem handles GET /sessions/{sessionID}/next requests. A finished
// session answers 204 No Content.
func (h *StudyHandler) NextItem(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	sessionID, ok := handlePathUUID(w, r, "sessionID", log)
	if !ok {
		return
	}

	item, err := h.study.Next(r.Context(), sessionID)
	if errors.Is(err, study.ErrSessionFinished) {
		log.Debug("session has no items left", slog.String("session_id", sessionID.String()))
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		respondServiceError(w, r, err, "Failed to get next item")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, itemToResponse(item))
}

// SubmitReview handles POST /sessions/{sessionID}/reviews requests.
func (h *StudyHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	sessionID, ok := handlePathUUID(w, r, "sessionID", log)
	if !ok {
		return
	}

	var req SubmitReviewRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	result, err := h.study.Answer(r.Context(), sessionID, study.Answer{
		ItemID:    uuid.MustParse(req.ItemID),
		Outcome:   domain.ReviewOutcome(req.Outcome),
		LatencyMs: req.LatencyMs,
	})
	if err != nil {
		respondServiceError(w, r, err, "Failed to record review")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, ReviewResponse{
		Item:     itemToResponse(result.Item),
		Event:    eventToResponse(result.Event),
		Stats:    result.Stats,
		Requeued: result.Requeued,
		Finished: result.Finished,
	})
}

// SessionStats handles GET /sessions/{sessionID}/stats requests.
func (h *StudyHandler) SessionStats(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	sessionID, ok := handlePathUUID(w, r, "sessionID", log)
	if !ok {
		return
	}

	stats, err := h.study.Stats(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, r, err, "Failed to load session stats")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, stats)
}

// EndSession handles DELETE /sessions/{sessionID} requests and returns the
// final stats.
func (h *StudyHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	sessionID, ok := handlePathUUID(w, r, "sessionID", log)
	if !ok {
		return
	}

	stats, err := h.study.End(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, r, err, "Failed to end session")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, stats)
}
