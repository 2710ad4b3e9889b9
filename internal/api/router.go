package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	apiMiddleware "github.com/phrazzld/scry-scheduler/internal/api/middleware"
	"github.com/phrazzld/scry-scheduler/internal/platform/metrics"
	"github.com/phrazzld/scry-scheduler/internal/service/study"
)

// NewRouter creates the application router with all routes and middleware.
// collector may be nil, in which case /metrics is not mounted.
func NewRouter(studyService study.Service, collector *metrics.Collector, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(logger))
	if collector != nil {
		r.Use(apiMiddleware.NewMetricsMiddleware(collector))
	}

	h := NewStudyHandler(studyService, logger)

	r.Route("/users/{userID}", func(r chi.Router) {
		r.Post("/items", h.ImportItems)
		r.Get("/due", h.DueItems)
		r.Get("/events", h.History)
		r.Post("/sessions", h.StartSession)
	})

	r.Route("/sessions/{sessionID}", func(r chi.Router) {
		r.Get("/", h.GetSession)
		r.Delete("/", h.EndSession)
		r.Get("/next", h.NextItem)
		r.Post("/reviews", h.SubmitReview)
		r.Get("/stats", h.SessionStats)
	})

	if collector != nil {
		r.Method(http.MethodGet, "/metrics", collector.Handler())
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.Error("failed to write health check response", slog.String("error", err.Error()))
		}
	})

	return r
}
