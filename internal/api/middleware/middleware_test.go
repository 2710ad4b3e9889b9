package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/scry-scheduler/internal/api/shared"
	"github.com/phrazzld/scry-scheduler/internal/platform/logger"
	"github.com/phrazzld/scry-scheduler/internal/platform/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceMiddleware(t *testing.T) {
	buf, log := logger.SetupTestLogger(t, &slog.HandlerOptions{Level: slog.LevelDebug})

	var traceID string
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(NewTraceMiddleware(log))
	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		traceID = shared.GetTraceID(r.Context())
		logger.FromContext(r.Context()).Info("handled")
		w.WriteHeader(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	require.NotEmpty(t, traceID)
	entries, err := buf.GetLogEntries()
	require.NoError(t, err)

	var handled map[string]interface{}
	for _, entry := range entries {
		if entry["msg"] == "handled" {
			handled = entry
		}
	}
	require.NotNil(t, handled)
	assert.Equal(t, traceID, handled["trace_id"])
	assert.NotEmpty(t, handled["request_id"])
}

func TestMetricsMiddleware(t *testing.T) {
	t.Parallel() // Enable parallel execution

	collector := metrics.NewCollector("test")
	r := chi.NewRouter()
	r.Use(NewMetricsMiddleware(collector))
	r.Get("/sessions/{sessionID}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("OK"))
	})

	for _, path := range []string{"/sessions/a", "/sessions/b", "/health"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(collector.HTTPRequests.WithLabelValues("GET", "/sessions/{sessionID}", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.HTTPRequests.WithLabelValues("GET", "/health", "200")))
}
