// Package metrics exposes Prometheus instrumentation for the scheduler.
//
// Each Collector owns its registry, so tests can build as many as they like
// without tripping duplicate registration on the global default registry.
// A nil *Collector discards every observation.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Failure reasons used as the "reason" label of ReviewFailures.
const (
	ReasonConflict = "conflict"
	ReasonNotFound = "not_found"
	ReasonStorage  = "storage"
	ReasonInvalid  = "invalid"
)

// Collector holds all Prometheus metrics for the application.
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Scheduling metrics
	Reviews             *prometheus.CounterVec
	ReviewFailures      *prometheus.CounterVec
	StrengthAfterReview prometheus.Histogram
	PlanSize            *prometheus.HistogramVec
	ActiveSessions      prometheus.Gauge
}

// NewCollector creates a collector with its metrics registered under namespace.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		Reviews: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reviews_total",
				Help:      "Total number of recorded reviews by outcome",
			},
			[]string{"outcome"},
		),
		ReviewFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "review_failures_total",
				Help:      "Total number of reviews that could not be recorded",
			},
			[]string{"reason"},
		),
		StrengthAfterReview: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "strength_after_review",
				Help:      "Memory strength of items after a recorded review",
				Buckets:   prometheus.LinearBuckets(0, 1, 6),
			},
		),
		PlanSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "session_plan_size",
				Help:      "Number of items planned per study session",
				Buckets:   []float64{0, 1, 5, 10, 20, 50, 100},
			},
			[]string{"mode"},
		),
		ActiveSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_sessions",
				Help:      "Number of study sessions currently open",
			},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.Reviews,
		c.ReviewFailures,
		c.StrengthAfterReview,
		c.PlanSize,
		c.ActiveSessions,
	)

	return c
}

// Registry returns the Prometheus registry for this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// ObserveReview counts a recorded review and the resulting strength.
func (c *Collector) ObserveReview(outcome string, strength int) {
	if c == nil {
		return
	}
	c.Reviews.WithLabelValues(outcome).Inc()
	c.StrengthAfterReview.Observe(float64(strength))
}

// ReviewFailed counts a review whose write was rejected or failed.
func (c *Collector) ReviewFailed(reason string) {
	if c == nil {
		return
	}
	c.ReviewFailures.WithLabelValues(reason).Inc()
}

// ObservePlan records the size of a freshly composed session plan.
func (c *Collector) ObservePlan(mode string, size int) {
	if c == nil {
		return
	}
	c.PlanSize.WithLabelValues(mode).Observe(float64(size))
}

// SessionStarted increments the open session gauge.
func (c *Collector) SessionStarted() {
	if c == nil {
		return
	}
	c.ActiveSessions.Inc()
}

// SessionEnded decrements the open session gauge.
func (c *Collector) SessionEnded() {
	if c == nil {
		return
	}
	c.ActiveSessions.Dec()
}

// ObserveHTTP records one served request.
func (c *Collector) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
