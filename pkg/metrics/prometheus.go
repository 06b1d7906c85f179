// Package metrics provides Prometheus metrics for the scoreboard editor and presenter.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Reveal run outcomes recorded by RecordRevealRun.
const (
	OutcomeStarted   = "started"
	OutcomeRejected  = "rejected"
	OutcomeCompleted = "completed"
	OutcomeCancelled = "cancelled"
	OutcomeFailed    = "failed"
)

// Manager manages all Prometheus metrics for the scoreboard.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         prometheus.Registerer

	// Editing
	mutations      *prometheus.CounterVec
	mutationErrors *prometheus.CounterVec
	documentTeams  prometheus.Gauge
	documentCats   prometheus.Gauge

	// Repository
	repositoryOps     *prometheus.CounterVec
	repositoryLatency *prometheus.HistogramVec

	// Reveal
	revealRuns     *prometheus.CounterVec
	revealSteps    *prometheus.CounterVec
	revealActive   prometheus.Gauge
	displayClients prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "scoreboard",
		histogramBuckets: []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric definition
	auto := promauto.With(m.registry)

	m.mutations = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "mutations_total",
		Help:      "Total number of applied score matrix mutations by operation",
	}, []string{"op"})

	m.mutationErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "mutation_errors_total",
		Help:      "Total number of rejected score matrix mutations by operation and kind",
	}, []string{"op", "kind"})

	m.documentTeams = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "document_teams",
		Help:      "Number of teams in the open scoreboard",
	})

	m.documentCats = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "document_categories",
		Help:      "Number of categories in the open scoreboard",
	})

	m.repositoryOps = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "repository_operations_total",
		Help:      "Total number of load/save operations by format and result",
	}, []string{"op", "format", "result"})

	m.repositoryLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "repository_latency_milliseconds",
		Help:      "Histogram of load/save latency in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"op", "format"})

	m.revealRuns = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reveal_runs_total",
		Help:      "Total number of reveal runs by outcome",
	}, []string{"outcome"})

	m.revealSteps = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reveal_steps_rendered_total",
		Help:      "Total number of reveal steps pushed to a presentation surface by kind",
	}, []string{"kind"})

	m.revealActive = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reveal_active",
		Help:      "Number of reveal runs currently running",
	})

	m.displayClients = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "display_clients",
		Help:      "Number of connected browser display clients",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by endpoint, method and status",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "Histogram of HTTP request durations in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_endpoint_total",
		Help:      "Total number of HTTP error responses by endpoint, method and error type",
	}, []string{"endpoint", "method", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_usage_bytes",
		Help:      "Current heap allocation in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutine_count",
		Help:      "Current number of goroutines",
	})
}

// RecordMutation counts an applied mutation.
func (m *Manager) RecordMutation(op string) {
	if !m.enabled {
		return
	}
	m.mutations.WithLabelValues(op).Inc()
}

// RecordMutationError counts a rejected mutation.
func (m *Manager) RecordMutationError(op, kind string) {
	if !m.enabled {
		return
	}
	m.mutationErrors.WithLabelValues(op, kind).Inc()
}

// UpdateDocumentShape sets the team and category gauges.
func (m *Manager) UpdateDocumentShape(teams, categories int) {
	if !m.enabled {
		return
	}
	m.documentTeams.Set(float64(teams))
	m.documentCats.Set(float64(categories))
}

// RecordRepositoryOperation counts a load/save and observes its latency.
func (m *Manager) RecordRepositoryOperation(op, format string, err error, latencyMs float64) {
	if !m.enabled {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.repositoryOps.WithLabelValues(op, format, result).Inc()
	m.repositoryLatency.WithLabelValues(op, format).Observe(latencyMs)
}

// RecordRevealRun counts a reveal run transition and keeps the active gauge
// in step with it.
func (m *Manager) RecordRevealRun(outcome string) error {
	if !m.enabled {
		return nil
	}
	switch outcome {
	case OutcomeStarted:
		m.revealActive.Inc()
	case OutcomeCompleted, OutcomeCancelled, OutcomeFailed:
		m.revealActive.Dec()
	case OutcomeRejected:
	default:
		return fmt.Errorf("%w: %s", ErrUnknownOutcome, outcome)
	}
	m.revealRuns.WithLabelValues(outcome).Inc()
	return nil
}

// RecordRevealStep counts a step pushed to a surface.
func (m *Manager) RecordRevealStep(kind string) {
	if !m.enabled {
		return
	}
	m.revealSteps.WithLabelValues(kind).Inc()
}

// UpdateDisplayClients sets the connected display client gauge.
func (m *Manager) UpdateDisplayClients(count int) {
	if !m.enabled {
		return
	}
	m.displayClients.Set(float64(count))
}

// RecordHTTPRequest records an HTTP request and its duration.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	if !m.enabled {
		return
	}
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByEndpoint counts an HTTP error response.
func (m *Manager) RecordErrorByEndpoint(endpoint, method, errorType string) {
	if !m.enabled {
		return
	}
	m.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystem sets memory and goroutine gauges.
func (m *Manager) UpdateSystem(memoryBytes uint64, goroutines int) {
	if !m.enabled {
		return
	}
	m.systemMemoryUsage.Set(float64(memoryBytes))
	m.systemGoroutineCount.Set(float64(goroutines))
}

// Package-level helpers delegate to the global manager.

// RecordMutation counts an applied mutation.
func RecordMutation(op string) { globalManager.RecordMutation(op) }

// RecordMutationError counts a rejected mutation.
func RecordMutationError(op, kind string) { globalManager.RecordMutationError(op, kind) }

// UpdateDocumentShape sets the team and category gauges.
func UpdateDocumentShape(teams, categories int) {
	globalManager.UpdateDocumentShape(teams, categories)
}

// RecordRepositoryOperation counts a load/save and observes its latency.
func RecordRepositoryOperation(op, format string, err error, latencyMs float64) {
	globalManager.RecordRepositoryOperation(op, format, err, latencyMs)
}

// RecordRevealRun counts a reveal run transition.
func RecordRevealRun(outcome string) error { return globalManager.RecordRevealRun(outcome) }

// RecordRevealStep counts a step pushed to a surface.
func RecordRevealStep(kind string) { globalManager.RecordRevealStep(kind) }

// UpdateDisplayClients sets the connected display client gauge.
func UpdateDisplayClients(count int) { globalManager.UpdateDisplayClients(count) }

// RecordHTTPRequest records an HTTP request and its duration.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.RecordHTTPRequest(endpoint, method, statusCode, durationMs)
}

// RecordErrorByEndpoint counts an HTTP error response.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.RecordErrorByEndpoint(endpoint, method, errorType)
}

// UpdateSystem sets memory and goroutine gauges.
func UpdateSystem(memoryBytes uint64, goroutines int) {
	globalManager.UpdateSystem(memoryBytes, goroutines)
}

// GetRegistry returns the custom registry used by the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
