// Package metrics provides Prometheus metrics for the shiftwatch service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns all Prometheus collectors for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Ingestion metrics - the write path
	eventsIngested  prometheus.Counter
	eventsDuplicate prometheus.Counter
	eventsRejected  prometheus.Counter

	// Derivation metrics - the read path
	derivationDuration *prometheus.HistogramVec

	// Store state
	storeEvents       prometheus.Gauge
	storeWorkers      prometheus.Gauge
	storeWorkstations prometheus.Gauge

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error tracking
	errorsByEndpoint *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "shiftwatch",
		subsystem:        "productivity",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	factory := promauto.With(m.registry)

	m.eventsIngested = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_ingested_total",
		Help:      "Number of events accepted and stored.",
	})
	m.eventsDuplicate = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_duplicate_total",
		Help:      "Number of ingestion requests answered with an existing event (dedup key hit).",
	})
	m.eventsRejected = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_rejected_total",
		Help:      "Number of ingestion requests rejected by validation or referential checks.",
	})

	m.derivationDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "derivation_duration_seconds",
		Help:      "Time spent recomputing metrics from the stored event history.",
		Buckets:   m.histogramBuckets,
	}, []string{"scope"})

	m.storeEvents = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_events",
		Help:      "Number of events currently stored.",
	})
	m.storeWorkers = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_workers",
		Help:      "Number of registered workers.",
	})
	m.storeWorkstations = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_workstations",
		Help:      "Number of registered workstations.",
	})

	m.httpRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "HTTP requests by endpoint, method and status code.",
	}, []string{"endpoint", "method", "status"})
	m.httpRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration by endpoint, method and status code.",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status"})

	m.errorsByEndpoint = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_total",
		Help:      "Error responses by endpoint and error type.",
	}, []string{"endpoint", "error_type"})
}

// GetRegistry returns the registry all metrics are registered with, for
// serving via promhttp.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// RecordEventIngested counts a newly stored event.
func RecordEventIngested() { globalManager.eventsIngested.Inc() }

// RecordEventDuplicate counts a dedup key hit.
func RecordEventDuplicate() { globalManager.eventsDuplicate.Inc() }

// RecordEventRejected counts a rejected ingestion request.
func RecordEventRejected() { globalManager.eventsRejected.Inc() }

// ObserveDerivation records the duration of one metrics recomputation.
// Scope is "worker", "workstation" or "factory".
func ObserveDerivation(scope string, seconds float64) {
	globalManager.derivationDuration.WithLabelValues(scope).Observe(seconds)
}

// UpdateStoreCounts refreshes the store state gauges.
func UpdateStoreCounts(events, workers, workstations int) {
	globalManager.storeEvents.Set(float64(events))
	globalManager.storeWorkers.Set(float64(workers))
	globalManager.storeWorkstations.Set(float64(workstations))
}

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method, status string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
}

// RecordHTTPRequestDuration records an HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, status string, seconds float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, status).Observe(seconds)
}

// RecordError counts an error response by endpoint.
func RecordError(endpoint, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, errorType).Inc()
}
