package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the API.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration  *prometheus.HistogramVec
	externalErrors   *prometheus.CounterVec
	cacheHits        *prometheus.CounterVec
	cacheMisses      *prometheus.CounterVec
	requestsCreated  *prometheus.CounterVec
	statusChanges    *prometheus.CounterVec
	trackingLookups  *prometheus.CounterVec
	gatewayCheckouts *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "legalform_operation_duration_seconds",
				Help:    "Duration of operations by name.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "legalform_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "legalform_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "legalform_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		requestsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "legalform_requests_created_total",
				Help: "Total intake submissions by kind.",
			},
			[]string{"kind"},
		),
		statusChanges: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "legalform_status_changes_total",
				Help: "Total request status transitions.",
			},
			[]string{"to"},
		),
		trackingLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "legalform_tracking_lookups_total",
				Help: "Public tracking lookups by outcome.",
			},
			[]string{"outcome"},
		),
		gatewayCheckouts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "legalform_gateway_checkouts_total",
				Help: "Payment gateway checkout initiations by outcome.",
			},
			[]string{"outcome"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrRequestCreated increments the intake counter for a request kind.
func (m *Metrics) IncrRequestCreated(kind string) {
	m.requestsCreated.WithLabelValues(kind).Inc()
}

// IncrStatusChange increments the transition counter for a target status.
func (m *Metrics) IncrStatusChange(to string) {
	m.statusChanges.WithLabelValues(to).Inc()
}

// IncrTrackingLookup increments the lookup counter for an outcome
// (found, not_found, rate_limited).
func (m *Metrics) IncrTrackingLookup(outcome string) {
	m.trackingLookups.WithLabelValues(outcome).Inc()
}

// IncrGatewayCheckout increments the checkout counter for an outcome.
func (m *Metrics) IncrGatewayCheckout(outcome string) {
	m.gatewayCheckouts.WithLabelValues(outcome).Inc()
}

// TrackingLookupCount returns the cumulative lookup count for an outcome.
// Mainly useful in tests; reading a counter back is awkward otherwise.
func (m *Metrics) TrackingLookupCount(outcome string) float64 {
	return getCounterValue(m.trackingLookups, outcome)
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
