package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "nobelmap"

// Metrics holds the Prometheus collectors for the pipeline and the API
type Metrics struct {
	// Geocoding metrics.
	GeocodeRequests *prometheus.CounterVec   // labels: backend, outcome={hit,miss,error}
	GeocodeCache    *prometheus.CounterVec   // labels: result={hit,miss}
	GeocodeDuration *prometheus.HistogramVec // labels: backend

	// Enrichment metrics.
	EnrichmentAttempts *prometheus.CounterVec // labels: source, outcome={found,empty,error}

	// Stage metrics.
	StageDuration *prometheus.HistogramVec // labels: stage
	StageChanges  *prometheus.CounterVec   // labels: stage, kind={updated,unchanged,failed}

	// Dataset and API metrics.
	Partition   *prometheus.GaugeVec   // labels: partition={complete,needs_manual_review,suspicious}
	APIRequests *prometheus.CounterVec // labels: route, status
}

func newCollectors() *Metrics {
	return &Metrics{
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Geocoding lookups by backend and outcome.",
		}, []string{"backend", "outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocode cache lookups by result.",
		}, []string{"result"}),
		GeocodeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_duration_seconds",
			Help:      "Geocoding backend latency in seconds, including rate-limit waits.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"backend"}),
		EnrichmentAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrichment_attempts_total",
			Help:      "Enrichment attempts by source and outcome.",
		}, []string{"source", "outcome"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage wall time in seconds.",
			Buckets:   []float64{1, 5, 30, 60, 300, 900, 1800, 3600},
		}, []string{"stage"}),
		StageChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_records_total",
			Help:      "Records touched by pipeline stages by outcome.",
		}, []string{"stage", "kind"}),
		Partition: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records",
			Help:      "Records per validation partition in the last run.",
		}, []string{"partition"}),
		APIRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Presentation API requests by route and status.",
		}, []string{"route", "status"}),
	}
}

// NewMetrics creates all collectors and registers them with the default registry
func NewMetrics() *Metrics {
	m := newCollectors()
	prometheus.MustRegister(
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeDuration,
		m.EnrichmentAttempts,
		m.StageDuration,
		m.StageChanges,
		m.Partition,
		m.APIRequests,
	)
	return m
}

// NewMetricsForTesting creates unregistered collectors so tests can build
// as many as they like
func NewMetricsForTesting() *Metrics {
	return newCollectors()
}
