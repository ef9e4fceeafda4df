package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// refresh pipeline.
type Metrics struct {
	CyclesTotal         *prometheus.CounterVec // labels: outcome={success,failure}
	CycleDuration       prometheus.Histogram
	OrchestratorRunning prometheus.Gauge

	RecordsFetched  prometheus.Counter
	AdapterFailures *prometheus.CounterVec // labels: provider
	EventsEnriched  prometheus.Counter
	EventsMerged    prometheus.Counter

	NoveltyQueries      prometheus.Counter
	NovelEventsReturned prometheus.Counter

	// Enrichment provider metrics.
	GeocodeRequests *prometheus.CounterVec // labels: outcome={success,miss,error}
	GeocodeCache    *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeDuration prometheus.Histogram
	WeatherRequests *prometheus.CounterVec // labels: outcome={success,error}
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.CyclesTotal,
		m.CycleDuration,
		m.OrchestratorRunning,
		m.RecordsFetched,
		m.AdapterFailures,
		m.EventsEnriched,
		m.EventsMerged,
		m.NoveltyQueries,
		m.NovelEventsReturned,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeDuration,
		m.WeatherRequests,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		CyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "parentplanner",
			Name:      "refresh_cycles_total",
			Help:      "Completed refresh cycles by outcome.",
		}, []string{"outcome"}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "parentplanner",
			Name:      "refresh_cycle_duration_seconds",
			Help:      "Duration of a complete fetch-enrich-merge-notify cycle.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		OrchestratorRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "parentplanner",
			Name:      "orchestrator_running",
			Help:      "1 when the refresh orchestrator loop is active, 0 when shut down.",
		}),
		RecordsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "parentplanner",
			Name:      "records_fetched_total",
			Help:      "Total raw records fetched from all source adapters.",
		}),
		AdapterFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "parentplanner",
			Name:      "adapter_failures_total",
			Help:      "Source adapter fetch failures by provider.",
		}, []string{"provider"}),
		EventsEnriched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "parentplanner",
			Name:      "events_enriched_total",
			Help:      "Total records run through enrichment.",
		}),
		EventsMerged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "parentplanner",
			Name:      "events_merged_total",
			Help:      "Total events newly inserted into the event store.",
		}),
		NoveltyQueries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "parentplanner",
			Name:      "novelty_queries_total",
			Help:      "Total per-subscriber novelty queries served.",
		}),
		NovelEventsReturned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "parentplanner",
			Name:      "novel_events_returned_total",
			Help:      "Total events returned as new-to-subscriber.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "parentplanner",
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "parentplanner",
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "parentplanner",
			Name:      "geocode_api_duration_seconds",
			Help:      "Geocoding API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		WeatherRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "parentplanner",
			Name:      "weather_requests_total",
			Help:      "Weather API requests by outcome.",
		}, []string{"outcome"}),
	}
}
