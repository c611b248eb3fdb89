package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "sinkhole"

// Metrics holds the Prometheus counters, histograms, and gauges for the
// load cycle and the map synchronizer.
type Metrics struct {
	LoadCycles       *prometheus.CounterVec // labels: outcome={success,failed,cancelled}
	LoadDuration     prometheus.Histogram
	RecordsIngested  *prometheus.CounterVec // labels: dataset
	FetchFailures    *prometheus.CounterVec // labels: dataset
	NormalizeIssues  *prometheus.CounterVec // labels: dataset
	Regions          prometheus.Gauge
	RegionsByTrend   *prometheus.GaugeVec // labels: trend
	ReportsPublished prometheus.Counter
	FetchDuration    *prometheus.HistogramVec // labels: dataset

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,miss,error,skipped}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram
	GeocodeEnabled     prometheus.Gauge

	// Map annotation metrics.
	MarkersPlaced *prometheus.CounterVec // labels: kind
	StaleResults  prometheus.Counter
	PopupToggles  *prometheus.CounterVec // labels: action={opened,closed}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.LoadCycles,
		m.LoadDuration,
		m.RecordsIngested,
		m.FetchFailures,
		m.NormalizeIssues,
		m.Regions,
		m.RegionsByTrend,
		m.ReportsPublished,
		m.FetchDuration,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeEnabled,
		m.MarkersPlaced,
		m.StaleResults,
		m.PopupToggles,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		LoadCycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "load_cycles_total",
			Help:      "Completed or abandoned full load cycles by outcome.",
		}, []string{"outcome"}),
		LoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "load_duration_seconds",
			Help:      "Duration of fetch, aggregation and scoring for one load cycle.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		RecordsIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_ingested_total",
			Help:      "Normalized records by dataset.",
		}, []string{"dataset"}),
		FetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_fetch_failures_total",
			Help:      "Dataset fetches that failed and were treated as empty.",
		}, []string{"dataset"}),
		NormalizeIssues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "normalize_issues_total",
			Help:      "Normalization diagnostics by dataset.",
		}, []string{"dataset"}),
		Regions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "regions",
			Help:      "Regions in the most recent summary table.",
		}),
		RegionsByTrend: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "regions_by_trend",
			Help:      "Regions in the most recent summary table by risk trend.",
		}, []string{"trend"}),
		ReportsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_published_total",
			Help:      "Region reports written to the sink topic.",
		}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dataset_fetch_duration_seconds",
			Help:      "Upstream dataset page request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"dataset"}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Address lookups by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Kakao address search request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geocode_enabled",
			Help:      "1 when address geocoding is enabled, 0 otherwise.",
		}),
		MarkersPlaced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "markers_placed_total",
			Help:      "Map markers placed by annotation kind.",
		}, []string{"kind"}),
		StaleResults: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_stale_results_total",
			Help:      "Geocoding completions dropped because a newer load replaced their batch.",
		}),
		PopupToggles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "popup_toggles_total",
			Help:      "Marker clicks by resulting popup action.",
		}, []string{"action"}),
	}
}
