package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and histograms for the census service.
type Metrics struct {
	YearsLoaded  prometheus.Counter
	YearsFailed  prometheus.Counter
	RecordsRead  prometheus.Counter
	RowsSkipped  prometheus.Counter
	Summaries    prometheus.Counter
	SummaryYears prometheus.Histogram

	// Map rendering metrics.
	MapsRendered   *prometheus.CounterVec // labels: renderer={plot,mapbox}
	MapsSkipped    *prometheus.CounterVec // labels: reason={no_accidents,no_coordinates}
	MapPoints      prometheus.Histogram
	RenderDuration *prometheus.HistogramVec // labels: renderer
	MapCache       *prometheus.CounterVec   // labels: result={hit,miss}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.YearsLoaded,
		m.YearsFailed,
		m.RecordsRead,
		m.RowsSkipped,
		m.Summaries,
		m.SummaryYears,
		m.MapsRendered,
		m.MapsSkipped,
		m.MapPoints,
		m.RenderDuration,
		m.MapCache,
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
		YearsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fars",
			Name:      "years_loaded_total",
			Help:      "Yearly accident files read and projected successfully.",
		}),
		YearsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fars",
			Name:      "years_failed_total",
			Help:      "Requested years dropped from a summary because their file could not be read.",
		}),
		RecordsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fars",
			Name:      "records_read_total",
			Help:      "Accident rows read from yearly files.",
		}),
		RowsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fars",
			Name:      "rows_skipped_total",
			Help:      "Accident rows left out of a summary because MONTH was missing.",
		}),
		Summaries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fars",
			Name:      "summaries_total",
			Help:      "Monthly summaries built.",
		}),
		SummaryYears: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "fars",
			Name:      "summary_years",
			Help:      "Number of years requested per summary.",
			Buckets:   []float64{1, 2, 3, 5, 10, 20, 50},
		}),
		MapsRendered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fars",
			Name:      "maps_rendered_total",
			Help:      "State maps rendered by renderer.",
		}, []string{"renderer"}),
		MapsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fars",
			Name:      "maps_skipped_total",
			Help:      "State map requests that produced no drawing, by reason.",
		}, []string{"reason"}),
		MapPoints: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "fars",
			Name:      "map_points",
			Help:      "Markers placed per rendered map.",
			Buckets:   []float64{1, 10, 50, 100, 250, 500, 1000, 2500, 5000},
		}),
		RenderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "fars",
			Name:      "map_render_duration_seconds",
			Help:      "Map rendering duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"renderer"}),
		MapCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fars",
			Name:      "map_cache_total",
			Help:      "Rendered map cache lookups by result.",
		}, []string{"result"}),
	}
}
