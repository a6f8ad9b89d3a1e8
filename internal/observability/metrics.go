package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "impact_atlas"

// Metrics holds the Prometheus counters, histograms, and gauges for the service.
type Metrics struct {
	// Classification metrics.
	GeoQueries     *prometheus.CounterVec // labels: outcome={region,ocean}
	RegionCache    *prometheus.CounterVec // labels: result={hit,miss}
	RegionsLoaded  prometheus.Gauge
	RegionsSkipped prometheus.Gauge

	// Impact model metrics.
	ImpactAssessments *prometheus.CounterVec // labels: model={scaling_law,angle_factor}
	ValidationErrors  prometheus.Counter

	// History publishing metrics.
	HistoryPublished     prometheus.Counter
	HistoryDropped       prometheus.Counter
	HistoryPublishErrors prometheus.Counter
	HistoryBatchSize     prometheus.Histogram
	HistoryFlushDuration prometheus.Histogram
	PublisherRunning     prometheus.Gauge
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.GeoQueries,
		m.RegionCache,
		m.RegionsLoaded,
		m.RegionsSkipped,
		m.ImpactAssessments,
		m.ValidationErrors,
		m.HistoryPublished,
		m.HistoryDropped,
		m.HistoryPublishErrors,
		m.HistoryBatchSize,
		m.HistoryFlushDuration,
		m.PublisherRunning,
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
		GeoQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geo_queries_total",
			Help:      "Geo risk queries by outcome.",
		}, []string{"outcome"}),
		RegionCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "region_cache_total",
			Help:      "Region classification cache lookups by result.",
		}, []string{"result"}),
		RegionsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "regions_loaded",
			Help:      "Number of ecoregions held by the index.",
		}),
		RegionsSkipped: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "regions_skipped",
			Help:      "Number of ecoregion features rejected at load time.",
		}),
		ImpactAssessments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "impact_assessments_total",
			Help:      "Impact assessments by crater model.",
		}, []string{"model"}),
		ValidationErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_errors_total",
			Help:      "Impact inputs rejected by validation.",
		}),
		HistoryPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_published_total",
			Help:      "History entries written to the history topic.",
		}),
		HistoryDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_dropped_total",
			Help:      "History entries dropped because the publish queue was full.",
		}),
		HistoryPublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_publish_errors_total",
			Help:      "Failed history batch writes.",
		}),
		HistoryBatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "history_batch_size",
			Help:      "Number of history entries per published batch.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		HistoryFlushDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "history_flush_duration_seconds",
			Help:      "Duration of a history batch write.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		PublisherRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "history_publisher_running",
			Help:      "1 when the history publisher is active, 0 when shut down.",
		}),
	}
}
