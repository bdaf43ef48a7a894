package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label values.
const (
	OutcomeSuccess  = "success"
	OutcomeError    = "error"
	OutcomeInvalid  = "invalid"
	OutcomeFallback = "fallback"
)

// Metrics holds the Prometheus collectors for the recommendation front-end.
type Metrics struct {
	// Submissions by outcome={success,invalid,error}.
	Predictions       *prometheus.CounterVec
	PredictionLatency prometheus.Histogram

	// Weather auto-fill lookups by outcome={success,error}.
	WeatherLookups *prometheus.CounterVec
	WeatherLatency prometheus.Histogram

	// Commentary requests by outcome={success,fallback}.
	Commentary        *prometheus.CounterVec
	CommentaryLatency prometheus.Histogram

	// Navigation handoffs currently held.
	HandoffEntries prometheus.Gauge
}

var upstreamBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

func newMetrics() *Metrics {
	return &Metrics{
		Predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cropfusion",
			Name:      "predictions_total",
			Help:      "Recommendation submissions by outcome.",
		}, []string{"outcome"}),
		PredictionLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cropfusion",
			Name:      "prediction_duration_seconds",
			Help:      "Recommendation endpoint request duration.",
			Buckets:   upstreamBuckets,
		}),
		WeatherLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cropfusion",
			Name:      "weather_lookups_total",
			Help:      "Weather auto-fill lookups by outcome.",
		}, []string{"outcome"}),
		WeatherLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cropfusion",
			Name:      "weather_duration_seconds",
			Help:      "Weather API request duration.",
			Buckets:   upstreamBuckets,
		}),
		Commentary: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cropfusion",
			Name:      "commentary_total",
			Help:      "Generated commentary requests by outcome.",
		}, []string{"outcome"}),
		CommentaryLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cropfusion",
			Name:      "commentary_duration_seconds",
			Help:      "Generative text request duration.",
			Buckets:   upstreamBuckets,
		}),
		HandoffEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "cropfusion",
			Name:      "handoff_entries",
			Help:      "Pending result handoffs awaiting the result view.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Predictions,
		m.PredictionLatency,
		m.WeatherLookups,
		m.WeatherLatency,
		m.Commentary,
		m.CommentaryLatency,
		m.HandoffEntries,
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics registered with a fresh registry to
// avoid "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	m := newMetrics()
	prometheus.NewRegistry().MustRegister(m.collectors()...)
	return m
}
