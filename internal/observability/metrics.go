package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "earthslight"

// Metrics holds the Prometheus collectors for the prediction service.
type Metrics struct {
	Predictions      *prometheus.CounterVec // labels: strategy={primary,fallback}
	Fallbacks        *prometheus.CounterVec // labels: reason
	PrimaryDuration  prometheus.Histogram
	ComputationError prometheus.Counter
	ModelLoaded      prometheus.Gauge

	// History recording.
	HistoryQueued  prometheus.Counter
	HistoryDropped prometheus.Counter
	HistoryWritten prometheus.Counter
	HistoryPruned  prometheus.Counter
}

func newMetrics() *Metrics {
	return &Metrics{
		Predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Predictions served by strategy.",
		}, []string{"strategy"}),
		Fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prediction_fallbacks_total",
			Help:      "Times the fallback model replaced the external model, by reason.",
		}, []string{"reason"}),
		PrimaryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "primary_duration_seconds",
			Help:      "Duration of external model calls, successful or not.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 10},
		}),
		ComputationError: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "computation_errors_total",
			Help:      "Predictions rejected because a price or growth was not finite.",
		}),
		ModelLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_loaded",
			Help:      "1 when the external model passed its startup probe, 0 otherwise.",
		}),
		HistoryQueued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_queued_total",
			Help:      "Prediction records queued for persistence.",
		}),
		HistoryDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_dropped_total",
			Help:      "Prediction records dropped because the queue was full or closed.",
		}),
		HistoryWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_written_total",
			Help:      "Prediction records written to the database.",
		}),
		HistoryPruned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_pruned_total",
			Help:      "Prediction records removed by the retention job.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Predictions,
		m.Fallbacks,
		m.PrimaryDuration,
		m.ComputationError,
		m.ModelLoaded,
		m.HistoryQueued,
		m.HistoryDropped,
		m.HistoryWritten,
		m.HistoryPruned,
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics on a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	m := newMetrics()
	prometheus.NewRegistry().MustRegister(m.collectors()...)
	return m
}
