package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for model training and reconstruction
// serving. All collectors live on a private registry so multiple instances
// can coexist in tests.
type Metrics struct {
	registry *prometheus.Registry

	trainingEpochsTotal    prometheus.Counter
	validationError        prometheus.Gauge
	bestValidationError    prometheus.Gauge
	earlyStopsTotal        prometheus.Counter
	reconstructionsTotal   prometheus.Counter
	reconstructionDuration prometheus.Histogram
}

// New creates and registers the metric collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		trainingEpochsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shred",
			Subsystem: "training",
			Name:      "epochs_total",
			Help:      "Total number of completed training epochs",
		}),
		validationError: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "shred",
			Subsystem: "training",
			Name:      "validation_error",
			Help:      "Validation MSE of the most recent epoch",
		}),
		bestValidationError: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "shred",
			Subsystem: "training",
			Name:      "best_validation_error",
			Help:      "Lowest validation MSE observed so far",
		}),
		earlyStopsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shred",
			Subsystem: "training",
			Name:      "early_stops_total",
			Help:      "Number of fit runs terminated by early stopping",
		}),
		reconstructionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shred",
			Subsystem: "serving",
			Name:      "reconstructions_total",
			Help:      "Total number of served reconstruction batches",
		}),
		reconstructionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "shred",
			Subsystem: "serving",
			Name:      "reconstruction_duration_seconds",
			Help:      "Latency of reconstruction forward passes",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	m.registry.MustRegister(
		m.trainingEpochsTotal,
		m.validationError,
		m.bestValidationError,
		m.earlyStopsTotal,
		m.reconstructionsTotal,
		m.reconstructionDuration,
	)
	return m
}

// Handler exposes the registry over HTTP.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveEpoch records one completed training epoch.
func (m *Metrics) ObserveEpoch(validationError, bestValidationError float64) {
	m.trainingEpochsTotal.Inc()
	m.validationError.Set(validationError)
	m.bestValidationError.Set(bestValidationError)
}

// ObserveEarlyStop records an early-stopped fit run.
func (m *Metrics) ObserveEarlyStop() {
	m.earlyStopsTotal.Inc()
}

// ObserveReconstruction records one served reconstruction batch.
func (m *Metrics) ObserveReconstruction(d time.Duration) {
	m.reconstructionsTotal.Inc()
	m.reconstructionDuration.Observe(d.Seconds())
}
