// README: Prometheus collectors for predictions, rollup fallbacks and batch sizes on a private registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prediction outcomes used as the result label.
const (
	ResultOK       = "ok"
	ResultNotFound = "not_found"
	ResultError    = "error"
)

// Collector is safe to use as a nil pointer; every method is then a no-op.
type Collector struct {
	registry    *prometheus.Registry
	predictions *prometheus.CounterVec
	latency     prometheus.Histogram
	fallbacks   *prometheus.CounterVec
	batchSize   prometheus.Histogram
}

func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		predictions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "galley_eta_predictions_total",
				Help: "ETA predictions by outcome",
			},
			[]string{"result"},
		),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "galley_eta_prediction_seconds",
			Help:    "Time spent computing one ETA prediction",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 10),
		}),
		fallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "galley_rollup_fallbacks_total",
				Help: "Rollup reads that failed and fell back",
			},
			[]string{"source"},
		),
		batchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "galley_batch_size",
			Help:    "Distinct order ids per batch prediction request",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 200},
		}),
	}

	registry.MustRegister(
		c.predictions,
		c.latency,
		c.fallbacks,
		c.batchSize,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return c
}

func (c *Collector) RecordPrediction(result string, took time.Duration) {
	if c == nil {
		return
	}
	c.predictions.WithLabelValues(result).Inc()
	c.latency.Observe(took.Seconds())
}

func (c *Collector) RecordFallback(source string) {
	if c == nil {
		return
	}
	c.fallbacks.WithLabelValues(source).Inc()
}

func (c *Collector) RecordBatch(n int) {
	if c == nil {
		return
	}
	c.batchSize.Observe(float64(n))
}

// Handler exposes the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
