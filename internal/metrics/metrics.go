// Package metrics exposes Prometheus collectors on a private registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bobmcallan/nivesh/internal/models"
)

const namespace = "nivesh"

// Metrics holds every collector. It satisfies navsync.Metrics and
// advice.Metrics.
type Metrics struct {
	registry *prometheus.Registry

	syncBatches   *prometheus.CounterVec
	syncDuration  prometheus.Histogram
	fetchOutcomes *prometheus.CounterVec
	universeSize  prometheus.Gauge
	adviceResults *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
}

// New registers all collectors, plus the Go and process collectors, on a
// fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		syncBatches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "batches_total",
			Help:      "Universe sync batches by result (success, partial, failed, skipped)",
		}, []string{"result"}),
		syncDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "batch_duration_seconds",
			Help:      "Wall time of a universe sync batch",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		}),
		fetchOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "fetches_total",
			Help:      "Per-fund NAV fetches by outcome",
		}, []string{"outcome"}),
		universeSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "universe",
			Name:      "funds",
			Help:      "Funds in the published universe",
		}),
		adviceResults: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "advice",
			Name:      "requests_total",
			Help:      "Advice collaborator calls by kind and outcome",
		}, []string{"kind", "outcome"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method and status",
		}, []string{"method", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveBatch(result string, elapsed time.Duration) {
	m.syncBatches.WithLabelValues(result).Inc()
	if elapsed > 0 {
		m.syncDuration.Observe(elapsed.Seconds())
	}
}

func (m *Metrics) ObserveFetch(outcome models.FetchOutcome) {
	m.fetchOutcomes.WithLabelValues(string(outcome)).Inc()
}

func (m *Metrics) SetUniverseSize(n int) {
	m.universeSize.Set(float64(n))
}

func (m *Metrics) ObserveAdvice(kind, outcome string) {
	m.adviceResults.WithLabelValues(kind, outcome).Inc()
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(method string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}
