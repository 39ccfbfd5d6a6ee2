// Package metrics exposes prometheus collectors for the HTTP layer and the
// model cache.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors. Each Metrics owns its own registry so
// multiple instances can coexist in tests.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal     *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	requestedModels   *prometheus.CounterVec
	modelLoadsTotal   *prometheus.CounterVec
	modelLoadDuration *prometheus.HistogramVec
}

// New creates the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "embedserve_http_requests_total",
			Help: "HTTP requests by route, method, and status code.",
		}, []string{"route", "method", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "embedserve_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		requestedModels: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "embedserve_requested_models_total",
			Help: "Embedding requests by model identifier.",
		}, []string{"model"}),
		modelLoadsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "embedserve_model_loads_total",
			Help: "Model load attempts by model and outcome.",
		}, []string{"model", "outcome"}),
		modelLoadDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "embedserve_model_load_duration_seconds",
			Help:    "Model load duration by model.",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"model"}),
	}
}

// Handler returns the /metrics HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one completed HTTP request.
func (m *Metrics) ObserveRequest(route, method string, status int, d time.Duration) {
	m.requestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(d.Seconds())
}

// CountModelRequest records that an embedding request targeted model.
func (m *Metrics) CountModelRequest(model string) {
	m.requestedModels.WithLabelValues(model).Inc()
}

// ObserveLoad records one model load attempt. Satisfies modelcache.LoadObserver.
func (m *Metrics) ObserveLoad(model string, d time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.modelLoadsTotal.WithLabelValues(model, outcome).Inc()
	m.modelLoadDuration.WithLabelValues(model).Observe(d.Seconds())
}
