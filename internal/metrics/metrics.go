// Package metrics exposes Prometheus instrumentation for the recommendation service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors. Create it with New.
type Metrics struct {
	registry *prometheus.Registry

	recommendDuration prometheus.Histogram
	recommendations   *prometheus.CounterVec
	productsScored    prometheus.Counter
	requests          *prometheus.CounterVec
}

// New creates the collectors on a fresh registry together with the Go and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		recommendDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "quizrec_recommend_duration_seconds",
			Help:    "Time spent scoring and ranking a catalog for one request.",
			Buckets: prometheus.DefBuckets,
		}),
		recommendations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quizrec_recommendations_total",
			Help: "Recommendation requests served, by preset.",
		}, []string{"preset"}),
		productsScored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quizrec_products_scored_total",
			Help: "Products scored across all requests.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quizrec_http_requests_total",
			Help: "HTTP requests by status code and method.",
		}, []string{"code", "method"}),
	}

	m.registry.MustRegister(
		m.recommendDuration,
		m.recommendations,
		m.productsScored,
		m.requests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveRecommend records one ranking pass over scored products.
func (m *Metrics) ObserveRecommend(preset string, scored int, elapsed time.Duration) {
	m.recommendDuration.Observe(elapsed.Seconds())
	m.recommendations.WithLabelValues(preset).Inc()
	m.productsScored.Add(float64(scored))
}

// Instrument counts requests passing through next.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	return promhttp.InstrumentHandlerCounter(m.requests, next)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
