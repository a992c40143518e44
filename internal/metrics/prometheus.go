// Package metrics exposes Prometheus collectors for the cache layer, the
// rate limiter, the generation provider, and the HTTP surface.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics wraps prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	cacheHits    *prometheus.CounterVec
	cacheMisses  *prometheus.CounterVec
	generations  *prometheus.CounterVec
	rateLimited  *prometheus.CounterVec
	httpRequests *prometheus.CounterVec

	generationDuration *prometheus.HistogramVec
	requestDuration    *prometheus.HistogramVec
}

// Request duration buckets in seconds; generation calls dominate the tail.
var durationBuckets = []float64{0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}

var global = New("annexa")

// Global returns the process-wide metrics instance.
func Global() *Metrics {
	return global
}

// New creates a metrics set on a fresh registry.
func New(namespace string) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,

		cacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_hits_total",
				Help:      "Cache hits served without invoking the generation provider",
			},
			[]string{"feature"},
		),
		cacheMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_misses_total",
				Help:      "Cache misses that proceeded to regeneration",
			},
			[]string{"feature"},
		),
		generations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "generation_requests_total",
				Help:      "Generation provider calls by outcome",
			},
			[]string{"feature", "status"},
		),
		rateLimited: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limit_rejections_total",
				Help:      "Requests rejected at the daily quota ceiling",
			},
			[]string{"feature", "tier"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by route and status",
			},
			[]string{"route", "status"},
		),

		generationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "generation_duration_seconds",
				Help:      "Generation provider call latency",
				Buckets:   durationBuckets,
			},
			[]string{"feature"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "End-to-end request latency",
				Buckets:   durationBuckets,
			},
			[]string{"route"},
		),
	}

	registry.MustRegister(
		m.cacheHits, m.cacheMisses, m.generations, m.rateLimited,
		m.httpRequests, m.generationDuration, m.requestDuration,
	)
	return m
}

// CacheHit records a cache hit for a feature.
func (m *Metrics) CacheHit(feature string) {
	m.cacheHits.WithLabelValues(feature).Inc()
}

// CacheMiss records a cache miss for a feature.
func (m *Metrics) CacheMiss(feature string) {
	m.cacheMisses.WithLabelValues(feature).Inc()
}

// Generation records one provider call outcome and its latency.
func (m *Metrics) Generation(feature, status string, d time.Duration) {
	m.generations.WithLabelValues(feature, status).Inc()
	m.generationDuration.WithLabelValues(feature).Observe(d.Seconds())
}

// RateLimited records a 429 rejection.
func (m *Metrics) RateLimited(feature, tier string) {
	m.rateLimited.WithLabelValues(feature, tier).Inc()
}

// HTTPRequest records one served request.
func (m *Metrics) HTTPRequest(route string, status int, d time.Duration) {
	m.httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(d.Seconds())
}

// Handler serves this registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
