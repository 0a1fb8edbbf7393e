// Package metrics exposes Prometheus collectors for reconstruction and HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Reconstruction outcomes
const (
	OutcomeSuccess = "success"
	OutcomeEmpty   = "empty"
	OutcomeError   = "error"
)

// Metrics collectors on a private registry. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	reconstructions    *prometheus.CounterVec
	reconstructSeconds prometheus.Histogram
	segments           prometheus.Histogram
	cacheHits          prometheus.Counter
	cacheMisses        prometheus.Counter
	publishErrors      prometheus.Counter
	httpRequestsTotal  *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		reconstructions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sleep_reconstructions_total",
			Help: "Sleep session reconstructions by outcome.",
		}, []string{"outcome"}),
		reconstructSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sleep_reconstruction_duration_seconds",
			Help:    "Histogram of reconstruction durations.",
			Buckets: prometheus.DefBuckets,
		}),
		segments: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sleep_session_segments",
			Help:    "Micro-sleep segments per reconstructed session.",
			Buckets: []float64{1, 2, 3, 5, 8, 13},
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sleep_summary_cache_hits_total",
			Help: "Total summary cache hits observed.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sleep_summary_cache_misses_total",
			Help: "Total summary cache misses observed.",
		}),
		publishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sleep_event_publish_errors_total",
			Help: "Total session events that failed to publish.",
		}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}

	m.registry.MustRegister(
		m.reconstructions,
		m.reconstructSeconds,
		m.segments,
		m.cacheHits,
		m.cacheMisses,
		m.publishErrors,
		m.httpRequestsTotal,
		m.httpDuration,
	)
	return m
}

// Registry the registry holding every collector.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveReconstruction(outcome string, duration time.Duration, segments int) {
	if m == nil {
		return
	}
	m.reconstructions.WithLabelValues(outcome).Inc()
	m.reconstructSeconds.Observe(duration.Seconds())
	if outcome == OutcomeSuccess {
		m.segments.Observe(float64(segments))
	}
}

func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}

func (m *Metrics) CacheMiss() {
	if m == nil {
		return
	}
	m.cacheMisses.Inc()
}

func (m *Metrics) PublishError() {
	if m == nil {
		return
	}
	m.publishErrors.Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// WrapHandler counts requests and durations under route.
func (m *Metrics) WrapHandler(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		if m != nil {
			m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
			m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		}
	})
}
