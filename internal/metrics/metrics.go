// Package metrics exposes Prometheus collectors for the HTTP API, the
// year-frame caches and the warm-up job.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "amlich"

// Metrics owns a private registry so tests can create as many as they need.
type Metrics struct {
	registry *prometheus.Registry

	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	cacheLookups *prometheus.CounterVec
	warmupRuns   *prometheus.CounterVec
	warmupFrames prometheus.Gauge
}

// New registers every collector on a fresh registry, plus the Go runtime
// and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Year-frame cache lookups by cache and result (hit or miss).",
		}, []string{"cache", "result"}),
		warmupRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "warmup_runs_total",
			Help:      "Year-frame warm-up runs by outcome.",
		}, []string{"outcome"}),
		warmupFrames: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "warmup_frames",
			Help:      "Year frames computed by the last warm-up run.",
		}),
	}

	m.registry.MustRegister(
		m.requests,
		m.duration,
		m.cacheLookups,
		m.warmupRuns,
		m.warmupFrames,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveRequest records one finished HTTP request. route is the matched
// pattern, not the raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Hit implements calendar.Recorder.
func (m *Metrics) Hit(cache string) {
	m.cacheLookups.WithLabelValues(cache, "hit").Inc()
}

// Miss implements calendar.Recorder.
func (m *Metrics) Miss(cache string) {
	m.cacheLookups.WithLabelValues(cache, "miss").Inc()
}

// ObserveWarmup records a warm-up run. err is nil on success.
func (m *Metrics) ObserveWarmup(frames int, err error) {
	if err != nil {
		m.warmupRuns.WithLabelValues("error").Inc()
		return
	}
	m.warmupRuns.WithLabelValues("ok").Inc()
	m.warmupFrames.Set(float64(frames))
}
