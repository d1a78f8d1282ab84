// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry groups every collector on a private prometheus.Registry.
type Registry struct {
	reg *prometheus.Registry

	SourceRequests *prometheus.CounterVec
	SourceLatency  *prometheus.HistogramVec
	CacheHits      *prometheus.CounterVec
	CacheMisses    *prometheus.CounterVec
	Analysis       *prometheus.HistogramVec
	CrossEvents    *prometheus.CounterVec
	Candidates     prometheus.Counter
	Notifications  *prometheus.CounterVec
}

// New registers all collectors.
func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		SourceRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradeideas_source_requests_total",
			Help: "Outbound data source requests by host and result",
		}, []string{"host", "result"}),
		SourceLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tradeideas_source_request_duration_seconds",
			Help:    "Outbound data source latency",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"host"}),
		CacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradeideas_cache_hits_total",
			Help: "Adapter cache hits by backend",
		}, []string{"backend"}),
		CacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradeideas_cache_misses_total",
			Help: "Adapter cache misses by backend",
		}, []string{"backend"}),
		Analysis: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tradeideas_analysis_duration_seconds",
			Help:    "Duration of analysis operations",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
		}, []string{"operation", "result"}),
		CrossEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradeideas_cross_events_total",
			Help: "Moving-average cross events reported",
		}, []string{"direction"}),
		Candidates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tradeideas_candidates_scored_total",
			Help: "Promotion candidates scored",
		}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradeideas_notifications_total",
			Help: "Telegram notifications by result",
		}, []string{"result"}),
	}
	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.SourceRequests, r.SourceLatency, r.CacheHits, r.CacheMisses,
		r.Analysis, r.CrossEvents, r.Candidates, r.Notifications,
	)
	return r
}

// ObserveSource matches transport.Observer.
func (r *Registry) ObserveSource(host, result string, elapsed time.Duration) {
	r.SourceRequests.WithLabelValues(host, result).Inc()
	r.SourceLatency.WithLabelValues(host).Observe(elapsed.Seconds())
}

// CacheHit counts a hit on backend.
func (r *Registry) CacheHit(backend string) { r.CacheHits.WithLabelValues(backend).Inc() }

// CacheMiss counts a miss on backend.
func (r *Registry) CacheMiss(backend string) { r.CacheMisses.WithLabelValues(backend).Inc() }

// ObserveAnalysis records how long an operation took and whether it failed.
func (r *Registry) ObserveAnalysis(operation string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.Analysis.WithLabelValues(operation, result).Observe(time.Since(start).Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
