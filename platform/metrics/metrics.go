// Package metrics exposes Prometheus collectors for the HTTP layer and the
// follow-up domain. All observe methods are nil-safe.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "followups"

// HTTPMetrics tracks request volume and latency per route template.
type HTTPMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewHTTPMetrics registers HTTP collectors on reg (default registerer when nil).
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	m := &HTTPMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.requestDuration)
	return m
}

// ObserveRequest records one finished request.
func (m *HTTPMetrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// FollowUpMetrics tracks follow-up writes and statistics computations.
type FollowUpMetrics struct {
	created      prometheus.Counter
	deleted      *prometheus.CounterVec
	statsTotal   *prometheus.CounterVec
	statsDropped *prometheus.CounterVec
}

// NewFollowUpMetrics registers domain collectors on reg (default registerer when nil).
func NewFollowUpMetrics(reg prometheus.Registerer) *FollowUpMetrics {
	m := &FollowUpMetrics{
		created: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "created_total",
			Help:      "Total follow-ups created",
		}),
		deleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deleted_total",
			Help:      "Total follow-ups deleted",
		}, []string{"mode"}),
		statsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stats",
			Name:      "requests_total",
			Help:      "Statistics requests by scope and cache outcome",
		}, []string{"scope", "cache"}),
		statsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stats",
			Name:      "dropped_total",
			Help:      "Follow-ups excluded from statistics by reason",
		}, []string{"reason"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.created, m.deleted, m.statsTotal, m.statsDropped)
	return m
}

// FollowUpCreated counts one created follow-up.
func (m *FollowUpMetrics) FollowUpCreated() {
	if m == nil {
		return
	}
	m.created.Inc()
}

// FollowUpsDeleted counts n deleted follow-ups; mode is "single" or "purge".
func (m *FollowUpMetrics) FollowUpsDeleted(mode string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.deleted.WithLabelValues(mode).Add(float64(n))
}

// StatsServed counts one statistics request.
func (m *FollowUpMetrics) StatsServed(scope string, cacheHit bool) {
	if m == nil {
		return
	}
	outcome := "miss"
	if cacheHit {
		outcome = "hit"
	}
	m.statsTotal.WithLabelValues(scope, outcome).Inc()
}

// StatsDropped counts follow-ups excluded from a report.
func (m *FollowUpMetrics) StatsDropped(reason string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.statsDropped.WithLabelValues(reason).Add(float64(n))
}
