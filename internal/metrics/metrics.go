package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"geoattend/internal/attendance"
)

// Metrics holds the collectors exported on /metrics.
type Metrics struct {
	decisions       *prometheus.CounterVec
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	events          *prometheus.CounterVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		decisions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "geoattend",
			Name:      "attendance_decisions_total",
			Help:      "Check-in and check-out decisions by action and outcome.",
		}, []string{"action", "outcome"}),
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "geoattend",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		requestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "geoattend",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		events: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "geoattend",
			Name:      "worker_events_total",
			Help:      "Queue events handled by the worker.",
		}, []string{"type", "result"}),
	}
}

// ObserveDecision counts d under its reason code, or "accepted".
func (m *Metrics) ObserveDecision(action string, d attendance.Decision) {
	outcome := "accepted"
	if !d.Accepted {
		outcome = string(d.Reason)
	}
	m.decisions.WithLabelValues(action, outcome).Inc()
}

// ObserveEvent counts a worker event by type and result (ok, error).
func (m *Metrics) ObserveEvent(typ, result string) {
	m.events.WithLabelValues(typ, result).Inc()
}

// GinMiddleware records request counts and latency by route template.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}
