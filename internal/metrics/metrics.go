// Package metrics exposes the Prometheus collectors of the admin API.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "useradmin"

type Metrics struct {
	RequestsTotal      *prometheus.CounterVec
	RequestsDuration   *prometheus.HistogramVec
	InFlight           *prometheus.GaugeVec
	ValidationFailures *prometheus.CounterVec
	LoginResults       *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestsDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency distributions.",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"method", "route", "status"},
		),
		InFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_in_flight_requests",
				Help:      "Current number of in-flight HTTP requests.",
			},
			[]string{"method", "route"},
		),
		ValidationFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "validation_failures_total",
				Help:      "Rejected submissions by resource and field.",
			},
			[]string{"resource", "field"},
		),
		LoginResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "auth",
				Name:      "logins_total",
				Help:      "Admin login attempts by result.",
			},
			[]string{"result"}, // result=success|invalid|throttled|error
		),
	}
	reg.MustRegister(m.RequestsTotal, m.RequestsDuration, m.InFlight, m.ValidationFailures, m.LoginResults)

	return m
}

// GinHandleMiddleware records count, latency and in-flight gauge per route
func (m *Metrics) GinHandleMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		method := c.Request.Method
		m.InFlight.WithLabelValues(method, route).Inc()
		defer m.InFlight.WithLabelValues(method, route).Dec()
		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		secs := time.Since(start).Seconds()

		m.RequestsTotal.WithLabelValues(method, route, status).Inc()
		m.RequestsDuration.WithLabelValues(method, route, status).Observe(secs)
	}
}

// ObserveValidation counts one failure per rejected field
func (m *Metrics) ObserveValidation(resource string, fields []string) {
	if m == nil {
		return
	}
	for _, field := range fields {
		m.ValidationFailures.WithLabelValues(resource, field).Inc()
	}
}

// ObserveLogin counts a login attempt outcome
func (m *Metrics) ObserveLogin(result string) {
	if m == nil {
		return
	}
	m.LoginResults.WithLabelValues(result).Inc()
}
