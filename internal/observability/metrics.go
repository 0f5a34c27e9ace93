// Package observability owns the Prometheus registry and the service's
// custom metrics.
package observability

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iliyamo/devvibe-backend/internal/apperr"
)

// Metrics contains the custom counters recorded by services and middleware.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal *prometheus.CounterVec
	AuthEvents    *prometheus.CounterVec
	ResetEmails   *prometheus.CounterVec
	AIRequests    *prometheus.CounterVec
}

// NewMetrics creates a private registry with Go/process collectors and the
// custom metrics registered.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: reg,
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "devvibe_http_requests_total",
				Help: "Total number of HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		AuthEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "devvibe_auth_events_total",
				Help: "Authentication events by kind and outcome",
			},
			[]string{"event", "outcome"},
		),
		ResetEmails: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "devvibe_reset_emails_total",
				Help: "Password reset emails by outcome",
			},
			[]string{"outcome"},
		),
		AIRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "devvibe_ai_requests_total",
				Help: "AI proxy calls by outcome",
			},
			[]string{"outcome"},
		),
	}
	reg.MustRegister(m.RequestsTotal, m.AuthEvents, m.ResetEmails, m.AIRequests)
	return m
}

// Auth records an authentication event.  Safe on a nil receiver so that
// services can run without metrics.
func (m *Metrics) Auth(event, outcome string) {
	if m == nil {
		return
	}
	m.AuthEvents.WithLabelValues(event, outcome).Inc()
}

// ResetEmail records the outcome of a reset email send.
func (m *Metrics) ResetEmail(outcome string) {
	if m == nil {
		return
	}
	m.ResetEmails.WithLabelValues(outcome).Inc()
}

// AI records the outcome of an AI proxy call.
func (m *Metrics) AI(outcome string) {
	if m == nil {
		return
	}
	m.AIRequests.WithLabelValues(outcome).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware counts every request by route template and final status.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			status := c.Response().Status
			if err != nil {
				// not rendered yet; the error handler runs after the chain
				status = apperr.Status(err)
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			m.RequestsTotal.WithLabelValues(c.Request().Method, route, strconv.Itoa(status)).Inc()
			return err
		}
	}
}
