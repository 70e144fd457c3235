package handler

import (
	"errors"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sumire/issuetracker/internal/domain"
)

// Metrics records HTTP and issue operation metrics in Prometheus.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	operationsTotal *prometheus.CounterVec
}

// NewMetrics registers the collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		operationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "issue_operations_total",
				Help: "Total number of issue operations by outcome",
			},
			[]string{"operation", "outcome"},
		),
	}
}

// Middleware observes every request. The route label is the registered path
// pattern so project names do not create new series.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(c.Response().Status)).Inc()
			m.requestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())

			return err
		}
	}
}

// ObserveOperation counts one issue operation. Business failures are labeled
// with their message, anything else as "error".
func (m *Metrics) ObserveOperation(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
		var issueErr *domain.IssueError
		if errors.As(err, &issueErr) {
			outcome = issueErr.Err.Error()
		}
	}
	m.operationsTotal.WithLabelValues(operation, outcome).Inc()
}
