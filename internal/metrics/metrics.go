// Package metrics exposes Prometheus counters for the auth flows and the HTTP surface.
package metrics

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apperrors "crm/internal/errors"
)

// Metrics contains the custom CRM metrics.
type Metrics struct {
	registry       *prometheus.Registry
	AuthOperations *prometheus.CounterVec
	HTTPRequests   *prometheus.CounterVec
}

// New creates a private registry with Go and process collectors plus the CRM counters.
func New() *Metrics {
	// Create a new registry to avoid polluting the global one
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,
		AuthOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_auth_operations_total",
				Help: "Total number of authentication operations by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_http_requests_total",
				Help: "Total number of HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
	}
	registry.MustRegister(m.AuthOperations)
	registry.MustRegister(m.HTTPRequests)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// RecordAuth counts one auth operation, labelled by how it ended.
func (m *Metrics) RecordAuth(operation string, err error) {
	if m == nil {
		return
	}
	m.AuthOperations.WithLabelValues(operation, Outcome(err)).Inc()
}

// RecordHTTP counts one served request. route is the registered pattern, not the raw path.
func (m *Metrics) RecordHTTP(method, route string, status int) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

// Outcome maps an operation result to a bounded label value.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, apperrors.ErrAccountLocked):
		return "locked"
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, apperrors.ErrInvalidRefreshToken):
		return "invalid_token"
	case errors.Is(err, apperrors.ErrEmailTaken):
		return "conflict"
	case errors.Is(err, apperrors.ErrInactiveUser):
		return "inactive"
	default:
		return "error"
	}
}
