// Package metrics defines the Prometheus collectors exported by the service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "taskapi"

// Reconcile run outcomes recorded on ReconcileRuns.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Fix kinds recorded on ReconcileFixes.
const (
	FixUnassigned    = "unassigned"
	FixRenamed       = "renamed"
	FixUserRewritten = "user_rewritten"
)

// Metrics bundles the collectors and the registry they are registered on.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests   *prometheus.CounterVec
	HTTPDuration   *prometheus.HistogramVec
	ReconcileRuns  *prometheus.CounterVec
	ReconcileFixes *prometheus.CounterVec
}

// New registers every collector on reg. Each call needs its own registry;
// registering twice on the same one panics.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests handled, by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency, by method and route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		ReconcileRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_runs_total",
			Help:      "Consistency sweeps run, by outcome.",
		}, []string{"status"}),
		ReconcileFixes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_fixes_total",
			Help:      "Records corrected by consistency sweeps, by kind of fix.",
		}, []string{"kind"}),
	}
}

// NewWithDefaultCollectors returns Metrics on a fresh registry that also
// carries the Go runtime and process collectors.
func NewWithDefaultCollectors() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return New(reg)
}

// ObserveRequest records one completed HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveReconcile records the outcome of a sweep and the fixes it applied.
func (m *Metrics) ObserveReconcile(err error, unassigned, renamed, rewritten int) {
	if err != nil {
		m.ReconcileRuns.WithLabelValues(StatusError).Inc()
	} else {
		m.ReconcileRuns.WithLabelValues(StatusSuccess).Inc()
	}
	m.ReconcileFixes.WithLabelValues(FixUnassigned).Add(float64(unassigned))
	m.ReconcileFixes.WithLabelValues(FixRenamed).Add(float64(renamed))
	m.ReconcileFixes.WithLabelValues(FixUserRewritten).Add(float64(rewritten))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
