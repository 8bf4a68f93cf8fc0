// Package metrics exposes Prometheus instrumentation for sanitization runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all application metrics on a dedicated Prometheus registry.
type Registry struct {
	registry *prometheus.Registry

	RunsTotal   *prometheus.CounterVec
	RunDuration *prometheus.HistogramVec

	ParametersRemoved    prometheus.Counter
	ParametersAnonymized prometheus.Counter
	RemovalFailures      prometheus.Counter

	ObjectsProcessed prometheus.Histogram
}

// NewRegistry creates a registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	r := &Registry{registry: reg}

	r.RunsTotal = promauto.With(reg).NewCounterVec(
		prometheus.CounterOpts{
			Name: "datashield_runs_total",
			Help: "Total number of sanitization runs executed",
		},
		[]string{"mode", "status"},
	)

	r.RunDuration = promauto.With(reg).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "datashield_run_duration_seconds",
			Help:    "Sanitization run duration in seconds",
			Buckets: []float64{0.1, 0.5, 1.0, 5.0, 15.0, 60.0, 300.0},
		},
		[]string{"mode"},
	)

	r.ParametersRemoved = promauto.With(reg).NewCounter(
		prometheus.CounterOpts{
			Name: "datashield_parameters_removed_total",
			Help: "Total number of parameters removed across runs",
		},
	)

	r.ParametersAnonymized = promauto.With(reg).NewCounter(
		prometheus.CounterOpts{
			Name: "datashield_parameters_anonymized_total",
			Help: "Total number of parameter values anonymized across runs",
		},
	)

	r.RemovalFailures = promauto.With(reg).NewCounter(
		prometheus.CounterOpts{
			Name: "datashield_removal_failures_total",
			Help: "Total number of parameters that matched but could not be removed",
		},
	)

	r.ObjectsProcessed = promauto.With(reg).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "datashield_objects_processed",
			Help:    "Number of objects touched per run",
			Buckets: []float64{1, 10, 100, 1000, 10000},
		},
	)

	return r
}

// RecordRun records one finished run with its status and duration.
func (r *Registry) RecordRun(mode, status string, duration time.Duration) {
	r.RunsTotal.WithLabelValues(mode, status).Inc()
	r.RunDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

// RecordOutcome records the per-run parameter and object counts.
func (r *Registry) RecordOutcome(removed, anonymized, failures, objects int) {
	r.ParametersRemoved.Add(float64(removed))
	r.ParametersAnonymized.Add(float64(anonymized))
	r.RemovalFailures.Add(float64(failures))
	r.ObjectsProcessed.Observe(float64(objects))
}

// Handler returns the scrape endpoint handler for this registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
