// Package metrics provides Prometheus metrics for the HTTP API, authentication,
// submissions and image storage.
package metrics

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "labelhub"

// Metrics holds all collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec   // by method, route, status
	HTTPRequestDuration *prometheus.HistogramVec // by method, route

	RegistrationsTotal *prometheus.CounterVec // by result
	LoginsTotal        *prometheus.CounterVec // by result
	SubmissionsTotal   prometheus.Counter

	StorageWritesTotal   *prometheus.CounterVec   // by backend, result
	StorageWriteDuration *prometheus.HistogramVec // by backend
	DatasetCacheLookups  *prometheus.CounterVec   // by result: hit, miss
	UploadsRejectedTotal prometheus.Counter       // concurrency limit hits

	registry *prometheus.Registry
}

// New creates the metrics and registers them, together with the Go runtime and
// process collectors, on a dedicated registry.
func New() (*Metrics, error) {
	m := &Metrics{registry: prometheus.NewRegistry()}
	m.init()

	cs := []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.RegistrationsTotal,
		m.LoginsTotal,
		m.SubmissionsTotal,
		m.StorageWritesTotal,
		m.StorageWriteDuration,
		m.DatasetCacheLookups,
		m.UploadsRejectedTotal,
	}
	for _, c := range cs {
		if err := m.registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
	}
	return m, nil
}

func (m *Metrics) init() {
	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by method, route and status code",
		},
		[]string{"method", "route", "status"},
	)
	m.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)
	m.RegistrationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "User registrations by result",
		},
		[]string{"result"}, // success, invalid, error
	)
	m.LoginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by result",
		},
		[]string{"result"}, // success, invalid_credentials, error
	)
	m.SubmissionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_created_total",
			Help:      "Number of submissions created",
		},
	)
	m.StorageWritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_writes_total",
			Help:      "Image writes to the storage backend by result",
		},
		[]string{"backend", "result"},
	)
	m.StorageWriteDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "storage_write_duration_seconds",
			Help:      "Time taken to write an image to the storage backend",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"backend"},
	)
	m.DatasetCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_cache_lookups_total",
			Help:      "Dataset list cache lookups by result",
		},
		[]string{"result"},
	)
	m.UploadsRejectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_rejected_total",
			Help:      "Uploads rejected by the per-user concurrency limit",
		},
	)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRequest records a finished HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveRegistration records a registration attempt.
func (m *Metrics) ObserveRegistration(result string) {
	if m == nil {
		return
	}
	m.RegistrationsTotal.WithLabelValues(result).Inc()
}

// ObserveLogin records a login attempt.
func (m *Metrics) ObserveLogin(result string) {
	if m == nil {
		return
	}
	m.LoginsTotal.WithLabelValues(result).Inc()
}

// ObserveSubmission records a created submission.
func (m *Metrics) ObserveSubmission() {
	if m == nil {
		return
	}
	m.SubmissionsTotal.Inc()
}

// ObserveStorageWrite records an image write.
func (m *Metrics) ObserveStorageWrite(backend string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	m.StorageWritesTotal.WithLabelValues(backend, result).Inc()
	m.StorageWriteDuration.WithLabelValues(backend).Observe(elapsed.Seconds())
}

// ObserveDatasetCache records a dataset cache lookup.
func (m *Metrics) ObserveDatasetCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.DatasetCacheLookups.WithLabelValues("hit").Inc()
		return
	}
	m.DatasetCacheLookups.WithLabelValues("miss").Inc()
}

// ObserveUploadRejected records an upload rejected by the concurrency limit.
func (m *Metrics) ObserveUploadRejected() {
	if m == nil {
		return
	}
	m.UploadsRejectedTotal.Inc()
}
