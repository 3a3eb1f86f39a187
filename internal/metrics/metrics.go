// Package metrics collects and exposes Prometheus metrics for the API and its
// record store.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for store operations.
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeExists   = "exists"
	OutcomeTimeout  = "timeout"
	OutcomeError    = "error"
)

// Recorder is the interface handlers and stores record through.
type Recorder interface {
	RecordRequest(route, method string, status int, duration time.Duration)
	RecordStoreOperation(operation, collection, outcome string, duration time.Duration)
	RecordRateLimited(route string)
}

// Collector is the Prometheus implementation of Recorder.
type Collector struct {
	requests       *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	storeOps       *prometheus.CounterVec
	storeLatency   *prometheus.HistogramVec
	rateLimited    *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pulse_http_requests_total",
			Help: "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "status_code"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pulse_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		storeOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pulse_store_operations_total",
			Help: "Record store operations by collection and outcome.",
		}, []string{"operation", "collection", "outcome"}),
		storeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pulse_store_operation_duration_seconds",
			Help:    "Record store operation latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation", "collection"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pulse_rate_limited_total",
			Help: "Requests rejected by the rate limiter.",
		}, []string{"route"}),
	}

	reg.MustRegister(
		c.requests,
		c.requestLatency,
		c.storeOps,
		c.storeLatency,
		c.rateLimited,
	)

	return c
}

// RecordRequest records a completed HTTP request.
func (c *Collector) RecordRequest(route, method string, status int, duration time.Duration) {
	c.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	c.requestLatency.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordStoreOperation records a completed record store call.
func (c *Collector) RecordStoreOperation(operation, collection, outcome string, duration time.Duration) {
	c.storeOps.WithLabelValues(operation, collection, outcome).Inc()
	c.storeLatency.WithLabelValues(operation, collection).Observe(duration.Seconds())
}

// RecordRateLimited records a request rejected by the rate limiter.
func (c *Collector) RecordRateLimited(route string) {
	c.rateLimited.WithLabelValues(route).Inc()
}

// Handler returns the HTTP handler Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordRequest(string, string, int, time.Duration)           {}
func (Nop) RecordStoreOperation(string, string, string, time.Duration) {}
func (Nop) RecordRateLimited(string)                                   {}
