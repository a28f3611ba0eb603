// Package metrics collects Prometheus metrics for the requests an ossio client
// sends. It keeps its own registry so that several clients, or tests, never
// collide on the default one.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ossio"

// Direction labels for TransferredBytes.
const (
	DirectionUpload   = "upload"
	DirectionDownload = "download"
)

// Metrics holds the client collectors and the registry they are registered on.
type Metrics struct {
	reg         *prometheus.Registry
	inflight    prometheus.Gauge
	requests    *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	transferred *prometheus.CounterVec
}

// New creates a Metrics instance with a fresh registry and registers collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	inflight := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "client",
		Name:      "inflight_requests",
		Help:      "Current number of requests waiting for a response.",
	})
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "client",
		Name:      "requests_total",
		Help:      "Total number of requests sent, partitioned by status code and method.",
	}, []string{"code", "method"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "client",
		Name:      "request_duration_seconds",
		Help:      "Histogram of time to response headers, partitioned by status code and method.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"code", "method"})
	transferred := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "client",
		Name:      "transferred_bytes_total",
		Help:      "Total number of payload bytes moved, partitioned by direction.",
	}, []string{"direction"})

	reg.MustRegister(inflight, requests, latency, transferred)

	return &Metrics{
		reg:         reg,
		inflight:    inflight,
		requests:    requests,
		latency:     latency,
		transferred: transferred,
	}
}

// InstrumentRoundTripper wraps next so every request is counted and timed.
func (m *Metrics) InstrumentRoundTripper(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}

	return promhttp.InstrumentRoundTripperInFlight(m.inflight,
		promhttp.InstrumentRoundTripperCounter(m.requests,
			promhttp.InstrumentRoundTripperDuration(m.latency, next),
		),
	)
}

// ObserveTransfer adds n payload bytes moved in direction.
func (m *Metrics) ObserveTransfer(direction string, n int64) {
	if n <= 0 {
		return
	}

	m.transferred.WithLabelValues(direction).Add(float64(n))
}

// Handler returns an http.Handler that serves the metrics of this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}
