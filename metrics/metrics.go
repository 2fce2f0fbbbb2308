// Package metrics owns the Prometheus collectors for the extraction and
// reply pipeline. Every Metrics value has its own registry so tests and
// multiple servers in one process never collide.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pagechat"

// Provider attempt outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeTimeout = "timeout"
)

// Metrics groups all collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	extractions        *prometheus.CounterVec
	extractionDuration *prometheus.HistogramVec
	cacheLookups       *prometheus.CounterVec
	providerAttempts   *prometheus.CounterVec
	providerLatency    *prometheus.HistogramVec
	replies            *prometheus.CounterVec
}

// New creates a Metrics with a private registry that also carries the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		extractions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extractions_total",
			Help:      "Page extractions by final method.",
		}, []string{"method"}),
		extractionDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "extraction_duration_seconds",
			Help:      "Wall time of uncached page extractions.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		}, []string{"method"}),
		cacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Extraction cache lookups by result.",
		}, []string{"result"}),
		providerAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_attempts_total",
			Help:      "Remote completion attempts by provider and outcome.",
		}, []string{"provider", "outcome"}),
		providerLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_latency_seconds",
			Help:      "Latency of remote completion attempts.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),
		replies: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replies_total",
			Help:      "Chat replies by the source that produced them.",
		}, []string{"source"}),
	}
}

// ObserveExtraction records one uncached extraction.
func (m *Metrics) ObserveExtraction(method string, d time.Duration) {
	if m == nil {
		return
	}
	m.extractions.WithLabelValues(method).Inc()
	m.extractionDuration.WithLabelValues(method).Observe(d.Seconds())
}

// CacheLookup records a cache hit or miss.
func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// ObserveProviderAttempt records one remote provider call.
func (m *Metrics) ObserveProviderAttempt(provider, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.providerAttempts.WithLabelValues(provider, outcome).Inc()
	m.providerLatency.WithLabelValues(provider).Observe(d.Seconds())
}

// ObserveReply records which source produced a reply ("link", "local" or a
// provider name).
func (m *Metrics) ObserveReply(source string) {
	if m == nil {
		return
	}
	m.replies.WithLabelValues(source).Inc()
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
