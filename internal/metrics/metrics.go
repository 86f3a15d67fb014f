// Package metrics provides Prometheus metrics for the unified data layer.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects and exposes facade- and provider-level Prometheus metrics.
type Metrics struct {
	registry *prometheus.Registry

	// Cache metrics
	CacheHits      *prometheus.CounterVec
	CacheMisses    *prometheus.CounterVec
	CacheEvictions prometheus.Counter
	CacheEntries   prometheus.Gauge

	// Provider metrics
	ProviderRequests *prometheus.CounterVec
	ProviderErrors   *prometheus.CounterVec
	ProviderLatency  *prometheus.HistogramVec

	// Facade metrics
	RequestsTotal      *prometheus.CounterVec
	SingleFlightShared *prometheus.CounterVec
	DefaultedSports    prometheus.Counter

	// Hub metrics
	WSClients  prometheus.Gauge
	WSMessages prometheus.Counter
}

// New creates a metrics collector with its own registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		CacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "atlas_cache_hits_total",
			Help: "Cache hits by endpoint.",
		}, []string{"endpoint"}),
		CacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "atlas_cache_misses_total",
			Help: "Cache misses by endpoint.",
		}, []string{"endpoint"}),
		CacheEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "atlas_cache_evictions_total",
			Help: "Entries evicted for capacity.",
		}),
		CacheEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "atlas_cache_entries",
			Help: "Live cache entries.",
		}),

		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "atlas_provider_requests_total",
			Help: "Upstream provider requests by provider and outcome.",
		}, []string{"provider", "outcome"}),
		ProviderErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "atlas_provider_errors_total",
			Help: "Upstream provider errors by provider.",
		}, []string{"provider"}),
		ProviderLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "atlas_provider_latency_seconds",
			Help:    "Upstream provider request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),

		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "atlas_facade_requests_total",
			Help: "Facade calls by endpoint and result.",
		}, []string{"endpoint", "result"}),
		SingleFlightShared: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "atlas_singleflight_shared_total",
			Help: "Facade calls that piggybacked on an identical in-flight fetch.",
		}, []string{"endpoint"}),
		DefaultedSports: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "atlas_defaulted_sports_total",
			Help: "Requests whose sport failed to normalize and defaulted to the wildcard.",
		}),

		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "atlas_ws_clients",
			Help: "Connected WebSocket clients.",
		}),
		WSMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "atlas_ws_messages_total",
			Help: "Messages broadcast to WebSocket clients.",
		}),
	}

	registry.MustRegister(
		m.CacheHits, m.CacheMisses, m.CacheEvictions, m.CacheEntries,
		m.ProviderRequests, m.ProviderErrors, m.ProviderLatency,
		m.RequestsTotal, m.SingleFlightShared, m.DefaultedSports,
		m.WSClients, m.WSMessages,
	)

	return m
}

// Handler returns an http.Handler serving this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
