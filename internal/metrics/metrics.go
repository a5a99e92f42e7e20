// Package metrics exposes Prometheus collectors for the receipt service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors. Each server builds its own registry so tests
// never collide on the global one.
type Metrics struct {
	Registry *prometheus.Registry

	RPCRequests *prometheus.CounterVec
	RPCDuration *prometheus.HistogramVec

	// Mutations counts engine outcomes by mutation kind and result
	// ("ok", "noop", or an error kind).
	Mutations *prometheus.CounterVec

	StaleRetries prometheus.Counter

	CacheLookups *prometheus.CounterVec

	EventsPublished prometheus.Counter
	EventsFailed    prometheus.Counter
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		RPCRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "receiptsplit",
			Name:      "rpc_requests_total",
			Help:      "RPC calls by procedure and code.",
		}, []string{"procedure", "code"}),
		RPCDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "receiptsplit",
			Name:      "rpc_duration_seconds",
			Help:      "RPC latency by procedure.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"procedure"}),
		Mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "receiptsplit",
			Name:      "mutations_total",
			Help:      "Receipt mutations by kind and outcome.",
		}, []string{"kind", "outcome"}),
		StaleRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "receiptsplit",
			Name:      "stale_write_retries_total",
			Help:      "Read-apply-write cycles retried after a concurrent update.",
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "receiptsplit",
			Name:      "settlement_cache_lookups_total",
			Help:      "Settlement cache lookups by result.",
		}, []string{"result"}),
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "receiptsplit",
			Name:      "outbox_events_published_total",
			Help:      "Outbox events delivered.",
		}),
		EventsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "receiptsplit",
			Name:      "outbox_events_failed_total",
			Help:      "Outbox events whose delivery failed.",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RPCRequests,
		m.RPCDuration,
		m.Mutations,
		m.StaleRetries,
		m.CacheLookups,
		m.EventsPublished,
		m.EventsFailed,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
