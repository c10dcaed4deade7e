// Package metrics registers the Prometheus instruments shared across the
// coordination engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	CacheHits      prometheus.Counter
	CacheMisses    prometheus.Counter
	CacheEvictions prometheus.Counter

	GeocodeCalls *prometheus.CounterVec // labels: provider, outcome

	EventsPublished *prometheus.CounterVec // label: topic
	WSConnections   prometheus.Gauge

	Mutations *prometheus.CounterVec // labels: entity, action
}

// New creates and registers all Prometheus metrics on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers the metrics on reg. Tests pass a fresh registry so
// repeated construction never collides.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "beacon_cache_hits_total",
			Help: "Cache reads served without recomputation",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "beacon_cache_misses_total",
			Help: "Cache reads that missed, expired, or failed",
		}),
		CacheEvictions: factory.NewCounter(prometheus.CounterOpts{
			Name: "beacon_cache_evictions_total",
			Help: "Entries removed by lazy eviction or periodic cleanup",
		}),
		GeocodeCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "beacon_geocode_provider_calls_total",
			Help: "Upstream geocoding calls by provider and outcome",
		}, []string{"provider", "outcome"}),
		EventsPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "beacon_events_published_total",
			Help: "Events handed to the fan-out hub by topic",
		}, []string{"topic"}),
		WSConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "beacon_ws_connections",
			Help: "Currently connected websocket subscribers",
		}),
		Mutations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "beacon_entity_mutations_total",
			Help: "Committed entity mutations by entity and action",
		}, []string{"entity", "action"}),
	}
}
