package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters for the message-to-alert pipeline.
type Metrics struct {
	MessagesProcessed  prometheus.Counter
	TagFailures        prometheus.Counter
	LocationsExtracted prometheus.Counter
	GeocodeResolved    prometheus.Counter
	GeocodeMisses      prometheus.Counter
	RecordsStored      prometheus.Counter
	MapRefreshes       prometheus.Counter
	MapRefreshFailures prometheus.Counter
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.MessagesProcessed,
		m.TagFailures,
		m.LocationsExtracted,
		m.GeocodeResolved,
		m.GeocodeMisses,
		m.RecordsStored,
		m.MapRefreshes,
		m.MapRefreshFailures,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics so parallel tests do not
// trip "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		MessagesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "alertmap",
			Name:      "messages_processed_total",
			Help:      "Total channel messages run through the pipeline.",
		}),
		TagFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "alertmap",
			Name:      "tag_failures_total",
			Help:      "Messages dropped because entity tagging failed.",
		}),
		LocationsExtracted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "alertmap",
			Name:      "locations_extracted_total",
			Help:      "Location spans found across all messages.",
		}),
		GeocodeResolved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "alertmap",
			Name:      "geocode_resolved_total",
			Help:      "Canonical names resolved to coordinates.",
		}),
		GeocodeMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "alertmap",
			Name:      "geocode_misses_total",
			Help:      "Canonical names that did not resolve.",
		}),
		RecordsStored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "alertmap",
			Name:      "records_stored_total",
			Help:      "Alert records appended to the store.",
		}),
		MapRefreshes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "alertmap",
			Name:      "map_refreshes_total",
			Help:      "Successful map artifact regenerations.",
		}),
		MapRefreshFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "alertmap",
			Name:      "map_refresh_failures_total",
			Help:      "Failed map artifact regenerations.",
		}),
	}
}
