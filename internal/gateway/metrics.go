// ABOUTME: Prometheus metrics for chat sessions and turn processing
// ABOUTME: Exposed via promhttp on the configured metrics path

package gateway

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the gateway's Prometheus collectors. All collectors are
// registered on a private registry so tests can create multiple gateways
// without duplicate-registration panics.
type Metrics struct {
	registry *prometheus.Registry

	ActiveSessions prometheus.Gauge
	TurnsTotal     *prometheus.CounterVec
	TurnDuration   prometheus.Histogram
}

// NewMetrics creates and registers the gateway collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "parley_active_sessions",
			Help: "Number of open WebSocket chat sessions.",
		}),
		TurnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "parley_turns_total",
			Help: "Chat turns processed, labeled by outcome.",
		}, []string{"outcome"}),
		TurnDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "parley_turn_duration_seconds",
			Help:    "Wall time of one full chat turn including the provider call.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
	}

	registry.MustRegister(m.ActiveSessions, m.TurnsTotal, m.TurnDuration)
	return m
}

// Handler returns the HTTP handler serving this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
