// Package metrics exposes the server's Prometheus instrumentation.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles all collectors on a private registry so tests can
// create isolated instances.
type Metrics struct {
	registry *prometheus.Registry

	ConnectionsAccepted prometheus.Counter
	LinesRead           prometheus.Counter
	LinesMalformed      prometheus.Counter
	MessagesRouted      prometheus.Counter
	ActiveClients       prometheus.Gauge
	ActiveChannels      prometheus.Gauge
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ConnectionsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "irc_connections_accepted_total",
			Help: "TCP connections accepted by the listener.",
		}),
		LinesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "irc_lines_read_total",
			Help: "Complete lines extracted from client streams.",
		}),
		LinesMalformed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "irc_lines_malformed_total",
			Help: "Lines dropped because they were oversized or unparsable.",
		}),
		MessagesRouted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "irc_messages_routed_total",
			Help: "Messages routed to a command handler.",
		}),
		ActiveClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "irc_active_clients",
			Help: "Currently connected clients.",
		}),
		ActiveChannels: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "irc_active_channels",
			Help: "Channels with a running actor.",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		m.ConnectionsAccepted,
		m.LinesRead,
		m.LinesMalformed,
		m.MessagesRouted,
		m.ActiveClients,
		m.ActiveChannels,
	)
	return m
}

// Handler returns the scrape endpoint for the private registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
