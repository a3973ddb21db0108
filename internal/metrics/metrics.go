package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vovakirdan/partyline/internal/core"
)

// Hub records chat activity and implements core.Metrics.
type Hub struct {
	registry *prometheus.Registry

	activeConns prometheus.Gauge
	connsTotal  prometheus.Counter
	presence    prometheus.Gauge
	joins       *prometheus.CounterVec
	messages    *prometheus.CounterVec
	kicks       prometheus.Counter
}

var _ core.Metrics = (*Hub)(nil)

// New builds collectors on a dedicated registry so tests can create many.
func New() *Hub {
	reg := prometheus.NewRegistry()

	m := &Hub{
		registry: reg,
		activeConns: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "partyline_connections_active",
			Help: "Current number of open websocket connections.",
		}),
		connsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "partyline_connections_total",
			Help: "Connections accepted since start.",
		}),
		presence: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "partyline_users_present",
			Help: "Identities currently in the presence registry.",
		}),
		joins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "partyline_joins_total",
			Help: "Join attempts grouped by outcome.",
		}, []string{"outcome"}),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "partyline_messages_total",
			Help: "Routed messages grouped by kind.",
		}, []string{"kind"}),
		kicks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "partyline_kicks_total",
			Help: "Users forcibly disconnected by an admin.",
		}),
	}

	reg.MustRegister(
		m.activeConns,
		m.connsTotal,
		m.presence,
		m.joins,
		m.messages,
		m.kicks,
		collectors.NewGoCollector(),
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Hub) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Hub) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Hub) ConnectionOpened() {
	m.activeConns.Inc()
	m.connsTotal.Inc()
}

func (m *Hub) ConnectionClosed() {
	m.activeConns.Dec()
}

func (m *Hub) JoinOutcome(outcome string) {
	m.joins.WithLabelValues(outcome).Inc()
}

func (m *Hub) MessageRouted(kind core.MessageKind) {
	m.messages.WithLabelValues(kind.String()).Inc()
}

func (m *Hub) UserKicked() {
	m.kicks.Inc()
}

func (m *Hub) PresenceChanged(n int) {
	m.presence.Set(float64(n))
}
