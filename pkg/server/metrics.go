package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects the server's operational counters and gauges on a
// private prometheus registry, so multiple server instances (tests)
// never collide on the default registry.
type Metrics struct {
	registry *prometheus.Registry

	activeConnections prometheus.Gauge
	onlineUsers       prometheus.Gauge
	activeRooms       prometheus.Gauge
	requestsTotal     *prometheus.CounterVec
	notificationsSent *prometheus.CounterVec
}

// NewMetrics creates and registers the server metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		activeConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "socialgossip_active_connections",
			Help: "Number of currently open client connections (including notification channels)",
		}),
		onlineUsers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "socialgossip_online_users",
			Help: "Number of users currently logged in",
		}),
		activeRooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "socialgossip_active_chatrooms",
			Help: "Number of active chat rooms",
		}),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "socialgossip_requests_total",
			Help: "Requests handled, by request kind and outcome",
		}, []string{"kind", "outcome"}),
		notificationsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "socialgossip_notifications_sent_total",
			Help: "Notifications pushed to client channels, by notification kind",
		}, []string{"kind"}),
	}

	registry.MustRegister(
		m.activeConnections,
		m.onlineUsers,
		m.activeRooms,
		m.requestsTotal,
		m.notificationsSent,
	)

	return m
}

// Handler returns the scrape endpoint for this metrics set.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ConnectionOpened() { m.activeConnections.Inc() }
func (m *Metrics) ConnectionClosed() { m.activeConnections.Dec() }

func (m *Metrics) UserLoggedIn()  { m.onlineUsers.Inc() }
func (m *Metrics) UserLoggedOut() { m.onlineUsers.Dec() }

func (m *Metrics) RoomCreated() { m.activeRooms.Inc() }
func (m *Metrics) RoomClosed()  { m.activeRooms.Dec() }

// RecordRequest counts one handled request by kind and outcome.
func (m *Metrics) RecordRequest(kind, outcome string) {
	m.requestsTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordNotification counts one pushed notification by kind.
func (m *Metrics) RecordNotification(kind string) {
	m.notificationsSent.WithLabelValues(kind).Inc()
}
