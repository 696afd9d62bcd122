package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "teamalert_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// Relay metrics
	ConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "teamalert_connections_active",
			Help: "Open relay connections, registered or not",
		},
	)

	ParticipantsOnline = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "teamalert_participants_online",
			Help: "Registered participants in the roster",
		},
	)

	Registrations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "teamalert_registrations_total",
			Help: "Total successful registrations",
		},
	)

	AlertsBroadcast = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "teamalert_alerts_broadcast_total",
			Help: "Total alerts broadcast",
		},
		[]string{"boss_direction"},
	)

	RequestsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "teamalert_requests_rejected_total",
			Help: "Requests answered with an error event",
		},
		[]string{"event"},
	)

	SendsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "teamalert_sends_dropped_total",
			Help: "Outbound events dropped because a peer was not keeping up",
		},
	)
)
