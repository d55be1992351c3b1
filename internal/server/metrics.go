// Package server registers the Prometheus metrics exposed on /metrics. This
// file is the single source of truth for metric names, labels, and help
// strings.
package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "chatflow"

// connectionsActive tracks the current number of open WebSocket connections,
// joined or not.
var connectionsActive = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "connections_active",
		Help:      "Current number of open WebSocket connections.",
	},
)

// usersActive tracks the current number of registered users.
var usersActive = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "users_active",
		Help:      "Current number of users registered in the chat.",
	},
)

// messagesTotal counts messages appended to the log.
// Label:
//   - kind: "message" (user chat) or "system"
var messagesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "messages_total",
		Help:      "Total number of messages appended to the log, by kind.",
	},
	[]string{"kind"},
)

// eventsRejectedTotal counts inbound events that failed processing.
// Label:
//   - reason: short failure class ("validation", "conflict", "not_found",
//     "bad_frame", "wrong_state")
var eventsRejectedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "events_rejected_total",
		Help:      "Total number of inbound events rejected, by reason.",
	},
	[]string{"reason"},
)

// broadcastsTotal counts individual event deliveries attempted during
// broadcast fan-out.
var broadcastsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "broadcast_deliveries_total",
		Help:      "Total number of per-connection event deliveries attempted.",
	},
)
