// Package server wires HTTP handlers into a ServeMux for the ChatFlow
// application.
package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes configures and returns an HTTP ServeMux with all application
// routes: the chat page, the WebSocket endpoint, the health check, and the
// Prometheus metrics endpoint.
func SetupRoutes(hub *Hub) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", IndexHandler)
	mux.HandleFunc("/ws", WebSocketHandler(hub))
	mux.HandleFunc("/health", HealthHandler)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}
