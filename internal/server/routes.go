// Package server wires the HTTP routes for the chat relay: health check,
// WebSocket endpoint, and Prometheus metrics.
package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// NewRouter builds the relay's HTTP handler around the given hub, wrapped in
// CORS middleware configured from the active allow-list.
func NewRouter(hub *Hub) http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/health", HealthHandler).Methods(http.MethodGet)
	router.HandleFunc("/ws", hub.ServeWS)
	router.Handle("/metrics", MetricsHandler()).Methods(http.MethodGet)

	cfg := currentConfig()
	corsOrigins := cfg.AllowedOrigins
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}

	c := cors.New(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(router)
}
