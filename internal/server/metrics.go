// Package server exposes operational Prometheus metrics for the relay. The
// collectors carry no protocol state; they exist for external monitors only.
package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	activeConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "roomchat_active_connections",
		Help: "Number of currently connected WebSocket clients.",
	})

	activeRooms = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "roomchat_active_rooms",
		Help: "Number of rooms that currently have members.",
	})

	messagesBroadcast = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "roomchat_broadcasts_total",
		Help: "Total number of frames broadcast to rooms.",
	})

	deliveriesDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "roomchat_deliveries_dropped_total",
		Help: "Total per-recipient deliveries skipped due to closed or full send buffers.",
	})

	protocolErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "roomchat_protocol_errors_total",
		Help: "Total inbound frames rejected as malformed or unrecognized.",
	})
)

func init() {
	prometheus.MustRegister(
		activeConnections,
		activeRooms,
		messagesBroadcast,
		deliveriesDropped,
		protocolErrors,
	)
}

// MetricsHandler serves the Prometheus scrape endpoint.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
