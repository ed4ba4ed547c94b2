// Package server exposes the HTTP handlers for WebSocket upgrades and the
// health check used by external monitors.
package server

import (
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
)

// newUpgrader builds the WebSocket upgrader for one hub, so origin rejections
// are logged through that hub's logger.
func newUpgrader(h *Hub) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
}

// ServeWS upgrades an HTTP request to a WebSocket connection and registers
// the resulting client with the hub, which starts its read/write pumps.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
		return
	}

	upgrader := newUpgrader(h)
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "addr", r.RemoteAddr, "err", err)
		return
	}

	h.requestRegister(NewClient(conn, h, r.RemoteAddr))
}

// HealthHandler reports that the process is accepting connections. It carries
// no protocol state and exists for external health monitors.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprint(w, "Server is running")
}
