// Package integration contains end-to-end tests for the chat relay.
//
// These tests run a real HTTP server with the full router, dial the WebSocket
// endpoint with real clients, and verify the wire protocol and room semantics
// as a client would observe them.
package integration

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Tyrowin/roomchat/internal/server"
	"github.com/Tyrowin/roomchat/test/testhelpers"
)

// startRelayServer boots a hub and HTTP server for one test. Everything is
// torn down via t.Cleanup.
func startRelayServer(t *testing.T) (*httptest.Server, *server.Hub) {
	t.Helper()

	server.SetConfig(nil)

	hub := server.NewHub(testhelpers.DiscardLogger())
	go hub.Run()
	t.Cleanup(func() { _ = hub.Shutdown(2 * time.Second) })

	ts := httptest.NewServer(server.NewRouter(hub))
	t.Cleanup(ts.Close)

	return ts, hub
}

// startRelayWithConfig boots the relay with a modified configuration. The
// defaults are restored when the test finishes.
func startRelayWithConfig(t *testing.T, mutate func(cfg *server.Config)) (string, *server.Hub) {
	t.Helper()

	cfg := server.NewConfig()
	mutate(cfg)
	server.SetConfig(cfg)
	t.Cleanup(func() { server.SetConfig(nil) })

	hub := server.NewHub(testhelpers.DiscardLogger())
	go hub.Run()
	t.Cleanup(func() { _ = hub.Shutdown(2 * time.Second) })

	ts := httptest.NewServer(server.NewRouter(hub))
	t.Cleanup(ts.Close)

	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws", hub
}

// startRelay is startRelayServer plus the derived WebSocket endpoint URL.
func startRelay(t *testing.T) (string, *server.Hub) {
	t.Helper()

	ts, hub := startRelayServer(t)
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws", hub
}

// waitFor polls cond until it holds or the timeout elapses.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("Condition not met within %s: %s", timeout, msg)
}
