// Package server constructs and controls the relay's HTTP listener with
// sensible production timeouts.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// CreateServer creates an HTTP server for the given port and handler.
// ReadHeaderTimeout is used instead of a full read timeout so long-lived
// WebSocket connections are not cut off.
func CreateServer(port string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// StartServer starts the HTTP server and blocks until it exits.
func StartServer(server *http.Server) error {
	return server.ListenAndServe()
}

// ShutdownServer gracefully shuts down the HTTP server, waiting for active
// requests to finish or the timeout to elapse.
func ShutdownServer(server *http.Server, logger *slog.Logger, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("http server shutdown", "err", err)
		return err
	}

	logger.Info("http server shutdown complete")
	return nil
}
