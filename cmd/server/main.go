// Command server starts the room-based chat relay.
//
// Configuration comes from the environment (optionally a local .env file),
// with a -port flag override. The process runs until SIGINT or SIGTERM, then
// drains the HTTP server and all WebSocket connections before exiting.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Tyrowin/roomchat/internal/server"
)

const shutdownTimeout = 10 * time.Second

var portFlag = flag.String("port", "", "listen address, e.g. :8080 (overrides SERVER_PORT)")

func main() {
	// Load local .env (dev only); absence is not an error.
	_ = godotenv.Load()
	flag.Parse()

	cfg := server.NewConfigFromEnv()
	if *portFlag != "" {
		cfg.Port = *portFlag
	}
	server.SetConfig(cfg)

	logger := server.NewLogger(cfg.Env)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	hub := server.NewHub(logger)
	go hub.Run()

	router := server.NewRouter(hub)
	srv := server.CreateServer(cfg.Port, router)

	go func() {
		logger.Info("server listening", "addr", cfg.Port, "env", cfg.Env)
		if err := server.StartServer(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server crashed", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown started")

	exitCode := 0
	if err := server.ShutdownServer(srv, logger, shutdownTimeout); err != nil {
		exitCode = 1
	}
	if err := hub.Shutdown(shutdownTimeout); err != nil {
		logger.Warn("hub shutdown", "err", err)
		exitCode = 1
	}

	logger.Info("shutdown complete")
	os.Exit(exitCode)
}
