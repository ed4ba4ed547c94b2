package server

import (
	"log/slog"
	"os"
)

// NewLogger returns a slog.Logger tuned to the environment:
// prod gets JSON logs at Info, everything else text logs at Debug.
func NewLogger(env string) *slog.Logger {
	var handler slog.Handler
	if env == "prod" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	return slog.New(handler)
}
