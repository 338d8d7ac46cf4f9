// Package rqglog configures the structured logger shared by every RQG
// component. Grounded on the teacher's util.InitSlog: level is driven
// by the LOG_LEVEL environment variable, defaulting to info.
package rqglog

import (
	"log/slog"
	"os"
	"strings"
)

// New builds a *slog.Logger for the given component name, honoring
// LOG_LEVEL (debug|info|warn|error, case-insensitive; default info).
func New(component string) *slog.Logger {
	level := parseLevel(os.Getenv("LOG_LEVEL"))
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With("component", component)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Discard returns a logger that drops everything; used in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(discardWriter{}, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
