package logging

import (
	"io"
	"log/slog"
)

// New constructs the structured logger used throughout the runtime. level is
// one of "debug", "info", "warn", "error" (defaulting to "info"); format is
// "json" or "text" (defaulting to "text").
func New(w io.Writer, level, format string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// Discard returns a logger that drops everything, for callers who didn't
// supply one.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// WithContext returns a logger with the request context's id attached.
func WithContext(log *slog.Logger, contextId string) *slog.Logger {
	return log.With("context_id", contextId)
}

// WithScript returns a logger with the executing script's path attached.
func WithScript(log *slog.Logger, path string) *slog.Logger {
	return log.With("script", path)
}
