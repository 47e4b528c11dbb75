package internal

import (
	"io"
	"log/slog"
	"strings"
)

// NewLogger builds the process-wide EliteSub logger. Development gets
// human-readable text output; every other environment logs JSON for
// ingestion.
func NewLogger(w io.Writer, env string, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(level)}

	if env == "development" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// parseLogLevel maps the LOG_LEVEL setting to a slog level, defaulting to
// info on anything unrecognized.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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
