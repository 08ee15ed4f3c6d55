package config

import (
	"log/slog"
	"os"
)

// NewLogger builds the process logger for the given environment. Production
// emits JSON for log shipping; everything else stays human-readable text.
// The minimum level comes from LOG_LEVEL and defaults to info.
func NewLogger(env string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(os.Getenv("LOG_LEVEL"))}
	if env == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func parseLogLevel(s string) slog.Level {
	switch s {
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
