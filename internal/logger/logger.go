package logger

import (
	"log/slog"
	"os"
	"strings"
)

// Setup configures the process-wide slog default logger at the given level.
// Levels are matched case-insensitively; unknown or empty levels fall back to
// info.
func Setup(logLevel string) {
	var level slog.Level
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}
