package observability

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LoggerConfig is the subset of service configuration the logger needs.
type LoggerConfig struct {
	Level  string // debug, info, warn, error
	Format string // json or text
	File   string // optional path; empty logs to stdout
}

// NewLogger builds the service logger. LOG_FORMAT selects JSON or text
// handlers, LOG_LEVEL the threshold, and a non-empty LOG_FILE routes
// output through a size-capped rotating file instead of stdout.
func NewLogger(cfg LoggerConfig) *slog.Logger {
	var w io.Writer = os.Stdout
	if cfg.File != "" {
		w = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    64, // MB
			MaxBackups: 3,
			MaxAge:     14, // days
			Compress:   true,
		}
	}

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
