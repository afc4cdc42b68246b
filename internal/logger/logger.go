package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/jwebster45206/story-adventure/internal/config"
)

const serviceName = "story-adventure"

// Setup builds the process logger and installs it as the slog default.
// Production logs JSON, every other environment logs text. Debug level adds source lines.
func Setup(cfg *config.Config) *slog.Logger {
	logger := newLogger(os.Stdout, cfg)
	slog.SetDefault(logger)
	return logger
}

func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     cfg.LogLevel,
		AddSource: cfg.LogLevel <= slog.LevelDebug,
	}

	var handler slog.Handler
	if cfg.Environment == "production" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler).With("service", serviceName)
}

// WithAdventure scopes a logger to one adventure
func WithAdventure(logger *slog.Logger, adventureID string) *slog.Logger {
	return logger.With("adventure_id", adventureID)
}

// WithRequestID adds request ID to logger context
func WithRequestID(logger *slog.Logger, requestID string) *slog.Logger {
	return logger.With("request_id", requestID)
}
