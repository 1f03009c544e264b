package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fahrtenbuch-logbook/internal/config"
)

// NewLogger returns the JSON logger of the long-running binaries, tagged with the
// application name and environment.
func NewLogger(cfg *config.Config) *slog.Logger {
	logger := newServiceLogger(cfg, os.Stdout)
	logger.Info("logger initialized", "level", parseLevel(cfg.Logging.Level).String())
	return logger
}

func newServiceLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	level := parseLevel(cfg.Logging.Level)
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: level <= slog.LevelDebug,
	})

	logger := slog.New(handler)
	if cfg.Application.Name != "" {
		logger = logger.With("app", cfg.Application.Name)
	}
	if cfg.Application.Env != "" {
		logger = logger.With("env", cfg.Application.Env)
	}
	return logger
}

// NewCLILogger writes text logs to w so stdout stays reserved for command output
func NewCLILogger(cfg *config.Config, w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: parseLevel(cfg.Logging.Level)}))
}

// parseLevel accepts slog level names (debug, INFO, warn+2); anything else is info
func parseLevel(raw string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(raw))); err != nil {
		return slog.LevelInfo
	}
	return level
}
