package cmd

import (
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/wikigap-cli/internal/config"
)

// newLogger builds the command logger. Format "json" writes structured JSON;
// anything else writes text, with source locations at debug level.
func newLogger(w io.Writer, level, format string) *slog.Logger {
	lvl := parseLevel(level)
	opts := &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl == slog.LevelDebug && !strings.EqualFold(format, "json"),
	}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// effectiveLogLevel resolves --debug > --log-level > config. Quiet runs
// default to warn.
func effectiveLogLevel(cmd *cobra.Command, cfg *config.Config) string {
	if debug {
		return "debug"
	}
	if flagChanged(cmd, "log-level") && strings.TrimSpace(logLevel) != "" {
		return logLevel
	}
	if cfg != nil && strings.TrimSpace(cfg.LogLevel) != "" {
		return cfg.LogLevel
	}
	if quietFlag {
		return "warn"
	}
	return "info"
}

func effectiveLogFormat(cmd *cobra.Command, cfg *config.Config) string {
	if flagChanged(cmd, "log-format") && strings.TrimSpace(logFormat) != "" {
		return logFormat
	}
	if cfg != nil && strings.TrimSpace(cfg.LogFormat) != "" {
		return cfg.LogFormat
	}
	return "text"
}
