// Package logging constructs the structured loggers used across the
// service: colorized text in development, plain JSON in production.
package logging

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"
	"golang.org/x/term"
)

// Format selects the slog handler backing a logger.
type Format string

const (
	FormatAuto Format = "auto"
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// NewLogger builds a logger using FormatAuto: colorized text when stderr is
// a terminal, JSON otherwise. level is one of debug/info/warn/error.
func NewLogger(level string) *slog.Logger {
	return NewLoggerWithFormat(level, FormatAuto)
}

// NewLoggerWithFormat builds a logger with an explicit output format.
func NewLoggerWithFormat(level string, format Format) *slog.Logger {
	lvl := ParseLevel(level)

	if format == FormatAuto {
		if isTerminal(os.Stderr) {
			format = FormatText
		} else {
			format = FormatJSON
		}
	}

	var handler slog.Handler
	switch format {
	case FormatText:
		handler = tint.NewHandler(os.Stderr, &tint.Options{
			Level:      lvl,
			TimeFormat: "15:04:05",
		})
	default:
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: lvl,
		})
	}

	return slog.New(handler)
}

// ParseLevel maps a config string to a slog.Level, defaulting to Info for
// anything unrecognized.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// WithContext returns logger unchanged; ctx is not read, so no
// request-scoped values are added. Kept as a seam for transport middleware
// to extend without touching callers.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	return logger
}
