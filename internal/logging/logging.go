// Package logging builds the slog loggers used by the engine and the CLI.
package logging

import (
	"io"
	"log/slog"
	"strings"
)

// Level is a configured log level name.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// ParseLevel maps a level name to a slog.Level. Unknown names fall back to warn.
func ParseLevel(name string) slog.Level {
	switch Level(strings.ToLower(strings.TrimSpace(name))) {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// New returns a text logger writing to w at the named level.
func New(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	}))
}
