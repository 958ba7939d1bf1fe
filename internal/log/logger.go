// Package log builds the zerolog loggers the server's components share.
package log

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New builds the root console logger for the given level name, writing
// to stdout.
func New(level string) *zerolog.Logger {
	return NewWithWriter(level, os.Stdout)
}

// NewWithWriter builds a console logger writing to out. Tests pass a
// buffer here to inspect what a component logged.
func NewWithWriter(level string, out io.Writer) *zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	console := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
	}

	logger := zerolog.New(console).Level(Level(level)).With().Timestamp().Logger()
	return &logger
}

// Component derives a child logger tagged with the subsystem name. The
// dispatcher, transport and channel actors all log under this field so
// one server log stays attributable.
func Component(logger *zerolog.Logger, name string) zerolog.Logger {
	return logger.With().Str("component", name).Logger()
}

// Level parses a level name (debug, info, warn, error). Unknown names
// fall back to info.
func Level(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
