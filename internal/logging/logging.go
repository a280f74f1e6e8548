// Package logging configures the process-wide zerolog logger and hands out
// component-scoped child loggers. Core packages never reach for the global
// logger directly; they accept a zerolog.Logger by injection.
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Init sets zerolog's timestamp field format and returns a console logger
// writing to stderr at Info level (Debug when debug is true); the caller
// installs it as the global logger. Call once from cmd/quantsweep before
// constructing the orchestrator.
func Init(debug bool) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().
		Timestamp().
		Logger()

	return logger
}

// Component returns a child logger tagged with the given component name.
func Component(base zerolog.Logger, name string) zerolog.Logger {
	return base.With().Str("component", name).Logger()
}
