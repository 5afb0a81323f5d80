// Package logging wires up obstack's structured logger.
package logging

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// New builds a zerolog.Logger writing console-formatted output to stderr at
// the given level, colored only when stderr is attached to a terminal.
func New(level string) zerolog.Logger {
	var writer zerolog.ConsoleWriter
	if term.IsTerminal(int(os.Stderr.Fd())) {
		writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05.000"}
	} else {
		writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05.000", NoColor: true}
	}

	logger := zerolog.New(writer).With().Timestamp().Logger()
	return logger.Level(parseLevel(level))
}

func parseLevel(level string) zerolog.Level {
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
		return zerolog.WarnLevel
	}
}
