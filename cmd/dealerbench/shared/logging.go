package shared

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/rs/zerolog"
)

// SetupLogger configures zerolog with pretty console output
func SetupLogger(debug bool) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level(debug)).
		With().
		Timestamp().
		Logger()
}

// SetupStructuredLogger configures zerolog for structured (JSON) output
func SetupStructuredLogger(debug bool) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	return zerolog.New(os.Stderr).
		Level(level(debug)).
		With().
		Timestamp().
		Logger()
}

// NewLogger picks the zerolog output for format ("console" or "json").
func NewLogger(format string, debug bool) (zerolog.Logger, error) {
	switch format {
	case "", "console":
		return SetupLogger(debug), nil
	case "json":
		return SetupStructuredLogger(debug), nil
	default:
		return zerolog.Nop(), fmt.Errorf("unknown log format %q", format)
	}
}

// SetupEngineLogger returns the charm logger handed to the game engine and
// draw sources. Per-draw traces only show up with debug; otherwise only
// aborted games are reported.
func SetupEngineLogger(w io.Writer, debug bool) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	logLevel := log.WarnLevel
	if debug {
		logLevel = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{
		Level:           logLevel,
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	})
}

func level(debug bool) zerolog.Level {
	if debug {
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}
