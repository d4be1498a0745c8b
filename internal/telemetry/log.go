// Package telemetry wires structured logging and Prometheus metrics for
// the batch driver. Every component logs through the package-level
// Logger rather than the stdlib log package, and records pool/worker
// health through the collectors below.
package telemetry

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the global logger instance used throughout the driver.
var Logger zerolog.Logger

// Level mirrors the small set of levels the CLI exposes.
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

// Config controls how Init configures the global Logger.
type Config struct {
	Level      Level
	JSONOutput bool
	Output     io.Writer
}

// Init initializes the global Logger from cfg. Safe to call more than
// once; the most recent call wins.
func Init(cfg Config) {
	var level zerolog.Level
	switch cfg.Level {
	case DebugLevel:
		level = zerolog.DebugLevel
	case WarnLevel:
		level = zerolog.WarnLevel
	case ErrorLevel:
		level = zerolog.ErrorLevel
	default:
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	if cfg.JSONOutput {
		Logger = zerolog.New(output).With().Timestamp().Logger()
	} else {
		Logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger()
	}
}

func init() {
	// Sensible default so packages that log before the CLI calls Init
	// (e.g. in tests) don't panic on a zero-value Logger.
	Init(Config{Level: InfoLevel})
}

// WithWorker returns a child logger tagged with a worker's port.
func WithWorker(port int) zerolog.Logger {
	return Logger.With().Int("port", port).Logger()
}

// WithBatch returns a child logger tagged with a batch sequence number.
func WithBatch(batch int) zerolog.Logger {
	return Logger.With().Int("batch", batch).Logger()
}
