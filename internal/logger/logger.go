package logger

import (
	"io"
	"os"
	"time"

	"github.com/limaJavier/coursesched/internal/config"
	"github.com/rs/zerolog"
)

// New returns a logger writing to stderr. All logs include the provided component field.
func New(component string, cfg config.LoggingConfig) zerolog.Logger {
	return NewWithWriter(os.Stderr, component, cfg)
}

// NewWithWriter builds a JSON logger, or a human readable one when the format is "console". Unknown levels fall
// back to info.
func NewWithWriter(out io.Writer, component string, cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Str("component", component).Logger()
}
