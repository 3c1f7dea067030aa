package config

import (
	"fmt"

	"github.com/rs/zerolog"
)

// LoggingConfig defines the level and output format of the logs
type LoggingConfig struct {
	// Level is a zerolog level name such as "debug" or "warn".
	Level string `json:"level"`
	// Format is "json" or "console".
	Format string `json:"format"`
}

func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "json"
	}
}

func (c LoggingConfig) Validate() error {
	if _, err := zerolog.ParseLevel(c.Level); err != nil {
		return fmt.Errorf("unknown level %s", c.Level)
	}
	if c.Format != "json" && c.Format != "console" {
		return fmt.Errorf("unknown format %s", c.Format)
	}
	return nil
}

// MetricsConfig enables the Prometheus textfile export when Textfile is set
type MetricsConfig struct {
	Textfile string `json:"textfile"`
}
