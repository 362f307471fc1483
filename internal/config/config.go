// Package config handles fitdesk configuration loading and validation.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure for fitdesk.
type Config struct {
	// API settings for the back-office support endpoints.
	API APIConfig `yaml:"api" mapstructure:"api"`

	// Sync settings for the conversation polling engine.
	Sync SyncConfig `yaml:"sync" mapstructure:"sync"`

	// Logging settings.
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
}

// APIConfig contains remote endpoint settings.
type APIConfig struct {
	// BaseURL is the back-office API root, e.g. https://backoffice.example.com.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// Token is the bearer token attached to every request. Session
	// management itself lives outside this tool.
	Token string `yaml:"token" mapstructure:"token"`

	// Timeout bounds individual requests.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// SyncConfig contains polling engine settings.
type SyncConfig struct {
	// PollInterval is the snapshot cadence while the widget is open.
	PollInterval time.Duration `yaml:"poll_interval" mapstructure:"poll_interval"`

	// UpdateBuffer sizes the engine's update channel.
	UpdateBuffer int `yaml:"update_buffer" mapstructure:"update_buffer"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" mapstructure:"level"`

	// Format is the output format (json, console).
	Format string `yaml:"format" mapstructure:"format"`
}

// DefaultConfig returns the configuration defaults.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			Timeout: 15 * time.Second,
		},
		Sync: SyncConfig{
			PollInterval: 5 * time.Second,
			UpdateBuffer: 64,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if c.Sync.PollInterval <= 0 {
		return fmt.Errorf("sync.poll_interval must be positive")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive")
	}
	switch c.Logging.Level {
	case "", "trace", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q is not a known level", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("logging.format %q must be json or console", c.Logging.Format)
	}
	if base := strings.TrimSpace(c.API.BaseURL); base != "" &&
		!strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		return fmt.Errorf("api.base_url must be an http(s) URL")
	}
	return nil
}
