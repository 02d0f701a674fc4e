// Package config handles Parley configuration loading and validation.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure for Parley.
type Config struct {
	// Server settings
	Server ServerConfig `yaml:"server" mapstructure:"server"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`

	// TUI settings
	TUI TUIConfig `yaml:"tui" mapstructure:"tui"`
}

// ServerConfig contains chat server endpoints.
type ServerConfig struct {
	// BaseURL is the HTTP API base URL.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// WSURL is the websocket base URL. Derived from BaseURL when empty.
	WSURL string `yaml:"ws_url" mapstructure:"ws_url"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" mapstructure:"level"`

	// Format is the output format (json, console).
	Format string `yaml:"format" mapstructure:"format"`

	// File is an optional log file path. The TUI owns the terminal, so
	// logs go to a file when one is set and are discarded otherwise.
	File string `yaml:"file" mapstructure:"file"`
}

// TUIConfig contains interface settings.
type TUIConfig struct {
	// ToastDuration is how long a notification card stays on screen.
	ToastDuration time.Duration `yaml:"toast_duration" mapstructure:"toast_duration"`

	// Theme selects the color theme (default, mono, forest).
	Theme string `yaml:"theme" mapstructure:"theme"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			BaseURL: "http://127.0.0.1:8000",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		TUI: TUIConfig{
			ToastDuration: 4 * time.Second,
			Theme:         "default",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.BaseURL == "" {
		return fmt.Errorf("server.base_url is required")
	}
	if c.TUI.ToastDuration <= 0 {
		return fmt.Errorf("tui.toast_duration must be positive")
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

// WebsocketURL returns the websocket base URL, deriving it from the HTTP
// base URL when no explicit ws_url is configured.
func (c *Config) WebsocketURL() string {
	if c.Server.WSURL != "" {
		return c.Server.WSURL
	}
	base := c.Server.BaseURL
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base
}
