package client

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/bridgetable/internal/bridge"
)

// Config represents the complete client configuration
type Config struct {
	Server *ServerConnection `hcl:"server,block"`
	Player *PlayerSettings   `hcl:"player,block"`
	UI     *UISettings       `hcl:"ui,block"`
}

// ServerConnection contains server connection settings
type ServerConnection struct {
	URL               string `hcl:"url,optional"`
	ReconnectAttempts int    `hcl:"reconnect_attempts,optional"`
	// ReconnectDelay is in seconds.
	ReconnectDelay int `hcl:"reconnect_delay,optional"`
}

// PlayerSettings contains player-specific settings
type PlayerSettings struct {
	// Seat is taken automatically after connecting when set.
	Seat string `hcl:"seat,optional"`
}

// UISettings contains user interface settings
type UISettings struct {
	LogLevel       string `hcl:"log_level,optional"`
	LogFile        string `hcl:"log_file,optional"`
	TrickDisplayMS int    `hcl:"trick_display_ms,optional"`
	Theme          string `hcl:"theme,optional"`
}

// DefaultConfig returns default client configuration
func DefaultConfig() *Config {
	return &Config{
		Server: &ServerConnection{
			URL:               "http://localhost:8080",
			ReconnectAttempts: 3,
			ReconnectDelay:    2,
		},
		Player: &PlayerSettings{},
		UI: &UISettings{
			LogLevel:       "warn",
			LogFile:        "bridgetable-client.log",
			TrickDisplayMS: 1500,
			Theme:          "default",
		},
	}
}

// LoadConfig loads client configuration from an HCL file. A missing file
// yields the defaults.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	// Apply defaults for missing values
	defaults := DefaultConfig()
	if config.Server == nil {
		config.Server = defaults.Server
	}
	if config.Player == nil {
		config.Player = defaults.Player
	}
	if config.UI == nil {
		config.UI = defaults.UI
	}

	if config.Server.URL == "" {
		config.Server.URL = defaults.Server.URL
	}
	if config.Server.ReconnectDelay == 0 {
		config.Server.ReconnectDelay = defaults.Server.ReconnectDelay
	}
	if config.UI.LogLevel == "" {
		config.UI.LogLevel = defaults.UI.LogLevel
	}
	if config.UI.LogFile == "" {
		config.UI.LogFile = defaults.UI.LogFile
	}
	if config.UI.TrickDisplayMS == 0 {
		config.UI.TrickDisplayMS = defaults.UI.TrickDisplayMS
	}
	if config.UI.Theme == "" {
		config.UI.Theme = defaults.UI.Theme
	}

	return &config, nil
}

// Validate validates the client configuration
func (c *Config) Validate() error {
	if c.Server.URL == "" {
		return fmt.Errorf("server URL is required")
	}
	if c.Server.ReconnectAttempts < 0 {
		return fmt.Errorf("reconnect attempts cannot be negative")
	}
	if c.Server.ReconnectDelay <= 0 {
		return fmt.Errorf("reconnect delay must be positive")
	}
	if c.Player.Seat != "" {
		if _, err := bridge.ParseSeat(c.Player.Seat); err != nil {
			return fmt.Errorf("invalid player seat: %w", err)
		}
	}
	if c.UI.TrickDisplayMS < 0 {
		return fmt.Errorf("trick display time cannot be negative")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.UI.LogLevel] {
		return fmt.Errorf("invalid log level: %s", c.UI.LogLevel)
	}

	validThemes := map[string]bool{
		"default": true,
		"dark":    true,
		"light":   true,
	}
	if !validThemes[c.UI.Theme] {
		return fmt.Errorf("invalid theme: %s", c.UI.Theme)
	}

	return nil
}

// PreferredSeat returns the configured seat, if any.
func (c *Config) PreferredSeat() (bridge.Seat, bool) {
	if c.Player.Seat == "" {
		return 0, false
	}
	seat, err := bridge.ParseSeat(c.Player.Seat)
	return seat, err == nil
}

// TrickDisplay returns how long a completed trick stays on screen.
func (c *Config) TrickDisplay() time.Duration {
	return time.Duration(c.UI.TrickDisplayMS) * time.Millisecond
}

// ReconnectDelay returns the pause between reconnect attempts.
func (c *Config) ReconnectDelay() time.Duration {
	return time.Duration(c.Server.ReconnectDelay) * time.Second
}
