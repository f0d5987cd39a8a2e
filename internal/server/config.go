package server

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/bridgetable/internal/bridge"
)

// Config represents the complete server configuration
type Config struct {
	Server   Settings        `hcl:"server,block"`
	BoardLog *BoardLogConfig `hcl:"boardlog,block"`
}

// Settings contains server-level configuration
type Settings struct {
	Address        string `hcl:"address,optional"`
	Port           int    `hcl:"port,optional"`
	LogLevel       string `hcl:"log_level,optional"`
	AllowObservers bool   `hcl:"allow_observers,optional"`
	OpeningSeat    string `hcl:"opening_seat,optional"`
	// Seed fixes the deal sequence; unset means time-seeded.
	Seed       *int64 `hcl:"seed,optional"`
	SendBuffer int    `hcl:"send_buffer,optional"`
}

// BoardLogConfig controls persistence of finished boards.
type BoardLogConfig struct {
	Enabled     bool   `hcl:"enabled,optional"`
	Dir         string `hcl:"dir,optional"`
	FlushBoards int    `hcl:"flush_boards,optional"`
}

const (
	defaultAddress     = "localhost"
	defaultPort        = 8080
	defaultLogLevel    = "info"
	defaultSendBuffer  = 256
	defaultBoardLogDir = "boards"
	defaultFlushBoards = 1
)

// DefaultConfig returns default server configuration
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig loads server configuration from an HCL file. A missing file
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

	config.applyDefaults()
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = defaultAddress
	}
	if c.Server.Port == 0 {
		c.Server.Port = defaultPort
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = defaultLogLevel
	}
	if c.Server.OpeningSeat == "" {
		c.Server.OpeningSeat = bridge.North.String()
	}
	if c.Server.SendBuffer == 0 {
		c.Server.SendBuffer = defaultSendBuffer
	}
	if c.BoardLog == nil {
		c.BoardLog = &BoardLogConfig{}
	}
	if c.BoardLog.Dir == "" {
		c.BoardLog.Dir = defaultBoardLogDir
	}
	if c.BoardLog.FlushBoards == 0 {
		c.BoardLog.FlushBoards = defaultFlushBoards
	}
}

// Validate validates the server configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if _, err := log.ParseLevel(strings.ToLower(c.Server.LogLevel)); err != nil {
		return fmt.Errorf("invalid log level %q", c.Server.LogLevel)
	}
	if _, err := bridge.ParseSeat(c.Server.OpeningSeat); err != nil {
		return fmt.Errorf("invalid opening seat: %w", err)
	}
	if c.Server.SendBuffer < 1 {
		return fmt.Errorf("send buffer must be positive, got %d", c.Server.SendBuffer)
	}
	if c.BoardLog != nil && c.BoardLog.FlushBoards < 1 {
		return fmt.Errorf("boardlog: flush_boards must be positive, got %d", c.BoardLog.FlushBoards)
	}
	return nil
}

// envOverrides are the BRIDGETABLE_* variables. Unset variables leave the
// file's values alone.
type envOverrides struct {
	Address     string `env:"BRIDGETABLE_ADDRESS"`
	Port        int    `env:"BRIDGETABLE_PORT"`
	LogLevel    string `env:"BRIDGETABLE_LOG_LEVEL"`
	OpeningSeat string `env:"BRIDGETABLE_OPENING_SEAT"`
	Seed        string `env:"BRIDGETABLE_SEED"`
	BoardLogDir string `env:"BRIDGETABLE_BOARD_LOG"`
}

// ApplyEnv overlays the process environment onto c.
func (c *Config) ApplyEnv() error {
	return c.applyEnv(env.Options{})
}

func (c *Config) applyEnv(opts env.Options) error {
	o, err := env.ParseAsWithOptions[envOverrides](opts)
	if err != nil {
		return fmt.Errorf("parsing environment: %w", err)
	}
	if o.Address != "" {
		c.Server.Address = o.Address
	}
	if o.Port != 0 {
		c.Server.Port = o.Port
	}
	if o.LogLevel != "" {
		c.Server.LogLevel = o.LogLevel
	}
	if o.OpeningSeat != "" {
		c.Server.OpeningSeat = o.OpeningSeat
	}
	if o.Seed != "" {
		seed, err := strconv.ParseInt(o.Seed, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid BRIDGETABLE_SEED %q: %w", o.Seed, err)
		}
		c.Server.Seed = &seed
	}
	if o.BoardLogDir != "" {
		if c.BoardLog == nil {
			c.BoardLog = &BoardLogConfig{FlushBoards: defaultFlushBoards}
		}
		c.BoardLog.Enabled = true
		c.BoardLog.Dir = o.BoardLogDir
	}
	return nil
}

// OpeningSeat returns the parsed opening seat, North if unset.
func (c *Config) OpeningSeat() bridge.Seat {
	seat, err := bridge.ParseSeat(c.Server.OpeningSeat)
	if err != nil {
		return bridge.North
	}
	return seat
}

// GetServerAddress returns the full server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}
