package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/coder/quartz"

	"github.com/lox/bridgetable/cmd/bridgetable/shared"
	"github.com/lox/bridgetable/internal/client"
	"github.com/lox/bridgetable/internal/tui"
)

const connectTimeout = 10 * time.Second

// ClientCmd opens the terminal UI against a running table.
type ClientCmd struct {
	Config   string `short:"c" default:"bridgetable-client.hcl" help:"Path to HCL configuration file"`
	Server   string `short:"s" help:"Server URL to connect to (overrides config)"`
	Seat     string `help:"Seat to take on connect: N, E, S or W (overrides config)"`
	LogLevel string `short:"l" help:"Log level (overrides config)"`
	LogFile  string `help:"Log file path (overrides config)"`
	Theme    string `help:"Colour theme: default, dark or light (overrides config)"`
}

func (c *ClientCmd) Run() error {
	cfg, err := client.LoadConfig(c.Config)
	if err != nil {
		return err
	}
	c.applyOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// The terminal belongs to the UI, so logs go to a file.
	logFile, err := os.OpenFile(cfg.UI.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = logFile.Close() }()

	logger, err := shared.NewLogger(logFile, cfg.UI.LogLevel, false)
	if err != nil {
		return err
	}
	logger.Info("Starting bridge client", "server", cfg.Server.URL, "config", c.Config)

	clock := quartz.NewReal()
	conn := client.New(client.Options{
		URL:               cfg.Server.URL,
		ReconnectAttempts: cfg.Server.ReconnectAttempts,
		ReconnectDelay:    cfg.ReconnectDelay(),
		Clock:             clock,
	}, logger)
	defer func() { _ = conn.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	err = conn.Connect(ctx)
	cancel()
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", cfg.Server.URL, err)
	}

	if seat, ok := cfg.PreferredSeat(); ok {
		if err := conn.ChooseRole(seat); err != nil {
			logger.Warn("Could not request seat", "seat", seat, "error", err)
		}
	}

	model := tui.New(tui.Options{
		Actions:      conn,
		Messages:     conn.Messages(),
		Clock:        clock,
		TrickDisplay: cfg.TrickDisplay(),
		Theme:        cfg.UI.Theme,
		Logger:       logger,
	})

	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running terminal UI: %w", err)
	}
	return nil
}

func (c *ClientCmd) applyOverrides(cfg *client.Config) {
	if s := strings.TrimSpace(c.Server); s != "" {
		cfg.Server.URL = s
	}
	if c.Seat != "" {
		cfg.Player.Seat = c.Seat
	}
	if c.LogLevel != "" {
		cfg.UI.LogLevel = strings.ToLower(c.LogLevel)
	}
	if c.LogFile != "" {
		cfg.UI.LogFile = c.LogFile
	}
	if c.Theme != "" {
		cfg.UI.Theme = c.Theme
	}
}
