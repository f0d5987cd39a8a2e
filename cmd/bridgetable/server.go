package main

import (
	"fmt"
	"net"
	"strconv"

	"github.com/coder/quartz"

	"github.com/lox/bridgetable/cmd/bridgetable/shared"
	"github.com/lox/bridgetable/internal/boardlog"
	"github.com/lox/bridgetable/internal/randutil"
	"github.com/lox/bridgetable/internal/server"
	"github.com/lox/bridgetable/internal/table"
)

// ServerCmd runs one table. BRIDGETABLE_* environment variables override the
// HCL config file and flags override both.
type ServerCmd struct {
	Config         string `short:"c" default:"bridgetable-server.hcl" help:"Path to HCL configuration file"`
	Addr           string `help:"Listen address host:port (overrides config)"`
	Debug          bool   `help:"Enable debug logging"`
	Seed           *int64 `help:"Deterministic deal seed (optional)"`
	OpeningSeat    string `help:"Seat that opens every auction: N, E, S or W (overrides config)"`
	AllowObservers bool   `help:"Allow connections to observe hidden hands"`
	BoardLog       string `name:"board-log" help:"Directory to record finished boards in (enables recording)"`
}

func (c *ServerCmd) Run() error {
	cfg, err := server.LoadConfig(c.Config)
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return err
	}
	if err := c.applyOverrides(cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := shared.SetupLogger(cfg.Server.LogLevel, c.Debug)
	if err != nil {
		return err
	}

	rng, seed := randutil.Resolve(cfg.Server.Seed)
	logger.Info("Using deal seed", "seed", seed, "deterministic", cfg.Server.Seed != nil)

	session := table.New(table.Config{
		OpeningSeat:    cfg.OpeningSeat(),
		AllowObservers: cfg.Server.AllowObservers,
		Rand:           rng,
	})

	clock := quartz.NewReal()
	var recorder server.BoardRecorder
	if cfg.BoardLog.Enabled {
		mgr, err := boardlog.NewManager(logger, boardlog.Config{
			Dir:         cfg.BoardLog.Dir,
			FlushBoards: cfg.BoardLog.FlushBoards,
			Clock:       clock,
		})
		if err != nil {
			return err
		}
		defer func() {
			if err := mgr.Close(); err != nil {
				logger.Error("Failed to flush board log", "error", err)
			}
			logger.Info("Board log closed", "boards", mgr.Written())
		}()
		recorder = mgr
	}

	hub := server.NewHub(session, logger, clock, recorder)
	srv := server.NewServer(cfg.GetServerAddress(), hub, logger, cfg.Server.SendBuffer)

	logger.Info("Starting bridge table",
		"address", cfg.GetServerAddress(),
		"opening_seat", cfg.OpeningSeat(),
		"allow_observers", cfg.Server.AllowObservers,
		"board_log", cfg.BoardLog.Enabled)

	ctx, cancel := shared.SetupSignalHandler(logger)
	defer cancel()
	return srv.Run(ctx)
}

func (c *ServerCmd) applyOverrides(cfg *server.Config) error {
	if c.Addr != "" {
		host, portStr, err := net.SplitHostPort(c.Addr)
		if err != nil {
			return fmt.Errorf("invalid address %q: %w", c.Addr, err)
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid port in %q", c.Addr)
		}
		cfg.Server.Address, cfg.Server.Port = host, port
	}
	if c.Seed != nil {
		cfg.Server.Seed = c.Seed
	}
	if c.OpeningSeat != "" {
		cfg.Server.OpeningSeat = c.OpeningSeat
	}
	if c.AllowObservers {
		cfg.Server.AllowObservers = true
	}
	if c.BoardLog != "" {
		cfg.BoardLog.Enabled = true
		cfg.BoardLog.Dir = c.BoardLog
	}
	return nil
}
