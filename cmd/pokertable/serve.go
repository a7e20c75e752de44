package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/lox/pokertable/internal/bankroll"
	"github.com/lox/pokertable/internal/server"
)

// ServeCmd runs the configured tables behind the HTTP and WebSocket server.
type ServeCmd struct {
	Config         string `short:"c" env:"POKERTABLE_CONFIG" default:"pokertable.hcl" help:"Path to HCL configuration file"`
	Addr           string `short:"a" env:"POKERTABLE_ADDR" help:"Address to bind to (overrides config)"`
	Port           int    `short:"p" env:"POKERTABLE_PORT" help:"Port to listen on (overrides config)"`
	Seed           int64  `env:"POKERTABLE_SEED" help:"Deterministic RNG seed (overrides config)"`
	BankrollDriver string `env:"POKERTABLE_BANKROLL_DRIVER" help:"Bankroll database driver, sqlite or postgres (overrides config)"`
	BankrollDSN    string `env:"POKERTABLE_BANKROLL_DSN" help:"Bankroll database DSN (overrides config)"`
}

func (c *ServeCmd) Run(logger *log.Logger) error {
	cfg, err := server.LoadServerConfig(c.Config)
	if err != nil {
		return err
	}
	c.applyOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var bank bankroll.Store
	if cfg.Bankroll != nil {
		store, err := bankroll.OpenSQL(ctx, cfg.Bankroll.Driver, cfg.Bankroll.DSN)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		bank = store
		logger.Info("Bankroll opened", "driver", cfg.Bankroll.Driver)
	}

	tables, err := server.NewTables(cfg, bank, quartz.NewReal(), logger)
	if err != nil {
		return err
	}
	srv := server.NewServer(cfg, tables, bank, logger)

	logger.Info("Starting pokertable server",
		"addr", cfg.GetServerAddress(),
		"tables", len(cfg.Tables),
		"bots", len(cfg.Bots))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return tables.Run(ctx) })
	g.Go(func() error { return srv.Run(ctx) })
	g.Go(func() error { return srv.SeatBots(ctx) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("Server stopped")
	return nil
}

func (c *ServeCmd) applyOverrides(cfg *server.ServerConfig) {
	if c.Addr != "" {
		cfg.Server.Address = c.Addr
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}
	if c.Seed != 0 {
		cfg.Server.Seed = c.Seed
	}
	if c.BankrollDSN != "" {
		if cfg.Bankroll == nil {
			cfg.Bankroll = &server.BankrollConfig{Driver: "sqlite"}
		}
		cfg.Bankroll.DSN = c.BankrollDSN
	}
	if c.BankrollDriver != "" && cfg.Bankroll != nil {
		cfg.Bankroll.Driver = c.BankrollDriver
	}
}
