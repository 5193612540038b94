package main

import (
	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/brandosha/socialdistanceroom/cmd/cardroom/shared"
	"github.com/brandosha/socialdistanceroom/internal/server"
)

// ServeCmd runs the relay that rooms connect through.
type ServeCmd struct {
	Config  string `kong:"default='cardroom-server.hcl',help='Path to the HCL config file'"`
	Addr    string `kong:"help='Listen address, overrides the config file'"`
	History int    `kong:"default='-1',help='Broadcasts replayed to late joiners, overrides the config file'"`
	Debug   bool   `kong:"help='Enable debug logging'"`
}

func (c *ServeCmd) Run() error {
	cfg, err := server.LoadConfig(c.Config)
	if err != nil {
		return err
	}
	if c.Debug {
		cfg.Server.LogLevel = "debug"
	}
	if c.History >= 0 {
		cfg.Server.History = c.History
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	addr := cfg.GetServerAddress()
	if c.Addr != "" {
		addr = c.Addr
	}

	logger := shared.SetupLogger(cfg.Server.LogLevel)
	s := server.NewServer(addr, cfg.Server.History, logger, quartz.NewReal())

	logger.Info("starting relay",
		"address", addr,
		"history", cfg.Server.History)

	ctx := shared.SetupSignalHandler(logger)

	var g errgroup.Group
	g.Go(s.Start)
	g.Go(func() error {
		<-ctx.Done()
		return s.Stop()
	})
	return g.Wait()
}
