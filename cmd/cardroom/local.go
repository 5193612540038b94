package main

import (
	"context"
	"errors"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/brandosha/socialdistanceroom/cmd/cardroom/shared"
	"github.com/brandosha/socialdistanceroom/internal/client"
	"github.com/brandosha/socialdistanceroom/internal/tui"
)

// LocalCmd opens a single-player room with no relay behind it, useful for
// solitaire and for trying commands out.
type LocalCmd struct {
	Config string `kong:"default='cardroom-client.hcl',help='Path to the HCL config file'"`
	Name   string `kong:"help='Display name (defaults to $USER)'"`
}

func (c *LocalCmd) Run() error {
	cfg, err := client.LoadClientConfig(c.Config)
	if err != nil {
		return err
	}

	name := firstNonEmpty(c.Name, cfg.Player.Name, os.Getenv("USER"), "Player")

	logger, logFile, err := shared.SetupFileLogger(cfg.UI.LogLevel, cfg.UI.LogFile)
	if err != nil {
		return err
	}
	defer logFile.Close()

	transport := client.NewNopTransport()
	peer := client.NewPeer(name, transport, logger)
	model := tui.New(peer, "solo", cfg.UI.CommandHistory, logger)
	program := tea.NewProgram(model, tea.WithAltScreen())

	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return peer.Run(ctx)
	})
	g.Go(func() error {
		defer cancel()
		_, err := program.Run()
		return err
	})
	g.Go(func() error {
		<-ctx.Done()
		program.Quit()
		return transport.Close()
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
