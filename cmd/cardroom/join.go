package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/brandosha/socialdistanceroom/cmd/cardroom/shared"
	"github.com/brandosha/socialdistanceroom/internal/client"
	"github.com/brandosha/socialdistanceroom/internal/tui"
)

// JoinCmd connects to a relay and opens the room UI.
type JoinCmd struct {
	Config string `kong:"default='cardroom-client.hcl',help='Path to the HCL config file'"`
	Server string `kong:"help='Relay URL, overrides the config file'"`
	Room   string `kong:"help='Room to join, overrides the config file'"`
	Name   string `kong:"help='Display name (defaults to $USER)'"`
}

func (c *JoinCmd) Run() error {
	cfg, err := client.LoadClientConfig(c.Config)
	if err != nil {
		return err
	}

	serverURL := cfg.Server.URL
	if c.Server != "" {
		serverURL = c.Server
	}
	room := firstNonEmpty(c.Room, cfg.Player.Room, "lobby")
	name := firstNonEmpty(c.Name, cfg.Player.Name, os.Getenv("USER"), "Player")

	if strings.EqualFold(name, "everyone") {
		return fmt.Errorf("%q is not usable as a display name", name)
	}

	// Logs go to a file while the TUI owns the terminal.
	logger, logFile, err := shared.SetupFileLogger(cfg.UI.LogLevel, cfg.UI.LogFile)
	if err != nil {
		return err
	}
	defer logFile.Close()

	conn, err := client.Dial(serverURL, room, name, logger)
	if err != nil {
		return fmt.Errorf("failed to reach the relay at %s: %w", serverURL, err)
	}

	peer := client.NewPeer(name, conn, logger)
	model := tui.New(peer, room, cfg.UI.CommandHistory, logger)
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
		return conn.Close()
	})

	err = g.Wait()
	if errors.Is(conn.Err(), client.ErrNameTaken) {
		return fmt.Errorf("the name %q is already taken in room %q", name, room)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
