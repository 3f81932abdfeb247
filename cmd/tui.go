package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spotpair/internal/services"
	"github.com/desertthunder/spotpair/internal/shared"
	"github.com/desertthunder/spotpair/internal/tasks"
	"github.com/desertthunder/spotpair/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive device list.
//
// Pairing, when needed, happens before the screen is taken over.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	client, closeFn, err := r.tuiClient(ctx, cmd.Bool("open"), cmd.String("log-file"))
	if err != nil {
		return err
	}
	defer closeFn()

	opts := tasks.ControllerOptsFromConfig(r.config.Control, client, shared.WithLogger(r.logger, "component", "tui"))
	model := ui.NewModel(ctx, ui.ModelOpts{
		Player:     client,
		Controller: tasks.NewController(opts),
		Targeter:   client.Session(),
		Selected:   client.Session().Credentials().Device(),
	})

	p := tea.NewProgram(model, tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

// tuiClient connects with terminal logging, then moves all logging to logPath and rebuilds the
// session so nothing is written over the screen.
func (r *Runner) tuiClient(ctx context.Context, open bool, logPath string) (*services.SpotifyService, func() error, error) {
	store, closeFn, err := r.openStore()
	if err != nil {
		return nil, nil, err
	}

	client, err := r.connectStore(ctx, store, open)
	if err != nil {
		closeFn()
		return nil, nil, err
	}

	fileLogger, err := shared.NewFileLogger(logPath)
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, shared.ParseLogLevel(r.config.Log.Level))
	r.SetLogger(fileLogger)

	client, err = r.newClient(client.Session().Credentials(), store)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return client, closeFn, nil
}
