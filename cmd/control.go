package main

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/desertthunder/spotpair/internal/shared"
	"github.com/desertthunder/spotpair/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Control runs the button loop: one press per line on stdin until EOF or interrupt.
func (r *Runner) Control(ctx context.Context, cmd *cli.Command) error {
	client, closeFn, err := r.connect(ctx, cmd.Bool("open"))
	if err != nil {
		return err
	}
	defer closeFn()

	logger := shared.WithLogger(r.logger, "component", "control")
	opts := tasks.ControllerOptsFromConfig(r.config.Control, client, logger)
	if cmd.IsSet("debounce") {
		opts.Debounce = time.Duration(cmd.Int("debounce")) * time.Millisecond
		if opts.Debounce == 0 {
			opts.Debounce = -1
		}
	}
	controller := tasks.NewController(opts)

	inputs := tasks.ScanInputs(ctx, r.input, func(err error) {
		logger.Warn("ignored input", "error", err)
	})
	events := make(chan tasks.Event, 16)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for ev := range events {
			r.writePlain("[%s] %s\n", ev.Input, ev.Message)
		}
	}()

	r.writePlain("Ready, press enter to toggle playback (Ctrl+D to stop)\n")
	err = controller.Run(ctx, inputs, events)
	close(events)
	wg.Wait()

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
