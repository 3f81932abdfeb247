package main

import (
	"context"
	"fmt"
	"slices"

	"github.com/desertthunder/spotpair/internal/formatter"
	"github.com/desertthunder/spotpair/internal/services"
	"github.com/desertthunder/spotpair/internal/shared"
	"github.com/urfave/cli/v3"
)

// Pair runs the wizard even when a record already exists.
func (r *Runner) Pair(ctx context.Context, cmd *cli.Command) error {
	store, closeFn, err := r.openStore()
	if err != nil {
		return err
	}
	defer closeFn()

	client, err := r.pair(ctx, store, cmd.Bool("open"))
	if err != nil {
		return err
	}

	target := client.Session().Credentials().Device()
	if target == "" {
		target = "active device"
	}
	return r.writePlain("Playback target: %s\n", target)
}

// Play starts playback with only the options given on the command line.
func (r *Runner) Play(ctx context.Context, cmd *cli.Command) error {
	opts := services.PlayOptions{ContextURI: cmd.String("context")}
	if uris := cmd.StringSlice("uri"); len(uris) > 0 {
		opts.URIs = uris
	}

	if cmd.IsSet("offset") && cmd.IsSet("offset-uri") {
		return fmt.Errorf("%w: --offset and --offset-uri are mutually exclusive", shared.ErrInvalidArgument)
	}
	if cmd.IsSet("offset") {
		position := int(cmd.Int("offset"))
		opts.Offset = &services.Offset{Position: &position}
	}
	if uri := cmd.String("offset-uri"); uri != "" {
		opts.Offset = &services.Offset{URI: uri}
	}
	if cmd.IsSet("position") {
		position := int(cmd.Int("position"))
		opts.PositionMS = &position
	}

	client, closeFn, err := r.connect(ctx, cmd.Bool("open"))
	if err != nil {
		return err
	}
	defer closeFn()

	if err := client.Play(ctx, opts); err != nil {
		return fmt.Errorf("play failed: %w", err)
	}
	return r.writePlain("▶ Playing\n")
}

// Pause pauses playback.
func (r *Runner) Pause(ctx context.Context, cmd *cli.Command) error {
	client, closeFn, err := r.connect(ctx, cmd.Bool("open"))
	if err != nil {
		return err
	}
	defer closeFn()

	if err := client.Pause(ctx); err != nil {
		return fmt.Errorf("pause failed: %w", err)
	}
	return r.writePlain("⏸ Paused\n")
}

// Devices prints the available devices in the requested format, marking the targeted one.
func (r *Runner) Devices(ctx context.Context, cmd *cli.Command) error {
	format := cmd.String("format")
	if _, err := formatter.FormatDevices(format, nil, ""); err != nil {
		return err
	}

	client, closeFn, err := r.connect(ctx, cmd.Bool("open"))
	if err != nil {
		return err
	}
	defer closeFn()

	devices, err := client.Devices(ctx)
	if err != nil {
		return fmt.Errorf("failed to list devices: %w", err)
	}

	selected := client.Session().Credentials().Device()
	data, err := formatter.FormatDevices(format, slices.Collect(devices), selected)
	if err != nil {
		return err
	}

	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// SelectDevice retargets the stored record to a device found by id or name.
func (r *Runner) SelectDevice(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("device")
	clearTarget := cmd.Bool("clear")

	if query == "" && !clearTarget {
		return fmt.Errorf("%w: device id or name (or --clear)", shared.ErrMissingArgument)
	}

	client, closeFn, err := r.connect(ctx, cmd.Bool("open"))
	if err != nil {
		return err
	}
	defer closeFn()

	if clearTarget {
		if err := client.Session().SelectDevice(""); err != nil {
			return err
		}
		return r.writePlain("✓ Targeting the active device\n")
	}

	device, err := client.FindDevice(ctx, query)
	if err != nil {
		return err
	}

	if err := client.Session().SelectDevice(device.ID); err != nil {
		return err
	}
	return r.writePlain("✓ Targeting %s (%s)\n", device.Name, device.ID)
}
