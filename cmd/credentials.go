package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/desertthunder/spotpair/internal/formatter"
	"github.com/desertthunder/spotpair/internal/repositories"
	"github.com/desertthunder/spotpair/internal/shared"
	"github.com/urfave/cli/v3"
)

// CredentialsStatus reports whether a usable record is stored.
func (r *Runner) CredentialsStatus(ctx context.Context, cmd *cli.Command) error {
	store, closeFn, err := r.openStore()
	if err != nil {
		return err
	}
	defer closeFn()

	creds, err := store.Load()
	if err != nil {
		if !errors.Is(err, shared.ErrCredentialsUnavailable) {
			return err
		}
		r.logger.Debug("no usable record", "reason", err)
		creds = nil
	}

	var (
		source    string
		updatedAt time.Time
	)
	switch s := store.(type) {
	case *repositories.FileStore:
		source = fmt.Sprintf("file (%s)", s.Path())
		if info, err := os.Stat(s.Path()); err == nil {
			updatedAt = info.ModTime()
		}
	case *repositories.CredentialRepository:
		source = fmt.Sprintf("sqlite (%s)", r.config.Database.Path)
		if creds != nil {
			if updatedAt, err = s.UpdatedAt(); err != nil {
				r.logger.Warn("failed to read update time", "error", err)
			}
		}
	}

	return r.writePlain("%s", formatter.CredentialsStatus(creds, source, updatedAt))
}

// CredentialsHistory lists completed pairings.
func (r *Runner) CredentialsHistory(ctx context.Context, cmd *cli.Command) error {
	store, closeFn, err := r.openStore()
	if err != nil {
		return err
	}
	defer closeFn()

	repo, ok := store.(*repositories.CredentialRepository)
	if !ok {
		return fmt.Errorf("%w: pairing history requires the %q credentials store", shared.ErrInvalidConfig, shared.StoreSQLite)
	}

	pairings, err := repo.Pairings().List(int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(pairings, true)
	}

	if len(pairings) == 0 {
		return r.writePlain("No pairings recorded\n")
	}
	for _, p := range pairings {
		device := "(active device)"
		if p.DeviceID != nil {
			device = *p.DeviceID
		}
		r.writePlain("%s  %s  %s\n", p.PairedAt.Format(time.RFC3339), p.ClientID, device)
	}
	return nil
}

// CredentialsClear removes the stored record.
func (r *Runner) CredentialsClear(ctx context.Context, cmd *cli.Command) error {
	store, closeFn, err := r.openStore()
	if err != nil {
		return err
	}
	defer closeFn()

	remover, ok := store.(interface{ Remove() error })
	if !ok {
		return fmt.Errorf("%w: store cannot remove records", shared.ErrInvalidConfig)
	}
	if err := remover.Remove(); err != nil {
		return fmt.Errorf("failed to remove credentials: %w", err)
	}
	return r.writePlain("✓ Credentials removed\n")
}
