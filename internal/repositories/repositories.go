// package repositories provides persistence layer implementations for the credential record.
package repositories

import (
	"fmt"

	"github.com/desertthunder/spotpair/internal/models"
	"github.com/desertthunder/spotpair/internal/shared"
)

var (
	_ models.CredentialStore = (*FileStore)(nil)
	_ models.CredentialStore = (*CredentialRepository)(nil)
)

// NewCredentialStore returns the backend selected by cfg.Store.
//
// The sqlite backend opens (and migrates) the configured database; close it with the returned func.
func NewCredentialStore(cfg *shared.Config) (models.CredentialStore, func() error, error) {
	switch cfg.Credentials.Store {
	case "", shared.StoreFile:
		return NewFileStore(cfg.Credentials.Path), func() error { return nil }, nil
	case shared.StoreSQLite:
		db, err := shared.OpenDatabase(cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		return NewCredentialRepository(db), db.Close, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown credential store %q", shared.ErrInvalidConfig, cfg.Credentials.Store)
	}
}
