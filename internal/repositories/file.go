package repositories

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/desertthunder/spotpair/internal/models"
	"github.com/desertthunder/spotpair/internal/shared"
)

// FileStore persists [models.Credentials] as a JSON file.
type FileStore struct {
	path string
}

// NewFileStore creates a [FileStore] backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string { return s.path }

// Load reads and validates the record.
func (s *FileStore) Load() (*models.Credentials, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrCredentialsUnavailable, err)
	}
	return models.ParseCredentials(data)
}

// Save replaces the record atomically.
//
// The record is written to a temp file in the same directory, synced, then renamed over the target.
func (s *FileStore) Save(creds *models.Credentials) error {
	if creds == nil {
		return fmt.Errorf("%w: nil credentials", shared.ErrInvalidCredentials)
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create credentials directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		cleanup()
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		cleanup()
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// Remove deletes the record. A missing file is not an error.
func (s *FileStore) Remove() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove credentials: %w", err)
	}
	return nil
}
