package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/spotpair/internal/models"
	"github.com/desertthunder/spotpair/internal/shared"
)

// CredentialRepository persists [models.Credentials] as the single row of the credentials table.
type CredentialRepository struct {
	db *sql.DB
}

// NewCredentialRepository creates a new [CredentialRepository] with the given database connection
func NewCredentialRepository(db *sql.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// Pairings returns a [PairingRepository] sharing this repository's connection.
func (r *CredentialRepository) Pairings() *PairingRepository {
	return NewPairingRepository(r.db)
}

// Load retrieves and validates the stored record
func (r *CredentialRepository) Load() (*models.Credentials, error) {
	query := `
		SELECT access_token, refresh_token, client_id, client_secret, device_id
		FROM credentials
		WHERE id = 1
	`

	var (
		creds    models.Credentials
		deviceID sql.NullString
	)

	err := r.db.QueryRow(query).Scan(&creds.AccessToken, &creds.RefreshToken, &creds.ClientID, &creds.ClientSecret, &deviceID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: no stored record", shared.ErrCredentialsUnavailable)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query credentials: %v", shared.ErrCredentialsUnavailable, err)
	}

	if deviceID.Valid {
		creds.SetDevice(deviceID.String)
	}

	if err := creds.Validate(); err != nil {
		return nil, err
	}

	return &creds, nil
}

// Save upserts the record inside a transaction
func (r *CredentialRepository) Save(creds *models.Credentials) error {
	if creds == nil {
		return fmt.Errorf("%w: nil credentials", shared.ErrInvalidCredentials)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO credentials (id, access_token, refresh_token, client_id, client_secret, device_id, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			client_id = excluded.client_id,
			client_secret = excluded.client_secret,
			device_id = excluded.device_id,
			updated_at = excluded.updated_at
	`

	var deviceID any
	if creds.DeviceID != nil {
		deviceID = *creds.DeviceID
	}

	_, err = tx.Exec(query, creds.AccessToken, creds.RefreshToken, creds.ClientID, creds.ClientSecret, deviceID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit credentials: %w", err)
	}

	return nil
}

// Remove deletes the stored record
func (r *CredentialRepository) Remove() error {
	if _, err := r.db.Exec("DELETE FROM credentials WHERE id = 1"); err != nil {
		return fmt.Errorf("failed to remove credentials: %w", err)
	}
	return nil
}

// UpdatedAt returns when the record was last written
func (r *CredentialRepository) UpdatedAt() (time.Time, error) {
	var updatedAt time.Time
	err := r.db.QueryRow("SELECT updated_at FROM credentials WHERE id = 1").Scan(&updatedAt)
	if err == sql.ErrNoRows {
		return time.Time{}, fmt.Errorf("%w: no stored record", shared.ErrCredentialsUnavailable)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to query credentials: %w", err)
	}
	return updatedAt, nil
}

// Pairing is one completed run of the pairing wizard
type Pairing struct {
	ID       string    `json:"id"`
	ClientID string    `json:"client_id"`
	DeviceID *string   `json:"device_id"`
	PairedAt time.Time `json:"paired_at"`
}

// PairingRepository records completed pairings
type PairingRepository struct {
	db *sql.DB
}

// NewPairingRepository creates a new [PairingRepository] with the given database connection
func NewPairingRepository(db *sql.DB) *PairingRepository {
	return &PairingRepository{db: db}
}

// Record inserts a pairing for creds with a generated ID
func (r *PairingRepository) Record(creds *models.Credentials) (*Pairing, error) {
	if err := creds.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	p := &Pairing{
		ID:       shared.GenerateID(),
		ClientID: creds.ClientID,
		DeviceID: creds.Clone().DeviceID,
		PairedAt: time.Now(),
	}

	var deviceID any
	if p.DeviceID != nil {
		deviceID = *p.DeviceID
	}

	query := `INSERT INTO pairings (id, client_id, device_id, paired_at) VALUES (?, ?, ?, ?)`
	if _, err := r.db.Exec(query, p.ID, p.ClientID, deviceID, p.PairedAt); err != nil {
		return nil, fmt.Errorf("failed to insert pairing: %w", err)
	}

	return p, nil
}

// List retrieves pairings, most recent first
func (r *PairingRepository) List(limit int) ([]*Pairing, error) {
	query := `
		SELECT id, client_id, device_id, paired_at
		FROM pairings
		ORDER BY paired_at DESC
	`

	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query pairings: %w", err)
	}
	defer rows.Close()

	var pairings []*Pairing
	for rows.Next() {
		var (
			p        Pairing
			deviceID sql.NullString
		)

		if err := rows.Scan(&p.ID, &p.ClientID, &deviceID, &p.PairedAt); err != nil {
			return nil, fmt.Errorf("failed to scan pairing: %w", err)
		}

		if deviceID.Valid {
			id := deviceID.String
			p.DeviceID = &id
		}

		pairings = append(pairings, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return pairings, nil
}
