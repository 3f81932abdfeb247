// package models defines the data model for the playback pairing service
package models

import (
	"encoding/json"
	"fmt"

	"github.com/desertthunder/spotpair/internal/shared"
	"github.com/hashicorp/go-multierror"
)

// Credentials is the persisted OAuth2 record for the device.
//
// DeviceID is nil when commands should go to whichever device is currently active.
type Credentials struct {
	AccessToken  string  `json:"access_token"`
	RefreshToken string  `json:"refresh_token"`
	ClientID     string  `json:"client_id"`
	ClientSecret string  `json:"client_secret"`
	DeviceID     *string `json:"device_id"`
}

// CredentialStore loads and persists the single [Credentials] record.
type CredentialStore interface {
	// Load returns an error wrapping [shared.ErrCredentialsUnavailable] when the record is missing or invalid.
	Load() (*Credentials, error)
	// Save replaces the record. A subsequent Load never observes a partial write.
	Save(creds *Credentials) error
}

var requiredKeys = []string{"refresh_token", "client_id", "client_secret", "device_id"}

// ParseCredentials decodes a JSON record and validates it.
//
// All of refresh_token, client_id, client_secret and device_id must be present; device_id may be null.
func ParseCredentials(data []byte) (*Credentials, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrCredentialsUnavailable, err)
	}

	var result *multierror.Error
	for _, key := range requiredKeys {
		if _, ok := raw[key]; !ok {
			result = multierror.Append(result, fmt.Errorf("missing %s", key))
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrCredentialsUnavailable, err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrCredentialsUnavailable, err)
	}

	if err := creds.Validate(); err != nil {
		return nil, err
	}

	return &creds, nil
}

// Validate reports every empty required field.
func (c *Credentials) Validate() error {
	var result *multierror.Error
	if c.RefreshToken == "" {
		result = multierror.Append(result, fmt.Errorf("empty refresh_token"))
	}
	if c.ClientID == "" {
		result = multierror.Append(result, fmt.Errorf("empty client_id"))
	}
	if c.ClientSecret == "" {
		result = multierror.Append(result, fmt.Errorf("empty client_secret"))
	}
	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrCredentialsUnavailable, err)
	}
	return nil
}

// Clone returns a deep copy.
func (c *Credentials) Clone() *Credentials {
	if c == nil {
		return nil
	}
	clone := *c
	if c.DeviceID != nil {
		id := *c.DeviceID
		clone.DeviceID = &id
	}
	return &clone
}

// Device returns the target device id, or "" for the active device.
func (c *Credentials) Device() string {
	if c == nil || c.DeviceID == nil {
		return ""
	}
	return *c.DeviceID
}

// SetDevice sets the target device. An empty id clears it.
func (c *Credentials) SetDevice(id string) {
	if id == "" {
		c.DeviceID = nil
		return
	}
	c.DeviceID = &id
}

// Device is a playback endpoint as reported by GET /me/player/devices.
type Device struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Type             string `json:"type"`
	IsActive         bool   `json:"is_active"`
	IsPrivateSession bool   `json:"is_private_session"`
	IsRestricted     bool   `json:"is_restricted"`
	VolumePercent    *int   `json:"volume_percent"`
}

// Volume returns the volume percentage, or -1 when the device does not report one.
func (d Device) Volume() int {
	if d.VolumePercent == nil {
		return -1
	}
	return *d.VolumePercent
}

func (d Device) String() string {
	return fmt.Sprintf("Device(name=%s, type=%s, id=%s)", d.Name, d.Type, d.ID)
}
