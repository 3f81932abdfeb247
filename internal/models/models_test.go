package models

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/desertthunder/spotpair/internal/shared"
)

func TestParseCredentials(t *testing.T) {
	t.Run("Valid Records", func(t *testing.T) {
		tc := []struct {
			name     string
			content  string
			deviceID *string
		}{
			{
				name: "device id null",
				content: `{
					"refresh_token": "AQD...",
					"access_token": "BQE...",
					"device_id": null,
					"client_secret": "29f...",
					"client_id": "17c..."
				}`,
			},
			{
				name:     "device id set",
				content:  `{"refresh_token":"r","access_token":"a","device_id":"abc","client_secret":"s","client_id":"c"}`,
				deviceID: ptr("abc"),
			},
			{
				name:    "access token missing",
				content: `{"refresh_token":"r","device_id":null,"client_secret":"s","client_id":"c"}`,
			},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				creds, err := ParseCredentials([]byte(tt.content))
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if creds.RefreshToken == "" || creds.ClientID == "" || creds.ClientSecret == "" {
					t.Errorf("expected required fields intact, got %+v", creds)
				}
				if (tt.deviceID == nil) != (creds.DeviceID == nil) {
					t.Fatalf("expected device id %v, got %v", tt.deviceID, creds.DeviceID)
				}
				if tt.deviceID != nil && *creds.DeviceID != *tt.deviceID {
					t.Errorf("expected device id %s, got %s", *tt.deviceID, *creds.DeviceID)
				}
			})
		}
	})

	t.Run("Invalid Records", func(t *testing.T) {
		tc := []struct {
			name    string
			content string
			wantMsg string
		}{
			{name: "empty", content: ``},
			{name: "not json", content: `refresh_token=abc`},
			{name: "json array", content: `[]`},
			{name: "missing device id key", content: `{"refresh_token":"r","client_secret":"s","client_id":"c"}`, wantMsg: "missing device_id"},
			{name: "missing several keys", content: `{"device_id":null}`, wantMsg: "missing client_id"},
			{name: "empty refresh token", content: `{"refresh_token":"","client_secret":"s","client_id":"c","device_id":null}`, wantMsg: "empty refresh_token"},
			{name: "empty client secret", content: `{"refresh_token":"r","client_secret":"","client_id":"c","device_id":null}`, wantMsg: "empty client_secret"},
			{name: "wrong type", content: `{"refresh_token":1,"client_secret":"s","client_id":"c","device_id":null}`},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				creds, err := ParseCredentials([]byte(tt.content))
				if err == nil {
					t.Fatalf("expected error, got %+v", creds)
				}
				if !errors.Is(err, shared.ErrCredentialsUnavailable) {
					t.Errorf("expected ErrCredentialsUnavailable, got %v", err)
				}
				if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
					t.Errorf("expected error to mention %q, got %v", tt.wantMsg, err)
				}
			})
		}
	})
}

func TestCredentials(t *testing.T) {
	t.Run("Marshal Keeps Null Device", func(t *testing.T) {
		data, err := json.Marshal(&Credentials{AccessToken: "a", RefreshToken: "r", ClientID: "c", ClientSecret: "s"})
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		if !strings.Contains(string(data), `"device_id":null`) {
			t.Errorf("expected explicit null device_id, got %s", data)
		}

		if _, err := ParseCredentials(data); err != nil {
			t.Errorf("marshalled record should parse back, got %v", err)
		}
	})

	t.Run("Clone Is Deep", func(t *testing.T) {
		orig := &Credentials{RefreshToken: "r", DeviceID: ptr("abc")}
		clone := orig.Clone()
		clone.SetDevice("xyz")
		clone.RefreshToken = "changed"

		if orig.Device() != "abc" || orig.RefreshToken != "r" {
			t.Errorf("clone mutated original: %+v", orig)
		}
	})

	t.Run("SetDevice Empty Clears", func(t *testing.T) {
		c := &Credentials{DeviceID: ptr("abc")}
		c.SetDevice("")
		if c.DeviceID != nil {
			t.Error("expected device id to be cleared")
		}
		if c.Device() != "" {
			t.Errorf("expected empty device, got %q", c.Device())
		}
	})

	t.Run("Nil Clone", func(t *testing.T) {
		var c *Credentials
		if c.Clone() != nil {
			t.Error("expected nil clone")
		}
	})
}

func TestDevice(t *testing.T) {
	var d Device
	content := `{
		"id": "5fbb3ba6aa454b5534c4ba43a8c7e8e45a63ad0e",
		"is_active": false,
		"is_private_session": true,
		"is_restricted": false,
		"name": "My fridge",
		"type": "Computer",
		"volume_percent": 100
	}`
	if err := json.Unmarshal([]byte(content), &d); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if d.Name != "My fridge" || d.Type != "Computer" || !d.IsPrivateSession || d.IsActive {
		t.Errorf("unexpected device %+v", d)
	}
	if d.Volume() != 100 {
		t.Errorf("expected volume 100, got %d", d.Volume())
	}
	if (Device{}).Volume() != -1 {
		t.Error("expected -1 for missing volume")
	}
	if !strings.Contains(d.String(), "My fridge") {
		t.Errorf("unexpected String() %s", d.String())
	}
}

func ptr(s string) *string { return &s }
