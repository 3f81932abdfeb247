// Spotify Web API implementation of [Player]
//
// Endpoint reference: https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"net/http"
	"slices"

	"github.com/Jeffail/gabs/v2"
	"github.com/desertthunder/spotpair/internal/models"
	"github.com/desertthunder/spotpair/internal/shared"
)

const (
	playPath    = "/me/player/play"
	pausePath   = "/me/player/pause"
	devicesPath = "/me/player/devices"
)

// SpotifyService implements [Player] over a [Session].
type SpotifyService struct {
	session *Session
}

// NewSpotifyService creates a [SpotifyService] using session for every call.
func NewSpotifyService(session *Session) *SpotifyService {
	return &SpotifyService{session: session}
}

// Session returns the underlying session.
func (s *SpotifyService) Session() *Session { return s.session }

// Name returns the name of the service
func (s *SpotifyService) Name() string { return "Spotify" }

// Play starts playback with the provided options.
func (s *SpotifyService) Play(ctx context.Context, opts PlayOptions) error {
	body, err := playBody(opts)
	if err != nil {
		return err
	}

	_, err = s.session.Execute(ctx, Request{Method: http.MethodPut, Path: playPath, Body: body})
	return err
}

// Pause pauses playback.
func (s *SpotifyService) Pause(ctx context.Context) error {
	_, err := s.session.Execute(ctx, Request{Method: http.MethodPut, Path: pausePath})
	return err
}

// Devices lists the available devices.
func (s *SpotifyService) Devices(ctx context.Context) (iter.Seq[models.Device], error) {
	resp, err := s.session.Execute(ctx, Request{Method: http.MethodGet, Path: devicesPath})
	if err != nil {
		return nil, err
	}
	if resp == nil || !resp.Exists("devices") {
		return nil, fmt.Errorf("%w: missing devices", shared.ErrInvalidResponse)
	}

	var devices []models.Device
	if err := json.Unmarshal(resp.S("devices").Bytes(), &devices); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidResponse, err)
	}

	return slices.Values(devices), nil
}

// FindDevice returns the device whose id or name matches query.
func (s *SpotifyService) FindDevice(ctx context.Context, query string) (*models.Device, error) {
	devices, err := s.Devices(ctx)
	if err != nil {
		return nil, err
	}

	for d := range devices {
		if d.ID == query || d.Name == query {
			return &d, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", shared.ErrDeviceNotFound, query)
}

// playBody builds a JSON object holding only the fields set in opts.
func playBody(opts PlayOptions) (*gabs.Container, error) {
	body := gabs.New()

	if opts.ContextURI != "" {
		if _, err := body.Set(opts.ContextURI, "context_uri"); err != nil {
			return nil, err
		}
	}
	if opts.URIs != nil {
		if _, err := body.Set(slices.Clone(opts.URIs), "uris"); err != nil {
			return nil, err
		}
	}
	if opts.Offset != nil {
		offset := gabs.New()
		if opts.Offset.Position != nil {
			if _, err := offset.Set(*opts.Offset.Position, "position"); err != nil {
				return nil, err
			}
		}
		if opts.Offset.URI != "" {
			if _, err := offset.Set(opts.Offset.URI, "uri"); err != nil {
				return nil, err
			}
		}
		if _, err := body.Set(offset.Data(), "offset"); err != nil {
			return nil, err
		}
	}
	if opts.PositionMS != nil {
		if _, err := body.Set(*opts.PositionMS, "position_ms"); err != nil {
			return nil, err
		}
	}

	return body, nil
}
