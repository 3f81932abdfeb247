// package services defines the playback interfaces and their Spotify Web API implementation
package services

import (
	"context"
	"iter"

	"github.com/desertthunder/spotpair/internal/models"
)

// Player controls playback on the paired account.
type Player interface {
	// Play starts or resumes playback. Only the fields set in opts are sent.
	Play(ctx context.Context, opts PlayOptions) error

	// Pause pauses playback.
	Pause(ctx context.Context) error

	// Devices lists the devices currently available to the account.
	// The returned sequence can be ranged over more than once; each call to Devices issues a new request.
	Devices(ctx context.Context) (iter.Seq[models.Device], error)
}

// TokenExchanger performs the OAuth2 grants against the token endpoint.
type TokenExchanger interface {
	// ExchangeAuthorizationCode trades an authorization code for credentials with no target device.
	ExchangeAuthorizationCode(ctx context.Context, code, redirectURI, clientID, clientSecret string) (*models.Credentials, error)

	// Refresh returns a copy of creds with a new access token, and a new refresh token when one was issued.
	Refresh(ctx context.Context, creds *models.Credentials) (*models.Credentials, error)

	// AuthCodeURL builds the browser redirect to the authorize endpoint.
	AuthCodeURL(clientID, redirectURI, state string) string
}

// PlayOptions are the optional fields of a play request.
type PlayOptions struct {
	ContextURI string
	URIs       []string
	Offset     *Offset
	PositionMS *int
}

// Offset selects where in the context or URI list playback starts.
type Offset struct {
	Position *int
	URI      string
}
