package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/desertthunder/spotpair/internal/models"
	"github.com/desertthunder/spotpair/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
)

// DefaultScopes are the scopes needed to read devices and control playback.
var DefaultScopes = []string{"user-read-playback-state", "user-modify-playback-state"}

// TokenExchange implements [TokenExchanger] with [oauth2.Config].
type TokenExchange struct {
	authURL    string
	tokenURL   string
	scopes     []string
	httpClient *http.Client
}

// TokenExchangeOpts configures a [TokenExchange]. Zero values use the Spotify defaults.
type TokenExchangeOpts struct {
	AuthURL    string
	TokenURL   string
	Scopes     []string
	HTTPClient *http.Client
}

// NewTokenExchange creates a [TokenExchange].
func NewTokenExchange(opts TokenExchangeOpts) *TokenExchange {
	t := &TokenExchange{
		authURL:    opts.AuthURL,
		tokenURL:   opts.TokenURL,
		scopes:     opts.Scopes,
		httpClient: opts.HTTPClient,
	}
	if t.authURL == "" {
		t.authURL = spotifyAuthURL
	}
	if t.tokenURL == "" {
		t.tokenURL = spotifyTokenURL
	}
	if len(t.scopes) == 0 {
		t.scopes = DefaultScopes
	}
	if t.httpClient == nil {
		t.httpClient = http.DefaultClient
	}
	return t
}

// NewTokenExchangeFromConfig creates a [TokenExchange] for the configured endpoints.
func NewTokenExchangeFromConfig(cfg shared.SpotifyAPIConfig, client *http.Client) *TokenExchange {
	return NewTokenExchange(TokenExchangeOpts{
		AuthURL:    cfg.AuthURL,
		TokenURL:   cfg.TokenURL,
		Scopes:     cfg.Scopes,
		HTTPClient: client,
	})
}

func (t *TokenExchange) config(clientID, clientSecret, redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes:       t.scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   t.authURL,
			TokenURL:  t.tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

func (t *TokenExchange) context(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, t.httpClient)
}

// AuthCodeURL builds the authorize redirect for clientID.
func (t *TokenExchange) AuthCodeURL(clientID, redirectURI, state string) string {
	return t.config(clientID, "", redirectURI).AuthCodeURL(state)
}

// ExchangeAuthorizationCode trades code for tokens.
func (t *TokenExchange) ExchangeAuthorizationCode(ctx context.Context, code, redirectURI, clientID, clientSecret string) (*models.Credentials, error) {
	token, err := t.config(clientID, clientSecret, redirectURI).Exchange(t.context(ctx), code)
	if err != nil {
		return nil, exchangeError(err)
	}

	return &models.Credentials{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ClientID:     clientID,
		ClientSecret: clientSecret,
	}, nil
}

// Refresh obtains a new access token using the stored refresh token.
func (t *TokenExchange) Refresh(ctx context.Context, creds *models.Credentials) (*models.Credentials, error) {
	if creds == nil || creds.RefreshToken == "" {
		return nil, fmt.Errorf("%w: no refresh token", shared.ErrRefreshFailed)
	}

	src := t.config(creds.ClientID, creds.ClientSecret, "").TokenSource(t.context(ctx), &oauth2.Token{RefreshToken: creds.RefreshToken})
	token, err := src.Token()
	if err != nil {
		return nil, exchangeError(err)
	}

	next := creds.Clone()
	next.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		next.RefreshToken = token.RefreshToken
	}

	return next, nil
}

// exchangeError maps oauth2's RetrieveError to [AuthExchangeError].
func exchangeError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		status := 0
		if re.Response != nil {
			status = re.Response.StatusCode
		}
		return &AuthExchangeError{Status: status, Body: string(re.Body)}
	}
	return fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
}
