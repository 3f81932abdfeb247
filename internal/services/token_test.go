package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/desertthunder/spotpair/internal/models"
	"github.com/desertthunder/spotpair/internal/shared"
)

// tokenServer answers grants with body, recording the last form it received
func tokenServer(t *testing.T, status int, body string, form *url.Values) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("expected form content type, got %s", ct)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("failed to parse form: %v", err)
		}
		if form != nil {
			*form = r.PostForm
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestTokenExchange(t *testing.T) {
	t.Run("AuthCodeURL", func(t *testing.T) {
		te := NewTokenExchange(TokenExchangeOpts{})
		raw := te.AuthCodeURL("X", "http://192.168.0.10:8080/auth-response/", "state123")

		u, err := url.Parse(raw)
		if err != nil {
			t.Fatalf("invalid URL: %v", err)
		}
		if u.Host != "accounts.spotify.com" || u.Path != "/authorize" {
			t.Errorf("unexpected authorize endpoint %s", raw)
		}

		q := u.Query()
		want := map[string]string{
			"client_id":     "X",
			"response_type": "code",
			"redirect_uri":  "http://192.168.0.10:8080/auth-response/",
			"scope":         "user-read-playback-state user-modify-playback-state",
			"state":         "state123",
		}
		for k, v := range want {
			if got := q.Get(k); got != v {
				t.Errorf("expected %s=%q, got %q", k, v, got)
			}
		}
	})

	t.Run("ExchangeAuthorizationCode", func(t *testing.T) {
		t.Run("Success", func(t *testing.T) {
			var form url.Values
			srv := tokenServer(t, http.StatusOK, `{"access_token":"BQE","token_type":"Bearer","expires_in":3600,"refresh_token":"AQD","scope":"user-read-playback-state"}`, &form)
			te := NewTokenExchange(TokenExchangeOpts{TokenURL: srv.URL})

			creds, err := te.ExchangeAuthorizationCode(context.Background(), "the-code", "http://host/auth-response/", "cid", "csecret")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if creds.AccessToken != "BQE" || creds.RefreshToken != "AQD" {
				t.Errorf("unexpected tokens %+v", creds)
			}
			if creds.ClientID != "cid" || creds.ClientSecret != "csecret" {
				t.Errorf("unexpected client identity %+v", creds)
			}
			if creds.DeviceID != nil {
				t.Error("expected no device after exchange")
			}

			want := map[string]string{
				"grant_type":    "authorization_code",
				"code":          "the-code",
				"redirect_uri":  "http://host/auth-response/",
				"client_id":     "cid",
				"client_secret": "csecret",
			}
			for k, v := range want {
				if got := form.Get(k); got != v {
					t.Errorf("expected form %s=%q, got %q", k, v, got)
				}
			}
		})

		t.Run("Rejected", func(t *testing.T) {
			srv := tokenServer(t, http.StatusBadRequest, `{"error":"invalid_grant","error_description":"Invalid authorization code"}`, nil)
			te := NewTokenExchange(TokenExchangeOpts{TokenURL: srv.URL})

			_, err := te.ExchangeAuthorizationCode(context.Background(), "bad", "http://host/auth-response/", "cid", "csecret")

			var exErr *AuthExchangeError
			if !errors.As(err, &exErr) {
				t.Fatalf("expected AuthExchangeError, got %v", err)
			}
			if exErr.Status != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d", exErr.Status)
			}
			if !strings.Contains(exErr.Body, "invalid_grant") {
				t.Errorf("expected body to be kept, got %q", exErr.Body)
			}
		})

		t.Run("Unreachable", func(t *testing.T) {
			srv := httptest.NewServer(http.NotFoundHandler())
			srv.Close()
			te := NewTokenExchange(TokenExchangeOpts{TokenURL: srv.URL})

			_, err := te.ExchangeAuthorizationCode(context.Background(), "c", "r", "cid", "csecret")
			if !errors.Is(err, shared.ErrAuthFailed) {
				t.Errorf("expected ErrAuthFailed, got %v", err)
			}
		})
	})

	t.Run("Refresh", func(t *testing.T) {
		base := &models.Credentials{
			AccessToken:  "old-access",
			RefreshToken: "old-refresh",
			ClientID:     "cid",
			ClientSecret: "csecret",
		}
		base.SetDevice("dev-1")

		t.Run("Keeps Refresh Token", func(t *testing.T) {
			var form url.Values
			srv := tokenServer(t, http.StatusOK, `{"access_token":"new-access","token_type":"Bearer","expires_in":3600}`, &form)
			te := NewTokenExchange(TokenExchangeOpts{TokenURL: srv.URL})

			next, err := te.Refresh(context.Background(), base)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if next.AccessToken != "new-access" {
				t.Errorf("expected new access token, got %s", next.AccessToken)
			}
			if next.RefreshToken != "old-refresh" {
				t.Errorf("expected refresh token unchanged, got %s", next.RefreshToken)
			}
			if next.Device() != "dev-1" || next.ClientID != "cid" || next.ClientSecret != "csecret" {
				t.Errorf("expected other fields unchanged, got %+v", next)
			}
			if base.AccessToken != "old-access" {
				t.Error("refresh must not mutate its input")
			}

			if form.Get("grant_type") != "refresh_token" || form.Get("refresh_token") != "old-refresh" {
				t.Errorf("unexpected refresh form %v", form)
			}
			if form.Get("client_id") != "cid" || form.Get("client_secret") != "csecret" {
				t.Errorf("expected client credentials in body, got %v", form)
			}
		})

		t.Run("Rotates Refresh Token", func(t *testing.T) {
			srv := tokenServer(t, http.StatusOK, `{"access_token":"new-access","token_type":"Bearer","refresh_token":"new-refresh"}`, nil)
			te := NewTokenExchange(TokenExchangeOpts{TokenURL: srv.URL})

			next, err := te.Refresh(context.Background(), base)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if next.RefreshToken != "new-refresh" {
				t.Errorf("expected rotated refresh token, got %s", next.RefreshToken)
			}
		})

		t.Run("Rejected", func(t *testing.T) {
			srv := tokenServer(t, http.StatusBadRequest, `{"error":"invalid_grant","error_description":"Refresh token revoked"}`, nil)
			te := NewTokenExchange(TokenExchangeOpts{TokenURL: srv.URL})

			_, err := te.Refresh(context.Background(), base)
			var exErr *AuthExchangeError
			if !errors.As(err, &exErr) {
				t.Fatalf("expected AuthExchangeError, got %v", err)
			}
			if exErr.Status != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d", exErr.Status)
			}
		})

		t.Run("No Refresh Token", func(t *testing.T) {
			te := NewTokenExchange(TokenExchangeOpts{})
			if _, err := te.Refresh(context.Background(), &models.Credentials{}); !errors.Is(err, shared.ErrRefreshFailed) {
				t.Errorf("expected ErrRefreshFailed, got %v", err)
			}
		})
	})

	t.Run("From Config", func(t *testing.T) {
		cfg := shared.DefaultConfig()
		te := NewTokenExchangeFromConfig(cfg.Spotify, nil)
		if te.tokenURL != cfg.Spotify.TokenURL || te.authURL != cfg.Spotify.AuthURL {
			t.Errorf("expected configured endpoints, got %s %s", te.authURL, te.tokenURL)
		}
		if len(te.scopes) != len(cfg.Spotify.Scopes) {
			t.Errorf("expected configured scopes, got %v", te.scopes)
		}
	})
}
