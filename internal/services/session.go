package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/Jeffail/gabs/v2"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotpair/internal/models"
	"github.com/desertthunder/spotpair/internal/shared"
)

// Request is a single Web API call.
//
// Path is relative to the API base URL and may carry its own query string.
// Body is sent as JSON for PUT, POST and PATCH; nil sends an empty object.
type Request struct {
	Method string
	Path   string
	Body   *gabs.Container
}

// Session executes authenticated Web API calls and renews the access token on expiry.
type Session struct {
	mu        sync.Mutex
	creds     *models.Credentials
	store     models.CredentialStore
	exchanger TokenExchanger
	client    *http.Client
	baseURL   string
	logger    *log.Logger
}

// SessionOpts configures a [Session]. Credentials, Store and Exchanger are required.
type SessionOpts struct {
	Credentials *models.Credentials
	Store       models.CredentialStore
	Exchanger   TokenExchanger
	HTTPClient  *http.Client
	BaseURL     string
	Logger      *log.Logger
}

// NewSession creates a [Session] that owns a copy of opts.Credentials.
func NewSession(opts SessionOpts) (*Session, error) {
	if opts.Credentials == nil {
		return nil, fmt.Errorf("%w: credentials required", shared.ErrInvalidCredentials)
	}
	if opts.Store == nil || opts.Exchanger == nil {
		return nil, fmt.Errorf("%w: session requires a store and a token exchanger", shared.ErrInvalidInput)
	}

	s := &Session{
		creds:     opts.Credentials.Clone(),
		store:     opts.Store,
		exchanger: opts.Exchanger,
		client:    opts.HTTPClient,
		baseURL:   strings.TrimSuffix(opts.BaseURL, "/"),
		logger:    opts.Logger,
	}
	if s.client == nil {
		s.client = http.DefaultClient
	}
	if s.baseURL == "" {
		s.baseURL = spotifyBaseURL
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}

	return s, nil
}

// Credentials returns a copy of the current record.
func (s *Session) Credentials() *models.Credentials {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds.Clone()
}

// SetDeviceID retargets subsequent requests. An empty id targets the active device.
func (s *Session) SetDeviceID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds.SetDevice(id)
}

// SelectDevice retargets subsequent requests and persists the choice.
func (s *Session) SelectDevice(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creds.SetDevice(id)
	if err := s.store.Save(s.creds.Clone()); err != nil {
		return fmt.Errorf("failed to save device selection: %w", err)
	}
	return nil
}

// Execute sends req and returns the parsed body, or nil when the response has no body.
//
// An expired access token is refreshed and the request retried exactly once.
func (s *Session) Execute(ctx context.Context, req Request) (*gabs.Container, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	status, body, err := s.send(ctx, req)
	if err != nil {
		return nil, err
	}

	if status == http.StatusUnauthorized {
		if apiErr := parseAPIError(status, body); apiErr.Expired() {
			if err := s.refresh(ctx); err != nil {
				return nil, fmt.Errorf("%w: %w", apiErr, err)
			}

			status, body, err = s.send(ctx, req)
			if err != nil {
				return nil, err
			}
		}
	}

	if status >= http.StatusBadRequest {
		return nil, parseAPIError(status, body)
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}

	parsed, err := gabs.ParseJSON(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidResponse, err)
	}
	return parsed, nil
}

// refresh renews the access token and persists the result. A failed save is logged only.
func (s *Session) refresh(ctx context.Context) error {
	s.logger.Debug("access token expired, refreshing")

	next, err := s.exchanger.Refresh(ctx, s.creds)
	if err != nil {
		return err
	}

	next.DeviceID = s.creds.Clone().DeviceID
	s.creds = next

	if err := s.store.Save(s.creds.Clone()); err != nil {
		s.logger.Warn("failed to save refreshed credentials", "error", err)
	}

	return nil
}

func (s *Session) send(ctx context.Context, req Request) (int, []byte, error) {
	u, err := s.url(req.Path)
	if err != nil {
		return 0, nil, err
	}

	var (
		body        io.Reader
		contentType string
	)
	switch req.Method {
	case http.MethodPut, http.MethodPost, http.MethodPatch:
		payload := []byte("{}")
		if req.Body != nil {
			payload = req.Body.Bytes()
		}
		body = bytes.NewReader(payload)
		contentType = "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u, body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Authorization", "Bearer "+s.creds.AccessToken)
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}

	s.logger.Debug("api request", "method", req.Method, "path", req.Path, "status", resp.StatusCode)
	return resp.StatusCode, data, nil
}

// url resolves path against the base URL and appends device_id when a device is targeted.
func (s *Session) url(path string) (string, error) {
	u, err := url.Parse(s.baseURL + "/" + strings.TrimPrefix(path, "/"))
	if err != nil {
		return "", fmt.Errorf("%w: invalid path %q: %v", shared.ErrInvalidInput, path, err)
	}

	if id := s.creds.Device(); id != "" {
		q := u.Query()
		q.Set("device_id", id)
		u.RawQuery = q.Encode()
	}

	return u.String(), nil
}
