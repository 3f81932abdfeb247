// package testing contains shared testing utilities and test doubles for the credential store and token exchange
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/spotpair/internal/models"
	"github.com/desertthunder/spotpair/internal/shared"
)

// MockStore is an in-memory [models.CredentialStore]
type MockStore struct {
	mu      sync.Mutex
	creds   *models.Credentials
	saves   []*models.Credentials
	LoadErr error
	SaveErr error
}

// NewMockStore returns a store holding a copy of creds (nil for an empty store)
func NewMockStore(creds *models.Credentials) *MockStore {
	return &MockStore{creds: creds.Clone()}
}

func (m *MockStore) Load() (*models.Credentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	if m.creds == nil {
		return nil, shared.ErrCredentialsUnavailable
	}
	return m.creds.Clone(), nil
}

func (m *MockStore) Save(creds *models.Credentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves = append(m.saves, creds.Clone())
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.creds = creds.Clone()
	return nil
}

// Saved returns the last successfully stored record
func (m *MockStore) Saved() *models.Credentials {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creds.Clone()
}

// SaveCalls returns how many times Save was called, including failed calls
func (m *MockStore) SaveCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.saves)
}

// MockExchanger is a test double for the token exchange
type MockExchanger struct {
	mu           sync.Mutex
	ExchangeFunc func(code, redirectURI, clientID, clientSecret string) (*models.Credentials, error)
	RefreshFunc  func(creds *models.Credentials) (*models.Credentials, error)
	exchanges    int
	refreshes    int
}

func (m *MockExchanger) ExchangeAuthorizationCode(ctx context.Context, code, redirectURI, clientID, clientSecret string) (*models.Credentials, error) {
	m.mu.Lock()
	m.exchanges++
	m.mu.Unlock()
	if m.ExchangeFunc == nil {
		return &models.Credentials{
			AccessToken:  "access-" + code,
			RefreshToken: "refresh-" + code,
			ClientID:     clientID,
			ClientSecret: clientSecret,
		}, nil
	}
	return m.ExchangeFunc(code, redirectURI, clientID, clientSecret)
}

func (m *MockExchanger) Refresh(ctx context.Context, creds *models.Credentials) (*models.Credentials, error) {
	m.mu.Lock()
	m.refreshes++
	m.mu.Unlock()
	if m.RefreshFunc == nil {
		next := creds.Clone()
		next.AccessToken = "refreshed"
		return next, nil
	}
	return m.RefreshFunc(creds)
}

func (m *MockExchanger) AuthCodeURL(clientID, redirectURI, state string) string {
	q := url.Values{}
	q.Set("client_id", clientID)
	q.Set("redirect_uri", redirectURI)
	q.Set("response_type", "code")
	q.Set("state", state)
	return "https://accounts.example.com/authorize?" + q.Encode()
}

// Exchanges returns the number of authorization code exchanges
func (m *MockExchanger) Exchanges() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.exchanges
}

// Refreshes returns the number of refresh grants
func (m *MockExchanger) Refreshes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshes
}

// NewCredentials returns a valid record with an optional target device
func NewCredentials(deviceID string) *models.Credentials {
	creds := &models.Credentials{
		AccessToken:  "initial-access",
		RefreshToken: "initial-refresh",
		ClientID:     "client-id",
		ClientSecret: "client-secret",
	}
	creds.SetDevice(deviceID)
	return creds
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
