package server

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/desertthunder/spotpair/internal/models"
	"github.com/desertthunder/spotpair/internal/shared"
	tu "github.com/desertthunder/spotpair/internal/testing"
)

const devicesJSON = `{"devices":[
	{"id":"dev-fridge","is_active":false,"is_private_session":false,"is_restricted":false,"name":"My fridge","type":"Computer","volume_percent":100},
	{"id":"dev-speaker","is_active":true,"is_private_session":false,"is_restricted":false,"name":"Living Room","type":"Speaker","volume_percent":40}
]}`

type wizardFixture struct {
	wizard    *Wizard
	store     *tu.MockStore
	exchanger *tu.MockExchanger
	logs      *bytes.Buffer
	completed []*models.Credentials
}

func newWizardFixture(t *testing.T, defaults shared.SpotifyConfig) *wizardFixture {
	t.Helper()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/me/player/devices" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(devicesJSON))
	}))
	t.Cleanup(api.Close)

	f := &wizardFixture{
		store:     tu.NewMockStore(nil),
		exchanger: &tu.MockExchanger{},
		logs:      &bytes.Buffer{},
	}

	w, err := NewWizard(WizardOpts{
		Store:      f.store,
		Exchanger:  f.exchanger,
		HTTPClient: api.Client(),
		APIURL:     api.URL,
		Defaults:   defaults,
		Logger:     shared.NewLogger(f.logs),
		OnComplete: func(c *models.Credentials) { f.completed = append(f.completed, c) },
	})
	if err != nil {
		t.Fatalf("failed to create wizard: %v", err)
	}
	f.wizard = w
	return f
}

func (f *wizardFixture) do(method, target string, form url.Values) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req := httptest.NewRequest(method, target, body)
	req.Host = "192.168.1.20:8080"
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	rec := httptest.NewRecorder()
	f.wizard.ServeHTTP(rec, req)
	return rec
}

// authorize runs the flow up to the device list and returns the state token from the redirect
func (f *wizardFixture) authorize(t *testing.T) string {
	t.Helper()

	if rec := f.do(http.MethodGet, "/", nil); rec.Code != http.StatusOK {
		t.Fatalf("GET / returned %d", rec.Code)
	}

	rec := f.do(http.MethodPost, "/auth-request", url.Values{"client_id": {"X"}, "client_secret": {"Y"}})
	if rec.Code != http.StatusFound {
		t.Fatalf("POST /auth-request returned %d", rec.Code)
	}

	loc, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("invalid redirect: %v", err)
	}
	return loc.Query().Get("state")
}

func TestWizard(t *testing.T) {
	t.Run("Missing Host", func(t *testing.T) {
		f := newWizardFixture(t, shared.SpotifyConfig{})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Host = ""
		rec := httptest.NewRecorder()
		f.wizard.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		if strings.Contains(rec.Body.String(), "http:///auth-response/") {
			t.Error("expected no redirect URI without a host")
		}
		if f.wizard.State() != AwaitingBrowser {
			t.Errorf("expected AwaitingBrowser, got %s", f.wizard.State())
		}

		if rec := f.do(http.MethodGet, "/", nil); rec.Code != http.StatusOK {
			t.Errorf("expected 200 once a host is sent, got %d", rec.Code)
		}
	})

	t.Run("Full Flow", func(t *testing.T) {
		f := newWizardFixture(t, shared.SpotifyConfig{})

		rec := f.do(http.MethodGet, "/", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `name="client_id"`) {
			t.Error("expected client id form")
		}
		if !strings.Contains(rec.Body.String(), "http://192.168.1.20:8080/auth-response/") {
			t.Error("expected redirect URI to be shown")
		}
		if f.wizard.State() != AwaitingAuthorization {
			t.Fatalf("expected AwaitingAuthorization, got %s", f.wizard.State())
		}

		rec = f.do(http.MethodPost, "/auth-request", url.Values{"client_id": {"X"}, "client_secret": {"Y"}})
		if rec.Code != http.StatusFound {
			t.Fatalf("expected 302, got %d", rec.Code)
		}
		loc, _ := url.Parse(rec.Header().Get("Location"))
		if loc.Query().Get("client_id") != "X" {
			t.Errorf("expected client_id=X in redirect, got %s", loc)
		}
		if loc.Query().Get("redirect_uri") != "http://192.168.1.20:8080/auth-response/" {
			t.Errorf("unexpected redirect_uri in %s", loc)
		}
		state := loc.Query().Get("state")
		if len(state) != 32 {
			t.Errorf("expected 32 char state, got %q", state)
		}
		if f.wizard.State() != AwaitingDeviceChoice {
			t.Fatalf("expected AwaitingDeviceChoice, got %s", f.wizard.State())
		}

		rec = f.do(http.MethodGet, "/auth-response/?code=abc&state="+state, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		body := rec.Body.String()
		for _, want := range []string{"All devices", "My fridge", "Living Room", `value="dev-speaker"`} {
			if !strings.Contains(body, want) {
				t.Errorf("expected %q in device list", want)
			}
		}
		if f.exchanger.Exchanges() != 1 {
			t.Errorf("expected 1 exchange, got %d", f.exchanger.Exchanges())
		}
		if f.wizard.State() != Completing {
			t.Fatalf("expected Completing, got %s", f.wizard.State())
		}
		if f.wizard.Client() != nil {
			t.Error("client should not be available before completion")
		}

		select {
		case <-f.wizard.Done():
			t.Fatal("done closed too early")
		default:
		}

		rec = f.do(http.MethodPost, "/select-device", url.Values{"device_id": {"dev-speaker"}})
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Living Room") {
			t.Error("expected chosen device on success page")
		}

		saved := f.store.Saved()
		if saved == nil {
			t.Fatal("expected credentials saved")
		}
		if saved.Device() != "dev-speaker" || saved.ClientID != "X" || saved.ClientSecret != "Y" {
			t.Errorf("unexpected saved record %+v", saved)
		}
		if saved.AccessToken != "access-abc" || saved.RefreshToken != "refresh-abc" {
			t.Errorf("expected exchanged tokens, got %+v", saved)
		}

		select {
		case <-f.wizard.Done():
		default:
			t.Fatal("expected done to be closed")
		}
		if f.wizard.State() != Done {
			t.Errorf("expected Done, got %s", f.wizard.State())
		}
		client := f.wizard.Client()
		if client == nil {
			t.Fatal("expected client after completion")
		}
		if client.Session().Credentials().Device() != "dev-speaker" {
			t.Error("expected live session retargeted")
		}
		if len(f.completed) != 1 {
			t.Errorf("expected OnComplete once, got %d", len(f.completed))
		}
	})

	t.Run("All Devices Persists Null", func(t *testing.T) {
		f := newWizardFixture(t, shared.SpotifyConfig{})
		state := f.authorize(t)

		f.do(http.MethodGet, "/auth-response?code=abc&state="+state, nil)
		rec := f.do(http.MethodPost, "/select-device", url.Values{"device_id": {""}})
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		if saved := f.store.Saved(); saved == nil || saved.DeviceID != nil {
			t.Errorf("expected nil device persisted, got %+v", saved)
		}
	})

	t.Run("Out Of Order Requests", func(t *testing.T) {
		tc := []struct {
			name   string
			method string
			target string
			form   url.Values
		}{
			{name: "select before authorize", method: http.MethodPost, target: "/select-device", form: url.Values{"device_id": {""}}},
			{name: "auth response first", method: http.MethodGet, target: "/auth-response/?code=abc", form: nil},
			{name: "auth request first", method: http.MethodPost, target: "/auth-request", form: url.Values{"client_id": {"X"}, "client_secret": {"Y"}}},
			{name: "unknown path", method: http.MethodGet, target: "/favicon.ico", form: nil},
			{name: "wrong method", method: http.MethodPost, target: "/", form: url.Values{}},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				f := newWizardFixture(t, shared.SpotifyConfig{})
				rec := f.do(tt.method, tt.target, tt.form)
				if rec.Code != http.StatusNotFound {
					t.Errorf("expected 404, got %d", rec.Code)
				}
				if f.wizard.State() != AwaitingBrowser {
					t.Errorf("expected state unchanged, got %s", f.wizard.State())
				}
			})
		}

		t.Run("root again after form", func(t *testing.T) {
			f := newWizardFixture(t, shared.SpotifyConfig{})
			f.do(http.MethodGet, "/", nil)
			if rec := f.do(http.MethodGet, "/", nil); rec.Code != http.StatusNotFound {
				t.Errorf("expected 404, got %d", rec.Code)
			}
			if f.wizard.State() != AwaitingAuthorization {
				t.Errorf("expected AwaitingAuthorization, got %s", f.wizard.State())
			}
		})

		t.Run("anything after done", func(t *testing.T) {
			f := newWizardFixture(t, shared.SpotifyConfig{})
			state := f.authorize(t)
			f.do(http.MethodGet, "/auth-response/?code=abc&state="+state, nil)
			f.do(http.MethodPost, "/select-device", url.Values{"device_id": {""}})

			if rec := f.do(http.MethodGet, "/", nil); rec.Code != http.StatusNotFound {
				t.Errorf("expected 404 after done, got %d", rec.Code)
			}
		})
	})

	t.Run("Missing Client Fields", func(t *testing.T) {
		tc := []struct {
			name string
			form url.Values
		}{
			{name: "no fields", form: url.Values{}},
			{name: "no secret", form: url.Values{"client_id": {"X"}}},
			{name: "blank id", form: url.Values{"client_id": {"  "}, "client_secret": {"Y"}}},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				f := newWizardFixture(t, shared.SpotifyConfig{})
				f.do(http.MethodGet, "/", nil)

				rec := f.do(http.MethodPost, "/auth-request", tt.form)
				if rec.Code != http.StatusBadRequest {
					t.Errorf("expected 400, got %d", rec.Code)
				}
				if f.wizard.State() != AwaitingAuthorization {
					t.Errorf("expected state unchanged, got %s", f.wizard.State())
				}
			})
		}
	})

	t.Run("State Mismatch", func(t *testing.T) {
		f := newWizardFixture(t, shared.SpotifyConfig{})
		state := f.authorize(t)

		rec := f.do(http.MethodGet, "/auth-response/?code=abc&state=forged", nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if f.exchanger.Exchanges() != 0 {
			t.Error("must not exchange on state mismatch")
		}
		if f.wizard.State() != AwaitingDeviceChoice {
			t.Errorf("expected state unchanged, got %s", f.wizard.State())
		}

		if rec := f.do(http.MethodGet, "/auth-response/?code=abc&state="+state, nil); rec.Code != http.StatusOK {
			t.Errorf("genuine callback should still succeed, got %d", rec.Code)
		}
	})

	t.Run("Missing Code", func(t *testing.T) {
		f := newWizardFixture(t, shared.SpotifyConfig{})
		state := f.authorize(t)

		if rec := f.do(http.MethodGet, "/auth-response/?state="+state, nil); rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if f.wizard.State() != AwaitingDeviceChoice {
			t.Errorf("expected state unchanged, got %s", f.wizard.State())
		}
	})

	t.Run("Authorization Denied", func(t *testing.T) {
		f := newWizardFixture(t, shared.SpotifyConfig{})
		state := f.authorize(t)

		rec := f.do(http.MethodGet, "/auth-response/?error=access_denied&state="+state, nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "access_denied") {
			t.Error("expected reason on error page")
		}
		if f.wizard.State() != AwaitingBrowser {
			t.Errorf("expected reset to AwaitingBrowser, got %s", f.wizard.State())
		}
	})

	t.Run("Exchange Failure", func(t *testing.T) {
		f := newWizardFixture(t, shared.SpotifyConfig{})
		f.exchanger.ExchangeFunc = func(code, redirectURI, clientID, clientSecret string) (*models.Credentials, error) {
			return nil, errors.New("invalid_client")
		}
		state := f.authorize(t)

		rec := f.do(http.MethodGet, "/auth-response/?code=abc&state="+state, nil)
		if rec.Code != http.StatusBadGateway {
			t.Errorf("expected 502, got %d", rec.Code)
		}
		if f.wizard.State() != AwaitingBrowser {
			t.Errorf("expected reset to AwaitingBrowser, got %s", f.wizard.State())
		}
		if f.store.SaveCalls() != 0 {
			t.Error("nothing should be saved after a failed exchange")
		}

		if rec := f.do(http.MethodGet, "/", nil); rec.Code != http.StatusOK {
			t.Errorf("expected flow to restart, got %d", rec.Code)
		}
	})

	t.Run("Missing Device Field", func(t *testing.T) {
		f := newWizardFixture(t, shared.SpotifyConfig{})
		state := f.authorize(t)
		f.do(http.MethodGet, "/auth-response/?code=abc&state="+state, nil)

		if rec := f.do(http.MethodPost, "/select-device", url.Values{}); rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if f.wizard.State() != Completing {
			t.Errorf("expected state unchanged, got %s", f.wizard.State())
		}
	})

	t.Run("Save Failure Still Completes", func(t *testing.T) {
		f := newWizardFixture(t, shared.SpotifyConfig{})
		f.store.SaveErr = errors.New("read-only filesystem")
		state := f.authorize(t)
		f.do(http.MethodGet, "/auth-response/?code=abc&state="+state, nil)

		if rec := f.do(http.MethodPost, "/select-device", url.Values{"device_id": {"dev-fridge"}}); rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
		if f.wizard.State() != Done {
			t.Errorf("expected Done, got %s", f.wizard.State())
		}
		if !strings.Contains(f.logs.String(), "read-only filesystem") {
			t.Error("expected save failure to be logged")
		}
	})

	t.Run("Defaults Prefill", func(t *testing.T) {
		f := newWizardFixture(t, shared.SpotifyConfig{ClientID: "default-id", ClientSecret: "default-secret", DeviceID: "dev-fridge"})

		rec := f.do(http.MethodGet, "/", nil)
		if !strings.Contains(rec.Body.String(), `value="default-id"`) {
			t.Error("expected client id prefilled")
		}

		rec = f.do(http.MethodPost, "/auth-request", url.Values{"client_id": {"default-id"}, "client_secret": {"default-secret"}})
		loc, _ := url.Parse(rec.Header().Get("Location"))

		rec = f.do(http.MethodGet, "/auth-response/?code=abc&state="+loc.Query().Get("state"), nil)
		if !strings.Contains(rec.Body.String(), `value="dev-fridge" checked`) {
			t.Errorf("expected default device checked, got %s", rec.Body.String())
		}
		if strings.Contains(rec.Body.String(), `value="" checked`) {
			t.Error("All devices should not be checked when a default device is listed")
		}
	})
}

func TestNewWizard(t *testing.T) {
	if _, err := NewWizard(WizardOpts{}); !errors.Is(err, shared.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestStateString(t *testing.T) {
	tc := []struct {
		state State
		want  string
	}{
		{AwaitingBrowser, "awaiting browser"},
		{AwaitingAuthorization, "awaiting authorization"},
		{AwaitingDeviceChoice, "awaiting device choice"},
		{Completing, "completing"},
		{Done, "done"},
		{State(42), "State(42)"},
	}

	for _, tt := range tc {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("expected %q, got %q", tt.want, got)
		}
	}
}
