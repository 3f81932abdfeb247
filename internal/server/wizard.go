package server

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"net"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotpair/internal/models"
	"github.com/desertthunder/spotpair/internal/services"
	"github.com/desertthunder/spotpair/internal/shared"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = parsePages("credentials.html", "devices.html", "success.html", "error.html")

func parsePages(names ...string) map[string]*template.Template {
	pages := make(map[string]*template.Template, len(names))
	for _, name := range names {
		pages[name] = template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/"+name))
	}
	return pages
}

// State is a step of the pairing flow.
type State int

const (
	AwaitingBrowser State = iota
	AwaitingAuthorization
	AwaitingDeviceChoice
	Completing
	Done
)

func (s State) String() string {
	switch s {
	case AwaitingBrowser:
		return "awaiting browser"
	case AwaitingAuthorization:
		return "awaiting authorization"
	case AwaitingDeviceChoice:
		return "awaiting device choice"
	case Completing:
		return "completing"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// pairingSession is the data collected during one run of the flow.
type pairingSession struct {
	redirectURI  string
	clientID     string
	clientSecret string
	state        string
	code         string
	credentials  *models.Credentials
	devices      []models.Device
	deviceID     string
}

// WizardOpts configures a [Wizard]. Store and Exchanger are required.
type WizardOpts struct {
	Store      models.CredentialStore
	Exchanger  services.TokenExchanger
	HTTPClient *http.Client
	APIURL     string
	Defaults   shared.SpotifyConfig
	Logger     *log.Logger

	// OnComplete is called with the saved record once the device is chosen.
	OnComplete func(*models.Credentials)
}

// Wizard is the pairing state machine.
type Wizard struct {
	opts   WizardOpts
	logger *log.Logger

	mu      sync.Mutex
	state   State
	session pairingSession
	client  *services.SpotifyService

	done     chan struct{}
	doneOnce sync.Once
}

// NewWizard creates a [Wizard] in [AwaitingBrowser].
func NewWizard(opts WizardOpts) (*Wizard, error) {
	if opts.Store == nil || opts.Exchanger == nil {
		return nil, fmt.Errorf("%w: wizard requires a store and a token exchanger", shared.ErrInvalidInput)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &Wizard{
		opts:   opts,
		logger: logger,
		state:  AwaitingBrowser,
		done:   make(chan struct{}),
	}, nil
}

// Routes returns the HTTP routes this handler serves.
func (w *Wizard) Routes() []string {
	return []string{"/"}
}

// State returns the current step.
func (w *Wizard) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Done is closed once the device choice has been handled.
func (w *Wizard) Done() <-chan struct{} {
	return w.done
}

// Client returns the configured player, or nil before [Done].
func (w *Wizard) Client() *services.SpotifyService {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != Done {
		return nil
	}
	return w.client
}

// ServeHTTP dispatches r to the handler of the current state.
func (w *Wizard) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch {
	case w.state == AwaitingBrowser && r.Method == http.MethodGet && r.URL.Path == "/":
		w.serveCredentialsForm(rw, r)
	case w.state == AwaitingAuthorization && r.Method == http.MethodPost && r.URL.Path == "/auth-request":
		w.handleAuthRequest(rw, r)
	case w.state == AwaitingDeviceChoice && r.Method == http.MethodGet && isAuthResponse(r.URL.Path):
		w.handleAuthResponse(rw, r)
	case w.state == Completing && r.Method == http.MethodPost && r.URL.Path == "/select-device":
		w.handleSelectDevice(rw, r)
	default:
		w.logger.Debug("unexpected request", "state", w.state, "method", r.Method, "path", r.URL.Path)
		http.NotFound(rw, r)
	}
}

func isAuthResponse(path string) bool {
	return path == "/auth-response" || path == "/auth-response/"
}

func (w *Wizard) serveCredentialsForm(rw http.ResponseWriter, r *http.Request) {
	if r.Host == "" {
		w.renderError(rw, http.StatusBadRequest, "Missing Host header", "The pairing address cannot be determined without a Host header.", false)
		return
	}

	w.session = pairingSession{
		redirectURI: "http://" + r.Host + "/auth-response/",
		state:       shared.GenerateState(),
	}

	w.render(rw, http.StatusOK, "credentials.html", pageData{
		Title:        "Pair this device",
		RedirectURI:  w.session.redirectURI,
		ClientID:     w.opts.Defaults.ClientID,
		ClientSecret: w.opts.Defaults.ClientSecret,
	})
	w.transition(AwaitingAuthorization)
}

func (w *Wizard) handleAuthRequest(rw http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		w.renderError(rw, http.StatusBadRequest, "Invalid form", err.Error(), false)
		return
	}

	clientID := strings.TrimSpace(r.PostForm.Get("client_id"))
	clientSecret := strings.TrimSpace(r.PostForm.Get("client_secret"))
	if clientID == "" || clientSecret == "" {
		w.renderError(rw, http.StatusBadRequest, "Missing credentials", "Both client_id and client_secret are required.", false)
		return
	}

	w.session.clientID = clientID
	w.session.clientSecret = clientSecret

	target := w.opts.Exchanger.AuthCodeURL(clientID, w.session.redirectURI, w.session.state)
	http.Redirect(rw, r, target, http.StatusFound)
	w.transition(AwaitingDeviceChoice)
}

func (w *Wizard) handleAuthResponse(rw http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if q.Get("state") != w.session.state {
		w.logger.Warn("oauth state mismatch", "error", shared.ErrStateMismatch)
		w.renderError(rw, http.StatusBadRequest, "Invalid state", "The authorization response does not belong to this pairing attempt.", false)
		return
	}

	if reason := q.Get("error"); reason != "" {
		w.logger.Warn("authorization denied", "reason", reason)
		w.reset()
		w.renderError(rw, http.StatusBadRequest, "Authorization denied", "Spotify returned: "+reason, true)
		return
	}

	code := q.Get("code")
	if code == "" {
		w.renderError(rw, http.StatusBadRequest, "Missing code", "The authorization response carried no code.", false)
		return
	}
	w.session.code = code

	creds, err := w.opts.Exchanger.ExchangeAuthorizationCode(r.Context(), code, w.session.redirectURI, w.session.clientID, w.session.clientSecret)
	if err != nil {
		w.logger.Error("authorization code exchange failed", "error", err)
		w.reset()
		w.renderError(rw, http.StatusBadGateway, "Token exchange failed", err.Error(), true)
		return
	}

	session, err := services.NewSession(services.SessionOpts{
		Credentials: creds,
		Store:       w.opts.Store,
		Exchanger:   w.opts.Exchanger,
		HTTPClient:  w.opts.HTTPClient,
		BaseURL:     w.opts.APIURL,
		Logger:      shared.WithLogger(w.logger, "component", "session"),
	})
	if err != nil {
		w.logger.Error("failed to create session", "error", err)
		w.reset()
		w.renderError(rw, http.StatusBadGateway, "Token exchange failed", err.Error(), true)
		return
	}

	w.session.credentials = creds
	w.client = services.NewSpotifyService(session)

	data := pageData{Title: "Choose a device", Selected: w.opts.Defaults.DeviceID}

	devices, err := w.client.Devices(r.Context())
	if err != nil {
		w.logger.Warn("failed to list devices", "error", err)
		data.Warning = "Could not list devices: " + err.Error()
	} else {
		w.session.devices = slices.Collect(devices)
		data.Devices = w.session.devices
	}

	if data.Selected != "" && !slices.ContainsFunc(data.Devices, func(d models.Device) bool { return d.ID == data.Selected }) {
		data.Selected = ""
	}

	w.render(rw, http.StatusOK, "devices.html", data)
	w.transition(Completing)
}

func (w *Wizard) handleSelectDevice(rw http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		w.renderError(rw, http.StatusBadRequest, "Invalid form", err.Error(), false)
		return
	}
	if _, ok := r.PostForm["device_id"]; !ok {
		w.renderError(rw, http.StatusBadRequest, "Missing device", "Choose a device or All devices.", false)
		return
	}

	deviceID := strings.TrimSpace(r.PostForm.Get("device_id"))
	w.session.deviceID = deviceID

	session := w.client.Session()
	session.SetDeviceID(deviceID)

	creds := session.Credentials()
	w.session.credentials = creds
	if err := w.opts.Store.Save(creds); err != nil {
		w.logger.Error("failed to save credentials", "error", err)
	}

	if w.opts.OnComplete != nil {
		w.opts.OnComplete(creds.Clone())
	}

	var name string
	if i := slices.IndexFunc(w.session.devices, func(d models.Device) bool { return d.ID == deviceID }); i >= 0 {
		name = w.session.devices[i].Name
	} else if deviceID != "" {
		name = deviceID
	}

	w.render(rw, http.StatusOK, "success.html", pageData{Title: "Pairing complete", DeviceName: name})
	w.transition(Done)
	w.doneOnce.Do(func() { close(w.done) })
}

func (w *Wizard) transition(next State) {
	w.logger.Debug("pairing state", "from", w.state, "to", next)
	w.state = next
}

// reset returns to the start of the flow, keeping nothing from the failed attempt.
func (w *Wizard) reset() {
	w.session = pairingSession{}
	w.client = nil
	w.transition(AwaitingBrowser)
}

type pageData struct {
	Title        string
	RedirectURI  string
	ClientID     string
	ClientSecret string
	Devices      []models.Device
	Selected     string
	Warning      string
	DeviceName   string
	Message      string
	Restart      bool
}

func (w *Wizard) render(rw http.ResponseWriter, status int, page string, data pageData) {
	var buf bytes.Buffer
	if err := pages[page].ExecuteTemplate(&buf, "layout", data); err != nil {
		w.logger.Error("failed to render page", "page", page, "error", err)
		http.Error(rw, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	rw.Header().Set("Content-Type", "text/html; charset=utf-8")
	rw.WriteHeader(status)
	rw.Write(buf.Bytes())
}

func (w *Wizard) renderError(rw http.ResponseWriter, status int, title, message string, restart bool) {
	w.render(rw, status, "error.html", pageData{Title: title, Message: message, Restart: restart})
}

// Pair hosts w on ln behind the request logger and panic recovery until the flow completes.
//
// It returns the ready player, or an error wrapping [shared.ErrPairingIncomplete] when ctx ends first.
func Pair(ctx context.Context, ln net.Listener, w *Wizard, readTimeout time.Duration) (*services.SpotifyService, error) {
	router := NewRouter(w, Recoverer(w.logger), RequestLogger(w.logger))
	l := &Listener{Handler: router, ReadTimeout: readTimeout, Logger: w.logger}

	if err := l.Serve(ctx, ln, w.Done()); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrPairingIncomplete, err)
	}

	client := w.Client()
	if client == nil {
		return nil, shared.ErrPairingIncomplete
	}
	return client, nil
}
