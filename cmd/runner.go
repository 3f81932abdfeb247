package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotpair/internal/models"
	"github.com/desertthunder/spotpair/internal/repositories"
	"github.com/desertthunder/spotpair/internal/server"
	"github.com/desertthunder/spotpair/internal/services"
	"github.com/desertthunder/spotpair/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config      *shared.Config
	configPath  string
	httpClient  *http.Client
	logger      *log.Logger
	output      io.Writer
	input       io.Reader
	openBrowser func(string) error
	listen      func(network, addr string) (net.Listener, error)
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:      opts.Config,
		configPath:  opts.ConfigPath,
		httpClient:  opts.HTTPClient,
		logger:      opts.Logger,
		output:      opts.Output,
		input:       opts.Input,
		openBrowser: shared.OpenBrowser,
		listen:      net.Listen,
	}
}

// SetLogger replaces the logger used by subsequent commands.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, pairCommand, playCommand, pauseCommand, devicesCommand, controlCommand, tuiCommand, credentialsCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// app builds the root command.
func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:    "spotpair",
		Usage:   "Pair with Spotify from a browser and control playback",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
			},
		},
		Before:   r.loadConfig,
		Commands: r.register(),
	}
}

// loadConfig replaces the runner's config with the file named by --config, or the default
// path when it exists, then applies the environment overlay.
func (r *Runner) loadConfig(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := cmd.String("config")
	if path == "" {
		path = r.configPath
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			config, err := shared.LoadConfig(path)
			if err != nil {
				return ctx, err
			}
			r.config = config
			r.configPath = path
		} else if cmd.IsSet("config") {
			return ctx, fmt.Errorf("%w: %s", shared.ErrMissingConfig, path)
		}
	}

	if err := shared.LoadEnv(r.config); err != nil {
		return ctx, err
	}
	shared.SetLogLevel(r.logger, shared.ParseLogLevel(r.config.Log.Level))
	return ctx, nil
}

func (r *Runner) openStore() (models.CredentialStore, func() error, error) {
	store, closeFn, err := repositories.NewCredentialStore(r.config)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open credential store: %w", err)
	}
	return store, closeFn, nil
}

func (r *Runner) exchanger() *services.TokenExchange {
	return services.NewTokenExchangeFromConfig(r.config.Spotify, r.httpClient)
}

func (r *Runner) newClient(creds *models.Credentials, store models.CredentialStore) (*services.SpotifyService, error) {
	session, err := services.NewSession(services.SessionOpts{
		Credentials: creds,
		Store:       store,
		Exchanger:   r.exchanger(),
		HTTPClient:  r.httpClient,
		BaseURL:     r.config.Spotify.APIURL,
		Logger:      shared.WithLogger(r.logger, "component", "session"),
	})
	if err != nil {
		return nil, err
	}
	return services.NewSpotifyService(session), nil
}

// connect returns a player for the stored record, running the pairing wizard first when no
// usable record exists.
func (r *Runner) connect(ctx context.Context, open bool) (*services.SpotifyService, func() error, error) {
	store, closeFn, err := r.openStore()
	if err != nil {
		return nil, nil, err
	}

	client, err := r.connectStore(ctx, store, open)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return client, closeFn, nil
}

func (r *Runner) connectStore(ctx context.Context, store models.CredentialStore, open bool) (*services.SpotifyService, error) {
	creds, err := store.Load()
	switch {
	case err == nil:
		return r.newClient(creds, store)
	case errors.Is(err, shared.ErrCredentialsUnavailable):
		r.logger.Info("no usable credentials, starting pairing", "reason", err)
		return r.pair(ctx, store, open)
	default:
		return nil, err
	}
}

// pair serves the wizard until it completes or ctx ends.
func (r *Runner) pair(ctx context.Context, store models.CredentialStore, open bool) (*services.SpotifyService, error) {
	ln, err := r.listen("tcp", r.config.Server.Addr())
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", r.config.Server.Addr(), err)
	}

	port := r.config.Server.Port
	if addr, ok := ln.Addr().(*net.TCPAddr); ok {
		port = addr.Port
	}
	url := fmt.Sprintf("http://%s:%d/", shared.LocalIP(), port)

	wizard, err := server.NewWizard(server.WizardOpts{
		Store:      store,
		Exchanger:  r.exchanger(),
		HTTPClient: r.httpClient,
		APIURL:     r.config.Spotify.APIURL,
		Defaults:   r.config.Credentials.Spotify,
		Logger:     shared.WithLogger(r.logger, "component", "wizard"),
		OnComplete: func(creds *models.Credentials) { r.recordPairing(store, creds) },
	})
	if err != nil {
		ln.Close()
		return nil, err
	}

	r.writePlain("Listening, connect your browser to %s\n", url)
	if open {
		if err := r.openBrowser(url); err != nil {
			r.logger.Warn("failed to open browser", "error", err)
		}
	}

	readTimeout := time.Duration(r.config.Server.ReadTimeout) * time.Second
	client, err := server.Pair(ctx, ln, wizard, readTimeout)
	if err != nil {
		return nil, err
	}

	r.writePlain("✓ Paired, credentials saved\n")
	return client, nil
}

// recordPairing appends to the pairing history when the sqlite store is in use.
func (r *Runner) recordPairing(store models.CredentialStore, creds *models.Credentials) {
	repo, ok := store.(*repositories.CredentialRepository)
	if !ok {
		return
	}
	if _, err := repo.Pairings().Record(creds); err != nil {
		r.logger.Warn("failed to record pairing", "error", err)
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
