package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Spotify     SpotifyAPIConfig  `toml:"spotify"`
	Server      ServerConfig      `toml:"server"`
	Database    DatabaseConfig    `toml:"database"`
	Control     ControlConfig     `toml:"control"`
	Log         LogConfig         `toml:"log"`
}

// Credential store backends.
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
)

// CredentialsConfig selects the credential backend and holds pairing defaults.
type CredentialsConfig struct {
	Store   string        `toml:"store"`
	Path    string        `toml:"path"`
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains default Spotify application credentials offered by the pairing wizard.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	DeviceID     string `toml:"device_id"`
}

// SpotifyAPIConfig contains the remote endpoints.
type SpotifyAPIConfig struct {
	AuthURL  string   `toml:"auth_url"`
	TokenURL string   `toml:"token_url"`
	APIURL   string   `toml:"api_url"`
	Scopes   []string `toml:"scopes"`
}

// ServerConfig contains pairing server settings.
type ServerConfig struct {
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	ReadTimeout int    `toml:"read_timeout"` // seconds
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ControlConfig contains settings for the playback toggle loop.
type ControlConfig struct {
	ContextURI string   `toml:"context_uri"`
	URIs       []string `toml:"uris"`
	DebounceMS int      `toml:"debounce_ms"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// Addr returns the host:port the pairing server binds to.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks values that would otherwise fail late at runtime.
func (c *Config) Validate() error {
	switch c.Credentials.Store {
	case StoreFile, StoreSQLite:
	default:
		return fmt.Errorf("%w: unknown credentials store %q", ErrInvalidConfig, c.Credentials.Store)
	}
	if c.Credentials.Store == StoreFile && c.Credentials.Path == "" {
		return fmt.Errorf("%w: credentials.path is required for the file store", ErrInvalidConfig)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	if c.Spotify.TokenURL == "" || c.Spotify.AuthURL == "" || c.Spotify.APIURL == "" {
		return fmt.Errorf("%w: spotify endpoints must be set", ErrInvalidConfig)
	}
	return nil
}

// LoadEnv loads .env files when present and overlays SPOTPAIR_* variables onto config.
//
// Missing files are skipped. A file that cannot be parsed is an [ErrInvalidConfig].
func LoadEnv(config *Config, files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, file, err)
		}
	}

	if v := os.Getenv("SPOTPAIR_CLIENT_ID"); v != "" {
		config.Credentials.Spotify.ClientID = v
	}
	if v := os.Getenv("SPOTPAIR_CLIENT_SECRET"); v != "" {
		config.Credentials.Spotify.ClientSecret = v
	}
	if v := os.Getenv("SPOTPAIR_DEVICE_ID"); v != "" {
		config.Credentials.Spotify.DeviceID = v
	}
	if v := os.Getenv("SPOTPAIR_CREDENTIALS_PATH"); v != "" {
		config.Credentials.Path = v
	}
	if v := os.Getenv("SPOTPAIR_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.Server.Port = port
		}
	}
	if v := os.Getenv("SPOTPAIR_LOG_LEVEL"); v != "" {
		config.Log.Level = v
	}
	return nil
}
