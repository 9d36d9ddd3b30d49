package shared

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// MinSessionKeyLength is the minimum number of bytes (256 bits) accepted for the session secret.
const MinSessionKeyLength = 32

// SessionKeyEnv names the environment variable that overrides [SessionConfig.Key].
const SessionKeyEnv = "PLX_SESSION_KEY"

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Backend     BackendConfig     `toml:"backend"`
	Session     SessionConfig     `toml:"session"`
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Redis       RedisConfig       `toml:"redis"`
	Server      ServerConfig      `toml:"server"`
}

// BackendConfig points at the enrichment backend that brokers Spotify authorization.
type BackendConfig struct {
	BaseURL   string  `toml:"base_url"`
	RateLimit float64 `toml:"rate_limit"` // requests per second
	Timeout   string  `toml:"timeout"`
}

// SessionConfig controls the locally persisted, encrypted session.
type SessionConfig struct {
	Key      string `toml:"key"`
	TTL      string `toml:"ttl"`
	Storage  string `toml:"storage"`  // file, sqlite, redis
	Path     string `toml:"path"`     // directory for file storage
	Verifier string `toml:"verifier"` // backend, spotify
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API settings.
type SpotifyConfig struct {
	BaseURL string `toml:"base_url"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// RedisConfig contains Redis connection settings for the redis session storage.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Prefix   string `toml:"prefix"`
}

// ServerConfig contains settings for the local callback server.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
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

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig encodes config as TOML to path, replacing any existing file.
func SaveConfig(path string, config *Config) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// Lifetime parses the session TTL, falling back to one hour when unset.
func (s SessionConfig) Lifetime() (time.Duration, error) {
	if s.TTL == "" {
		return time.Hour, nil
	}
	d, err := time.ParseDuration(s.TTL)
	if err != nil {
		return 0, fmt.Errorf("%w: session.ttl %q: %v", ErrInvalidConfig, s.TTL, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: session.ttl must be positive", ErrInvalidConfig)
	}
	return d, nil
}

// RequestTimeout parses the backend timeout, falling back to ten seconds when unset.
func (b BackendConfig) RequestTimeout() (time.Duration, error) {
	if b.Timeout == "" {
		return 10 * time.Second, nil
	}
	d, err := time.ParseDuration(b.Timeout)
	if err != nil {
		return 0, fmt.Errorf("%w: backend.timeout %q: %v", ErrInvalidConfig, b.Timeout, err)
	}
	return d, nil
}

// ExpandHome replaces a leading "~" in path with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// ApplyEnv overrides values with their environment counterparts.
func (c *Config) ApplyEnv() {
	if key := os.Getenv(SessionKeyEnv); key != "" {
		c.Session.Key = key
	}
}

// Validate checks the settings the session subsystem depends on at startup.
func (c *Config) Validate() error {
	if len(c.Session.Key) < MinSessionKeyLength {
		return fmt.Errorf("%w: need at least %d bytes, got %d (set session.key or %s)",
			ErrKeyTooShort, MinSessionKeyLength, len(c.Session.Key), SessionKeyEnv)
	}

	if _, err := c.Session.Lifetime(); err != nil {
		return err
	}

	if _, err := c.Backend.RequestTimeout(); err != nil {
		return err
	}

	switch c.Session.Storage {
	case "file", "sqlite", "redis":
	default:
		return fmt.Errorf("%w: unknown session.storage %q", ErrInvalidConfig, c.Session.Storage)
	}

	switch c.Session.Verifier {
	case "", "backend", "spotify":
	default:
		return fmt.Errorf("%w: unknown session.verifier %q", ErrInvalidConfig, c.Session.Verifier)
	}

	if c.Backend.BaseURL == "" {
		return fmt.Errorf("%w: backend.base_url is required", ErrMissingConfig)
	}

	return nil
}
