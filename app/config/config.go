// Package config loads likeboard configuration from a YAML file and the
// environment. The result is built once at startup and treated as read-only.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DriverBadger   = "badger"
	DriverPostgres = "postgres"
)

// Config is the root configuration document.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Auth    AuthConfig    `yaml:"auth"`
	Log     LogConfig     `yaml:"log"`
	Toggle  ToggleConfig  `yaml:"toggle"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// SecureCookie marks the authorization cookie Secure.
	SecureCookie bool `yaml:"secure_cookie"`
}

type StorageConfig struct {
	Driver string `yaml:"driver"`
	// Path is the Badger data directory.
	Path string `yaml:"path"`
	// DatabaseURL is the PostgreSQL DSN.
	DatabaseURL string `yaml:"database_url"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// ToggleConfig bounds how often a conflicted like toggle is retried.
type ToggleConfig struct {
	MaxRetries  uint64        `yaml:"max_retries"`
	BaseBackoff time.Duration `yaml:"base_backoff"`
	MaxBackoff  time.Duration `yaml:"max_backoff"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":3002",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			Driver: DriverBadger,
			Path:   "data/badger",
		},
		Log: LogConfig{
			Level: "info",
		},
		Toggle: ToggleConfig{
			MaxRetries:  50,
			BaseBackoff: 2 * time.Millisecond,
			MaxBackoff:  100 * time.Millisecond,
		},
	}
}

// Load reads path (if non-empty) over the defaults, applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read is Load without validation. Maintenance commands use it together
// with ValidateStorage since they never issue tokens.
func Read(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("LIKEBOARD_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("LIKEBOARD_JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("LIKEBOARD_STORAGE_DRIVER"); v != "" {
		c.Storage.Driver = v
	}
	if v := os.Getenv("LIKEBOARD_STORAGE_PATH"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv("LIKEBOARD_DATABASE_URL"); v != "" {
		c.Storage.DatabaseURL = v
	}
	if v := os.Getenv("LIKEBOARD_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("LIKEBOARD_TOGGLE_MAX_RETRIES"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid LIKEBOARD_TOGGLE_MAX_RETRIES: %w", err)
		}
		c.Toggle.MaxRetries = n
	}
	return nil
}

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required (or set LIKEBOARD_JWT_SECRET)")
	}
	if err := c.ValidateStorage(); err != nil {
		return err
	}
	if c.Toggle.BaseBackoff <= 0 {
		return errors.New("toggle.base_backoff must be positive")
	}
	return nil
}

// ValidateStorage checks only the storage section.
func (c *Config) ValidateStorage() error {
	switch c.Storage.Driver {
	case DriverBadger:
		if c.Storage.Path == "" {
			return errors.New("storage.path is required for the badger driver")
		}
	case DriverPostgres:
		if c.Storage.DatabaseURL == "" {
			return errors.New("storage.database_url is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	return nil
}
