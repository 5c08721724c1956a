// Package config loads curbing configuration from a YAML file, an optional
// .env file and CURBING_* environment variables, in that order of precedence
// (later wins).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/evcraddock/curbing/internal/db"
	"github.com/evcraddock/curbing/internal/store"
)

// Drivers lists the supported store drivers.
var Drivers = []string{"memory", "sqlite3", "sqlite", "postgres", "redis"}

// Store selects and addresses the document store.
type Store struct {
	Driver     string `yaml:"driver"`
	DSN        string `yaml:"dsn,omitempty"`
	Collection string `yaml:"collection"`
}

// Config holds everything the server and CLI need.
type Config struct {
	Store            Store  `yaml:"store"`
	Port             int    `yaml:"port"`
	ServerURL        string `yaml:"server_url"`
	Dev              bool   `yaml:"dev,omitempty"`
	ResetConcurrency int    `yaml:"reset_concurrency"`
	Rollback         bool   `yaml:"rollback,omitempty"`
}

// Default returns the built-in configuration.
func Default() Config {
	dsn, _ := db.DefaultPath()
	return Config{
		Store: Store{
			Driver:     "sqlite3",
			DSN:        dsn,
			Collection: store.DefaultCollection,
		},
		Port:             8080,
		ServerURL:        "http://localhost:8080",
		ResetConcurrency: 4,
	}
}

// DefaultPath returns ~/.config/curbing/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "curbing", "config.yaml"), nil
}

// Read parses the file at path over the defaults.
// A missing file yields the defaults.
func Read(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes cfg to path, creating the directory if needed.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Load reads the config file (DefaultPath when path is empty), then .env in
// the working directory, then the environment, and validates the result.
func Load(path string) (Config, error) {
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return Config{}, err
		}
	}

	cfg, err := Read(path)
	if err != nil {
		return Config{}, err
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("CURBING_STORE_DRIVER"); v != "" {
		c.Store.Driver = v
	}
	if v := os.Getenv("CURBING_STORE_DSN"); v != "" {
		c.Store.DSN = v
	}
	if v := os.Getenv("CURBING_COLLECTION"); v != "" {
		c.Store.Collection = v
	}
	if v := os.Getenv("CURBING_SERVER_URL"); v != "" {
		c.ServerURL = v
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"CURBING_PORT", &c.Port},
		{"CURBING_RESET_CONCURRENCY", &c.ResetConcurrency},
	}
	for _, e := range ints {
		if v := os.Getenv(e.key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("parsing %s: %w", e.key, err)
			}
			*e.dst = n
		}
	}

	bools := []struct {
		key string
		dst *bool
	}{
		{"CURBING_DEV", &c.Dev},
		{"CURBING_ROLLBACK", &c.Rollback},
	}
	for _, e := range bools {
		if v := os.Getenv(e.key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("parsing %s: %w", e.key, err)
			}
			*e.dst = b
		}
	}
	return nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if !slices.Contains(Drivers, c.Store.Driver) {
		return fmt.Errorf("unknown store driver %q (want one of %v)", c.Store.Driver, Drivers)
	}
	if c.Store.Driver != "memory" && c.Store.DSN == "" {
		return fmt.Errorf("store driver %s needs a dsn", c.Store.Driver)
	}
	if !store.ValidCollection(c.Store.Collection) {
		return fmt.Errorf("invalid collection name %q", c.Store.Collection)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.ResetConcurrency < 1 {
		return fmt.Errorf("reset concurrency must be at least 1, got %d", c.ResetConcurrency)
	}
	return nil
}
