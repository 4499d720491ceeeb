// Package config loads EquityLens client configuration.
// Configuration comes from an optional YAML file with environment
// variable overrides, so the CLI works out of the box against a local
// backend.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultAPIURL is the base path of the research assistant API.
const DefaultAPIURL = "http://localhost:8000/api/v1"

// EnvAPIURL overrides the configured API base URL when set.
const EnvAPIURL = "EQUITYLENS_API_URL"

// Config represents the client configuration.
type Config struct {
	// APIURL is the base URL of the research assistant API.
	APIURL string `yaml:"api_url"`

	// StateDir holds durable client state (token, logs).
	StateDir string `yaml:"state_dir"`

	// Verbose mirrors request/response logging to the console.
	Verbose bool `yaml:"verbose"`
}

// DefaultStateDir returns ~/.equitylens.
func DefaultStateDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".equitylens"), nil
}

// DefaultPath returns the default configuration file location.
func DefaultPath() (string, error) {
	dir, err := DefaultStateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads configuration from a YAML file. A missing file is not an
// error: defaults apply. Environment variables take precedence over the
// file.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path) // #nosec G304 - path chosen by the user running the CLI
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// Environment overrides
	if v := os.Getenv(EnvAPIURL); v != "" {
		cfg.APIURL = v
	}

	// Apply defaults
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.StateDir == "" {
		dir, err := DefaultStateDir()
		if err != nil {
			return nil, err
		}
		cfg.StateDir = dir
	}

	return &cfg, nil
}

// Save writes configuration to a YAML file.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil {
		return fmt.Errorf("invalid api_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid api_url scheme: %s (only http/https allowed)", u.Scheme)
	}
	if c.StateDir == "" {
		return fmt.Errorf("state_dir is required")
	}
	return nil
}

// LogPath returns the log file location under the state directory.
func (c *Config) LogPath() string {
	return filepath.Join(c.StateDir, "logs", "equitylens.log")
}
