// Package config handles configuration loading and validation for qbt-mcp.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Config holds the connection settings for the upstream qBittorrent
// instance. Values come from the config file, overridden by flags/env.
type Config struct {
	URL            string `yaml:"url" validate:"required,url"`
	Username       string `yaml:"username" validate:"required"`
	Password       string `yaml:"password" validate:"required"`
	TimeoutSeconds int    `yaml:"timeout_seconds" validate:"gte=1"`
}

// DefaultConfig returns a Config matching a stock local qBittorrent WebUI.
func DefaultConfig() Config {
	return Config{
		URL:            "http://localhost:8080",
		Username:       "admin",
		Password:       "adminadmin",
		TimeoutSeconds: 30,
	}
}

// Load reads configuration from the given path. A missing or empty path
// returns defaults. Validation runs after defaults are applied so a
// partially filled file still yields a complete config.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults fills zero values left by a partial config file.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.URL == "" {
		c.URL = defaults.URL
	}
	if c.Username == "" {
		c.Username = defaults.Username
	}
	if c.Password == "" {
		c.Password = defaults.Password
	}
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = defaults.TimeoutSeconds
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	return validate.Struct(c)
}

// Timeout returns the request timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
