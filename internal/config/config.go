// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for the
// DataGround client.
//
// Configuration is TOML with sensible defaults and environment variable
// overrides:
//   - ~/.dataground/config.toml
//   - DATAGROUND_API_URL, DATAGROUND_CONFIG_DIR
//
// The session token override DATAGROUND_TOKEN is handled by the auth
// package, not here; it never lives in the config file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/dataground-tui/internal/model"
	"github.com/jeranaias/dataground-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the complete client configuration.
type Config struct {
	API      APIConfig      `toml:"api"`
	Defaults DefaultsConfig `toml:"defaults"`
	UI       UIConfig       `toml:"ui"`
}

// APIConfig selects the backend.
type APIConfig struct {
	// BaseURL is the backend root; empty selects the production backend.
	BaseURL string `toml:"base_url"`
	// MaxRetries is the retry budget for transient errors.
	MaxRetries int `toml:"max_retries"`
}

// DefaultsConfig seeds the manual analysis form.
type DefaultsConfig struct {
	Country   string  `toml:"country"`
	City      string  `toml:"city"`
	Task      string  `toml:"task"`
	Threshold float64 `toml:"threshold"`
}

// UIConfig tunes the terminal interface.
type UIConfig struct {
	// Theme is "dark" or "light".
	Theme string `toml:"theme"`
	// Markdown renders assistant replies through the markdown renderer.
	Markdown bool `toml:"markdown"`
	// WordWrap is the render width for assistant replies.
	WordWrap int `toml:"word_wrap"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:    "",
			MaxRetries: 3,
		},
		Defaults: DefaultsConfig{
			Country:   "Indonesia",
			City:      "Jakarta",
			Task:      model.TaskSLRRisk,
			Threshold: 2.0,
		},
		UI: UIConfig{
			Theme:    "dark",
			Markdown: true,
			WordWrap: 80,
		},
	}
}

// =============================================================================
// PATHS
// =============================================================================

// Dir returns the configuration directory, honoring DATAGROUND_CONFIG_DIR.
func Dir() (string, error) {
	if dir := os.Getenv("DATAGROUND_CONFIG_DIR"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate home directory: %w", err)
	}
	return filepath.Join(home, ".dataground"), nil
}

// Path returns the config file location inside dir.
func Path(dir string) string {
	return filepath.Join(dir, "config.toml")
}

// CachePath returns the chat cache database location inside dir.
func CachePath(dir string) string {
	return filepath.Join(dir, "cache.db")
}

// LogPath returns the log file location inside dir.
func LogPath(dir string) string {
	return filepath.Join(dir, "dataground.log")
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads the config file in dir, fills unset fields with defaults, and
// applies environment overrides. A missing file yields pure defaults.
func Load(dir string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(Path(dir))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err == nil {
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv applies environment variable overrides. Env always wins over the
// file.
func applyEnv(cfg *Config) {
	if v := os.Getenv("DATAGROUND_API_URL"); v != "" {
		cfg.API.BaseURL = v
	}
}

// Validate checks the configuration for values that would fail later in
// confusing ways.
func (c *Config) Validate() error {
	if c.API.BaseURL != "" {
		u, err := url.Parse(c.API.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("api.base_url %q is not a valid http(s) URL", c.API.BaseURL)
		}
	}
	if c.API.MaxRetries < 1 {
		c.API.MaxRetries = 1
	}
	if c.UI.Theme != "dark" && c.UI.Theme != "light" {
		return fmt.Errorf("ui.theme %q is not supported (dark, light)", c.UI.Theme)
	}
	if c.UI.WordWrap < 20 {
		c.UI.WordWrap = 20
	}
	if _, ok := model.GetTask(c.Defaults.Task); !ok {
		return fmt.Errorf("defaults.task %q is not a known task", c.Defaults.Task)
	}
	return nil
}

// Save writes the config atomically to dir.
func (c *Config) Save(dir string) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return util.AtomicWriteFile(Path(dir), buf.Bytes(), 0644)
}
