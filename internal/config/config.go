// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for mull.
//
// Configuration lives in TOML at ~/.mull/config.toml, with sensible
// defaults, environment variable overrides, and validation. The settings
// screen is deliberately absent: credentials and endpoints change by
// editing the file, and a watcher picks the edit up live.
package config

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/mull-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete mull configuration.
type Config struct {
	// API configuration
	API APIConfig `toml:"api"`

	// UI configuration
	UI UIConfig `toml:"ui"`

	// Storage configuration
	Storage StorageConfig `toml:"storage"`
}

// APIConfig contains the proxy endpoint configuration.
type APIConfig struct {
	// BaseURL is the URL of the thinking-proxy server
	BaseURL string `toml:"base_url"`
	// Token is the API token forwarded to the upstream provider.
	// Overridable via the MULL_API_TOKEN environment variable.
	Token string `toml:"token"`
	// Model is the upstream model identifier
	Model string `toml:"model"`
	// MaxTokens caps the response length (0 = server default)
	MaxTokens int `toml:"max_tokens"`
	// ThinkingBudget is the thinking token budget (0 disables thinking)
	ThinkingBudget int `toml:"thinking_budget"`
	// System is an optional system prompt sent with every request
	System string `toml:"system"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is the UI theme: "dark", "light", "auto"
	Theme string `toml:"theme"`
	// ShowThinking expands thinking sections in the transcript by default
	ShowThinking bool `toml:"show_thinking"`
	// ShowStats displays the stats line under completed answers
	ShowStats bool `toml:"show_stats"`
}

// StorageConfig contains session persistence configuration.
type StorageConfig struct {
	// SessionsPath overrides the sessions blob location (empty = default)
	SessionsPath string `toml:"sessions_path"`
	// MaxSessions limits retained sessions (0 = default limit)
	MaxSessions int `toml:"max_sessions"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:        "http://localhost:8080",
			Token:          "",
			Model:          "claude-sonnet-4-20250514",
			MaxTokens:      8192,
			ThinkingBudget: 16000,
		},
		UI: UIConfig{
			Theme:        "auto",
			ShowThinking: true,
			ShowStats:    true,
		},
		Storage: StorageConfig{
			MaxSessions: 50,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the mull configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".mull"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// ensureSecurePermissions checks and fixes permissions on config files.
// SECURITY: Config files should be 0600 (owner read/write only) to protect the API token.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the default config file, falling back to
// defaults when no file exists. Environment overrides are applied last.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific file path with full
// validation. A missing file is not an error: defaults apply.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if _, statErr := os.Stat(path); statErr == nil {
		// SECURITY: Check and fix file permissions if needed
		if err := ensureSecurePermissions(path); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
		}
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplyEnvOverrides applies environment variable overrides to the config.
// Environment always wins over the file.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("MULL_API_TOKEN"); v != "" {
		c.API.Token = v
	}
	if v := os.Getenv("MULL_API_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("MULL_MODEL"); v != "" {
		c.API.Model = v
	}
	if v := os.Getenv("MULL_THINKING_BUDGET"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.API.ThinkingBudget = n
		}
	}
}

// fillDefaults fills in any missing values with defaults.
func (c *Config) fillDefaults() {
	defaults := Default()

	if c.API.BaseURL == "" {
		c.API.BaseURL = defaults.API.BaseURL
	}
	if c.API.Model == "" {
		c.API.Model = defaults.API.Model
	}
	if c.API.MaxTokens == 0 {
		c.API.MaxTokens = defaults.API.MaxTokens
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
	if c.Storage.MaxSessions == 0 {
		c.Storage.MaxSessions = defaults.Storage.MaxSessions
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return fmt.Errorf("api.base_url is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api.base_url must use http or https, got %q", u.Scheme)
	}

	switch c.UI.Theme {
	case "dark", "light", "auto":
	default:
		return fmt.Errorf("ui.theme must be dark, light or auto, got %q", c.UI.Theme)
	}

	if c.API.ThinkingBudget < 0 {
		return fmt.Errorf("api.thinking_budget must not be negative")
	}
	if c.Storage.MaxSessions < 0 {
		return fmt.Errorf("storage.max_sessions must not be negative")
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveToPath(cfg, path)
}

// SaveToPath saves the configuration to a TOML file.
// SECURITY: Writes with 0600 permissions (owner read/write only).
func SaveToPath(cfg *Config, path string) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	// RELIABILITY: Atomic write with fsync prevents data loss on crash
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// SessionsPath returns the effective sessions blob path.
func (c *Config) SessionsPath() (string, error) {
	if c.Storage.SessionsPath != "" {
		return c.Storage.SessionsPath, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "sessions.json"), nil
}

// LogPath returns the application log file path.
func LogPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "mull.log"), nil
}
