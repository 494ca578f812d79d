// Copyright 2026 The Filegate Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML duration
// strings like "30s" or "2m".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local development machines.
	Development Environment = "development"
	// Staging is for pre-production testing.
	Staging Environment = "staging"
	// Production is for production deployments.
	Production Environment = "production"
)

// Config is the configuration for the Filegate service.
type Config struct {
	// Environment identifies the deployment type.
	Environment Environment `yaml:"environment"`

	// Socket configures the Unix socket the service listens on.
	Socket SocketConfig `yaml:"socket"`

	// Database configures the SQLite store.
	Database DatabaseConfig `yaml:"database"`

	// Notify configures subscriber fan-out.
	Notify NotifyConfig `yaml:"notify"`

	// Per-environment overrides, applied after the base config loads.
	Development *Overrides `yaml:"development,omitempty"`
	Staging     *Overrides `yaml:"staging,omitempty"`
	Production  *Overrides `yaml:"production,omitempty"`
}

// Overrides contains the fields that can be overridden per environment.
type Overrides struct {
	Socket   *SocketConfig   `yaml:"socket,omitempty"`
	Database *DatabaseConfig `yaml:"database,omitempty"`
	Notify   *NotifyConfig   `yaml:"notify,omitempty"`
}

// SocketConfig configures the service listener.
type SocketConfig struct {
	// Path is the Unix socket path.
	// Default: /run/filegate/filegate.sock
	Path string `yaml:"path"`
}

// DatabaseConfig configures the SQLite store.
type DatabaseConfig struct {
	// Path is the SQLite database file. The parent directory must
	// exist. Default: ${HOME}/.local/share/filegate/filegate.db
	Path string `yaml:"path"`

	// PoolSize is the connection pool size. Default: 4.
	PoolSize int `yaml:"pool_size"`
}

// NotifyConfig configures subscriber fan-out and stream keepalive.
type NotifyConfig struct {
	// SubscriberBuffer is the per-subscriber event channel capacity.
	// A subscriber that falls this many events behind starts losing
	// events (at-most-once delivery). Default: 64.
	SubscriberBuffer int `yaml:"subscriber_buffer"`

	// HeartbeatInterval is the time between heartbeat frames on a
	// subscribe stream. Default: 30s.
	HeartbeatInterval Duration `yaml:"heartbeat_interval"`
}

// Default returns the default configuration. These defaults ensure
// every field has a sensible value before the config file is merged
// on top — the file remains the source of truth.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Environment: Development,
		Socket: SocketConfig{
			Path: "/run/filegate/filegate.sock",
		},
		Database: DatabaseConfig{
			Path:     filepath.Join(homeDir, ".local", "share", "filegate", "filegate.db"),
			PoolSize: 4,
		},
		Notify: NotifyConfig{
			SubscriberBuffer:  64,
			HeartbeatInterval: Duration(30 * time.Second),
		},
	}
}

// Load loads configuration from the FILEGATE_CONFIG environment
// variable. There are no fallbacks — if FILEGATE_CONFIG is not set,
// Load fails.
func Load() (*Config, error) {
	configPath := os.Getenv("FILEGATE_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("FILEGATE_CONFIG environment variable not set; " +
			"set it to the path of your filegate.yaml config file, or use --config")
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path. The file is
// merged over Default(), then the matching environment section (if
// any) is applied on top.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	cfg.applyEnvironmentOverrides()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// applyEnvironmentOverrides applies the section matching Environment.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *Overrides
	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
	}
	if overrides == nil {
		return
	}
	if overrides.Socket != nil {
		c.Socket = *overrides.Socket
	}
	if overrides.Database != nil {
		c.Database = *overrides.Database
	}
	if overrides.Notify != nil {
		c.Notify = *overrides.Notify
	}
}

// validate rejects configurations that cannot run.
func (c *Config) validate() error {
	switch c.Environment {
	case Development, Staging, Production:
	default:
		return fmt.Errorf("unknown environment %q", c.Environment)
	}
	if c.Socket.Path == "" {
		return fmt.Errorf("socket.path is required")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Notify.SubscriberBuffer <= 0 {
		return fmt.Errorf("notify.subscriber_buffer must be positive")
	}
	if c.Notify.HeartbeatInterval <= 0 {
		return fmt.Errorf("notify.heartbeat_interval must be positive")
	}
	return nil
}
