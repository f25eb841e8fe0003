// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SL Portal Contributors

// Package config loads portal configuration from a YAML file with
// command-line flag overrides.
package config

import (
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Defaults.
const (
	DefaultAddr                = ":8080"
	DefaultMetricsAddr         = "127.0.0.1:9100"
	DefaultLogFormat           = "json"
	DefaultSessionLifetimeSecs = 3600
	DefaultRememberDays        = 30
	DefaultLockoutThreshold    = 5
	DefaultLockoutMinutes      = 15
)

// Config is the portal's runtime configuration.
type Config struct {
	Server   Server   `koanf:"server"`
	Database Database `koanf:"database"`
	Auth     Auth     `koanf:"auth"`
}

// Server configures the HTTP and observability listeners.
type Server struct {
	Addr        string `koanf:"addr"`
	MetricsAddr string `koanf:"metrics_addr"`
	LogFormat   string `koanf:"log_format"`
}

// Database configures the PostgreSQL connection.
type Database struct {
	URL string `koanf:"url"`
}

// Auth configures the authentication core.
type Auth struct {
	SessionLifetimeSeconds int     `koanf:"session_lifetime_seconds"`
	RememberLifetimeDays   int     `koanf:"remember_lifetime_days"`
	SecureCookies          bool    `koanf:"secure_cookies"`
	Lockout                Lockout `koanf:"lockout"`
}

// Lockout configures the login-attempt governor. Enforcement is a
// switch so a deployment can turn it off, but it defaults to on and is
// applied uniformly to every login entry point.
type Lockout struct {
	Enabled         bool `koanf:"enabled"`
	Threshold       int  `koanf:"threshold"`
	DurationMinutes int  `koanf:"duration_minutes"`
}

// SessionLifetime returns the sliding session lifetime.
func (a Auth) SessionLifetime() time.Duration {
	return time.Duration(a.SessionLifetimeSeconds) * time.Second
}

// RememberLifetime returns the long-lived "remember me" cookie window.
func (a Auth) RememberLifetime() time.Duration {
	return time.Duration(a.RememberLifetimeDays) * 24 * time.Hour
}

// Duration returns the lockout window.
func (l Lockout) Duration() time.Duration {
	return time.Duration(l.DurationMinutes) * time.Minute
}

// Default returns the configuration defaults.
func Default() *Config {
	return &Config{
		Server: Server{
			Addr:        DefaultAddr,
			MetricsAddr: DefaultMetricsAddr,
			LogFormat:   DefaultLogFormat,
		},
		Auth: Auth{
			SessionLifetimeSeconds: DefaultSessionLifetimeSecs,
			RememberLifetimeDays:   DefaultRememberDays,
			SecureCookies:          true,
			Lockout: Lockout{
				Enabled:         true,
				Threshold:       DefaultLockoutThreshold,
				DurationMinutes: DefaultLockoutMinutes,
			},
		},
	}
}

// Load reads configuration: defaults, then the YAML file at path (if
// given), then flag overrides (if given). The DATABASE_URL environment
// variable fills in the database URL when the file and flags leave it
// empty.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").
				With("path", path).
				Wrap(err)
		}
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").
				With("operation", "merge flags").
				Wrap(err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, oops.Code("CONFIG_INVALID").
			With("operation", "unmarshal config").
			Wrap(err)
	}

	if cfg.Database.URL == "" {
		cfg.Database.URL = os.Getenv("DATABASE_URL")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return oops.Code("CONFIG_INVALID").Errorf("server.addr is required")
	}
	if c.Server.LogFormat != "json" && c.Server.LogFormat != "text" {
		return oops.Code("CONFIG_INVALID").
			Errorf("server.log_format must be 'json' or 'text', got %q", c.Server.LogFormat)
	}
	if c.Auth.SessionLifetimeSeconds <= 0 {
		return oops.Code("CONFIG_INVALID").Errorf("auth.session_lifetime_seconds must be positive")
	}
	if c.Auth.RememberLifetimeDays <= 0 {
		return oops.Code("CONFIG_INVALID").Errorf("auth.remember_lifetime_days must be positive")
	}
	if c.Auth.Lockout.Enabled {
		if c.Auth.Lockout.Threshold <= 0 {
			return oops.Code("CONFIG_INVALID").Errorf("auth.lockout.threshold must be positive")
		}
		if c.Auth.Lockout.DurationMinutes <= 0 {
			return oops.Code("CONFIG_INVALID").Errorf("auth.lockout.duration_minutes must be positive")
		}
	}
	return nil
}
