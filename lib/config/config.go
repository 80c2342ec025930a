// Copyright 2026 The mcpgate Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for the mcpgate
// daemon.
//
// Configuration is loaded from a single YAML file specified by:
//   - the --config flag passed to the command, or
//   - the MCPGATE_CONFIG environment variable
//
// Every field has a working default, so the file is optional; a
// gateway started with no configuration at all serves an empty
// registry on the default listen address. There is no automatic
// discovery of config files in the filesystem.
//
// The servers file referenced by servers_file is a separate JSONC
// document owned by the registry package; this package only carries
// its path.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the daemon configuration.
type Config struct {
	// ListenAddr is the host:port the gateway binds.
	// Default: ":7433"
	ListenAddr string `yaml:"listen_addr"`

	// ServersFile is the path of the JSONC servers file that feeds
	// the registry. A missing or malformed file leaves the registry
	// empty; it does not prevent startup.
	// Default: servers.json (relative to the working directory)
	ServersFile string `yaml:"servers_file"`

	// Origins are the host patterns accepted in the Origin header of
	// WebSocket upgrades, for cross-origin browser callers. Empty
	// means any origin is accepted.
	// Default: empty
	Origins []string `yaml:"origins"`

	// LogLevel is one of: debug, info, warn, error.
	// Default: info
	LogLevel string `yaml:"log_level"`

	// IdleTimeout closes a session when no message has crossed it in
	// either direction for the duration (a Go duration string such
	// as "5m"). "0" disables the timeout.
	// Default: "0"
	IdleTimeout string `yaml:"idle_timeout"`

	// KillGrace is how long a terminated tool process gets between
	// SIGTERM and SIGKILL. "0" sends SIGKILL immediately.
	// Default: "2s"
	KillGrace string `yaml:"kill_grace"`

	// MaxMessageBytes caps a single inbound WebSocket message.
	// 0 means unlimited.
	// Default: 0
	MaxMessageBytes int64 `yaml:"max_message_bytes"`

	// ShutdownTimeout bounds the graceful drain when the daemon
	// stops.
	// Default: "5s"
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// Default returns the default configuration. The defaults describe a
// fully working local gateway; the config file overrides them.
func Default() *Config {
	return &Config{
		ListenAddr:      ":7433",
		ServersFile:     "servers.json",
		LogLevel:        "info",
		IdleTimeout:     "0",
		KillGrace:       "2s",
		MaxMessageBytes: 0,
		ShutdownTimeout: "5s",
	}
}

// Load loads configuration from the MCPGATE_CONFIG environment
// variable, or returns defaults when it is unset. Commands that take
// a --config flag call LoadFile directly with the flag value.
func Load() (*Config, error) {
	configPath := os.Getenv("MCPGATE_CONFIG")
	if configPath == "" {
		return Default(), nil
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path, merging the
// file over the defaults. Environment variables do not override config
// values; the only expansion performed is ${VAR} substitution in the
// servers file path for portability.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.ServersFile = expandVars(cfg.ServersFile)

	return cfg, nil
}

// varPattern matches ${VAR} and ${VAR:-default}.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		if len(parts) >= 3 {
			return parts[2]
		}
		return ""
	})
}

// Validate checks the configuration for errors, reporting every
// problem at once.
func (c *Config) Validate() error {
	var errs []error

	if c.ListenAddr == "" {
		errs = append(errs, fmt.Errorf("listen_addr is required"))
	} else if _, _, err := net.SplitHostPort(c.ListenAddr); err != nil {
		errs = append(errs, fmt.Errorf("listen_addr %q: %w", c.ListenAddr, err))
	}

	if c.ServersFile == "" {
		errs = append(errs, fmt.Errorf("servers_file is required"))
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level must be one of debug, info, warn, error (got %q)", c.LogLevel))
	}

	if _, _, _, err := c.Durations(); err != nil {
		errs = append(errs, err)
	}

	if c.MaxMessageBytes < 0 {
		errs = append(errs, fmt.Errorf("max_message_bytes must be >= 0 (got %d)", c.MaxMessageBytes))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Durations parses the three duration fields. Validate uses it to
// surface unparsable values early; the daemon uses it once when
// wiring the server.
func (c *Config) Durations() (idleTimeout, killGrace, shutdownTimeout time.Duration, err error) {
	var errs []error

	parse := func(field, value string) time.Duration {
		parsed, parseErr := time.ParseDuration(value)
		if parseErr != nil {
			errs = append(errs, fmt.Errorf("%s %q: %w", field, value, parseErr))
			return 0
		}
		if parsed < 0 {
			errs = append(errs, fmt.Errorf("%s must be >= 0 (got %s)", field, value))
			return 0
		}
		return parsed
	}

	idleTimeout = parse("idle_timeout", c.IdleTimeout)
	killGrace = parse("kill_grace", c.KillGrace)
	shutdownTimeout = parse("shutdown_timeout", c.ShutdownTimeout)

	if len(errs) > 0 {
		return 0, 0, 0, errors.Join(errs...)
	}
	return idleTimeout, killGrace, shutdownTimeout, nil
}

// Level maps the configured log level to a slog level. Unknown values
// (rejected by Validate) fall back to info.
func (c *Config) Level() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
