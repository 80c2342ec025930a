// Copyright 2026 The mcpgate Authors
// SPDX-License-Identifier: Apache-2.0

// Mcpgate is a WebSocket gateway for locally-spawned stdio tool
// servers. It loads a registry of spawnable servers from a JSONC
// file and upgrades connections at /mcp/{name}: each accepted
// connection gets its own freshly spawned process, newline-delimited
// stdout becomes discrete text messages, and every inbound message is
// written to the process's stdin with a terminating newline. The
// /health and /servers endpoints expose the registry over plain HTTP.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/mcpgate/mcpgate/gateway"
	"github.com/mcpgate/mcpgate/lib/config"
	"github.com/mcpgate/mcpgate/lib/process"
	"github.com/mcpgate/mcpgate/lib/registry"
	"github.com/mcpgate/mcpgate/lib/version"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var configPath string
	var listenAddr string
	var serversFile string
	var logLevel string

	flagSet := pflag.NewFlagSet("mcpgate", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to the YAML config file (default: $MCPGATE_CONFIG, else built-in defaults)")
	flagSet.StringVar(&listenAddr, "listen", "", "TCP listen address (overrides config)")
	flagSet.StringVar(&serversFile, "servers", "", "path to the JSONC servers file (overrides config)")
	flagSet.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, or error (overrides config)")
	flagSet.BoolP("help", "h", false, "show help")

	// Handle --version before flag parsing to match other mcpgate
	// binaries.
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		version.Print("mcpgate")
		return nil
	}

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}

	var configuration *config.Config
	var err error
	if configPath != "" {
		configuration, err = config.LoadFile(configPath)
	} else {
		configuration, err = config.Load()
	}
	if err != nil {
		return err
	}
	if listenAddr != "" {
		configuration.ListenAddr = listenAddr
	}
	if serversFile != "" {
		configuration.ServersFile = serversFile
	}
	if logLevel != "" {
		configuration.LogLevel = logLevel
	}
	if err := configuration.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := newLogger(configuration.Level())
	slog.SetDefault(logger)

	logger.Info("starting mcpgate",
		"version", version.Info(),
		"config", configPath,
		"servers_file", configuration.ServersFile,
	)

	serverRegistry := registry.Load(configuration.ServersFile, logger)

	idleTimeout, killGrace, shutdownTimeout, err := configuration.Durations()
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	server := gateway.NewServer(gateway.ServerConfig{
		ListenAddr:      configuration.ListenAddr,
		Registry:        serverRegistry,
		Logger:          logger,
		Origins:         configuration.Origins,
		IdleTimeout:     idleTimeout,
		KillGrace:       killGrace,
		MaxMessageBytes: configuration.MaxMessageBytes,
		ShutdownTimeout: shutdownTimeout,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return server.Serve(ctx)
}

// newLogger builds the daemon logger. A terminal gets human-readable
// text; everything else (systemd, CI, pipes) gets JSON records.
func newLogger(level slog.Level) *slog.Logger {
	options := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if term.IsTerminal(int(os.Stderr.Fd())) {
		handler = slog.NewTextHandler(os.Stderr, options)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, options)
	}
	return slog.New(handler)
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `Mcpgate is a WebSocket gateway for local stdio tool servers.

Each WebSocket connection to /mcp/{name} spawns the registered
command for {name} and bridges it: stdout lines become messages,
messages become stdin lines. GET /health reports liveness and the
registered names; GET /servers lists the full spawn specs.

Usage:
  mcpgate [flags]

Examples:
  # Run with the built-in defaults (servers.json, port 7433)
  mcpgate

  # Run with an explicit config and servers file
  mcpgate --config /etc/mcpgate/config.yaml --servers /etc/mcpgate/servers.json

  # Bind an alternate port with verbose logging
  mcpgate --listen 127.0.0.1:9000 --log-level debug

Flags:
%s`, flagSet.FlagUsages())
}
