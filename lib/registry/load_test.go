// Copyright 2026 The mcpgate Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// writeServersFile writes content to a servers.json in a test temp
// directory and returns its path.
func writeServersFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "servers.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing servers file: %v", err)
	}
	return path
}

func TestLoadMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.json")
	registry := Load(path, discardLogger())
	if registry.Len() != 0 {
		t.Errorf("Len() = %d, want 0 for missing file", registry.Len())
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := writeServersFile(t, `{"echo": {"command"`)
	registry := Load(path, discardLogger())
	if registry.Len() != 0 {
		t.Errorf("Len() = %d, want 0 for malformed file", registry.Len())
	}
}

func TestLoadJSONCWithCommentsAndTrailingCommas(t *testing.T) {
	path := writeServersFile(t, `{
		// Echoes every message back.
		"echo": {"command": "cat"},
		/* A tool with arguments and environment. */
		"files": {
			"command": "mcp-files",
			"args": ["--root", "/srv/data"],
			"env": {"LOG_LEVEL": "debug"},
		},
	}`)

	registry := Load(path, discardLogger())
	if registry.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", registry.Len())
	}

	echo, ok := registry.Lookup("echo")
	if !ok || echo.Command != "cat" {
		t.Errorf("Lookup(echo) = %+v, %v", echo, ok)
	}
	if len(echo.Args) != 0 || len(echo.Env) != 0 {
		t.Errorf("echo args/env = %v/%v, want empty", echo.Args, echo.Env)
	}

	files, ok := registry.Lookup("files")
	if !ok {
		t.Fatal("Lookup(files) missing")
	}
	if files.Command != "mcp-files" {
		t.Errorf("files.Command = %q", files.Command)
	}
	if want := []string{"--root", "/srv/data"}; !reflect.DeepEqual(files.Args, want) {
		t.Errorf("files.Args = %v, want %v", files.Args, want)
	}
	if files.Env["LOG_LEVEL"] != "debug" {
		t.Errorf("files.Env = %v, want LOG_LEVEL=debug", files.Env)
	}
}

func TestLoadSkipsInvalidEntries(t *testing.T) {
	path := writeServersFile(t, `{
		"ok": {"command": "cat"},
		"bad name": {"command": "cat"},
		"no-command": {"args": ["-v"]},
	}`)

	registry := Load(path, discardLogger())
	if registry.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", registry.Len())
	}
	if _, ok := registry.Lookup("ok"); !ok {
		t.Error("Lookup(ok) missing")
	}
	if _, ok := registry.Lookup("bad name"); ok {
		t.Error("entry with invalid name was registered")
	}
	if _, ok := registry.Lookup("no-command"); ok {
		t.Error("entry with empty command was registered")
	}
}

func TestLoadEmptyObject(t *testing.T) {
	path := writeServersFile(t, `{}`)
	registry := Load(path, discardLogger())
	if registry.Len() != 0 {
		t.Errorf("Len() = %d, want 0", registry.Len())
	}
}

func TestParseRejectsNonObject(t *testing.T) {
	if _, err := Parse([]byte(`["echo"]`)); err == nil {
		t.Error("Parse(array) = nil error, want parse failure")
	}
}
