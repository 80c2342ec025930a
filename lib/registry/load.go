// Copyright 2026 The mcpgate Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/tidwall/jsonc"
)

// Load reads the servers file at path and builds the registry. The
// file is JSONC (JSON extended with // line comments, /* block
// comments */, and trailing commas) mapping each server name to its
// spawn spec:
//
//	{
//	    // Echoes every message back.
//	    "echo": {"command": "cat"},
//	    "files": {
//	        "command": "mcp-files",
//	        "args": ["--root", "/srv/data"],
//	        "env": {"LOG_LEVEL": "debug"},
//	    },
//	}
//
// A missing or unparsable file is not fatal: Load logs a warning and
// returns an empty registry, so the gateway still answers /health and
// /servers with zero entries. Entries with an invalid name or an
// empty command are skipped with a warning and the rest of the file
// loads; a skipped entry would otherwise be registered but
// unreachable through the session endpoint.
func Load(path string, logger *slog.Logger) *Registry {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("servers file unavailable, starting with an empty registry",
			"path", path, "error", err)
		return New(nil)
	}

	parsed, err := Parse(data)
	if err != nil {
		logger.Warn("servers file malformed, starting with an empty registry",
			"path", path, "error", err)
		return New(nil)
	}

	specs := make(map[string]SpawnSpec, len(parsed))
	for name, spec := range parsed {
		if !ValidName(name) {
			logger.Warn("skipping server with invalid name", "name", name)
			continue
		}
		if spec.Command == "" {
			logger.Warn("skipping server with empty command", "name", name)
			continue
		}
		specs[name] = spec
	}

	registry := New(specs)
	logger.Info("registry loaded", "path", path, "servers", registry.Len())
	return registry
}

// Parse parses servers-file bytes into raw specs. Per-entry
// validation (naming rules, required command) is Load's job.
func Parse(data []byte) (map[string]SpawnSpec, error) {
	stripped := jsonc.ToJSON(data)

	var specs map[string]SpawnSpec
	if err := json.Unmarshal(stripped, &specs); err != nil {
		return nil, fmt.Errorf("parsing servers file: %w", err)
	}
	return specs, nil
}
