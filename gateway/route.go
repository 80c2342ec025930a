// Copyright 2026 The mcpgate Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mcpgate/mcpgate/lib/registry"
)

// routes builds the HTTP mux: two read-only listing endpoints plus
// the session upgrade endpoint.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /servers", s.handleServers)
	mux.HandleFunc("GET /mcp/{name}", s.handleSession)
	return mux
}

type healthResponse struct {
	Status  string   `json:"status"`
	Servers []string `json:"servers"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, healthResponse{
		Status:  "ok",
		Servers: s.config.Registry.Names(),
	})
}

func (s *Server) handleServers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, s.config.Registry.Specs())
}

// resolveServer validates the {name} wildcard and looks it up. The
// mux decodes escape sequences before binding wildcards, so a request
// for /mcp/e%63ho resolves the wildcard to "echo". The server-name
// alphabet never needs escaping; requiring the raw path to spell the
// name literally keeps escaped forms from aliasing registered names.
func (s *Server) resolveServer(r *http.Request) (registry.SpawnSpec, bool) {
	name := r.PathValue("name")
	if !registry.ValidName(name) {
		return registry.SpawnSpec{}, false
	}
	if r.URL.EscapedPath() != "/mcp/"+name {
		return registry.SpawnSpec{}, false
	}
	return s.config.Registry.Lookup(name)
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Debug("writing response", "error", err)
	}
}
