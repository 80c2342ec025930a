// Copyright 2026 The mcpgate Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"regexp"
	"sort"
)

// SpawnSpec describes how to start one tool server process. Specs are
// immutable after load and shared across sessions; two connections to
// the same name each get their own process spawned from the same spec.
type SpawnSpec struct {
	// Name is the registry key. It is carried on the struct for
	// logging and is not part of the JSON shape: the servers file
	// keys entries by name.
	Name string `json:"-"`

	// Command is the executable path or name, resolved via PATH.
	Command string `json:"command"`

	// Args are the command arguments, in order.
	Args []string `json:"args"`

	// Env overlays the gateway's own environment when the process
	// is spawned. Values here win over inherited variables.
	Env map[string]string `json:"env"`
}

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidName reports whether name is an acceptable server name: one or
// more ASCII letters, digits, underscores, or hyphens. The same
// alphabet gates the session endpoint path, so every registry key is
// reachable and nothing else resolves.
func ValidName(name string) bool { return namePattern.MatchString(name) }

// Registry is the read-only name → SpawnSpec mapping built once at
// startup. Nothing writes after New, so lookups need no
// synchronization.
type Registry struct {
	specs map[string]SpawnSpec
	names []string
}

// New builds a Registry from specs. Each spec's Name field is set to
// its key, and nil Args and Env are replaced with empty values so the
// /servers listing always shows both fields instead of JSON null.
// Keys are not validated here; Load applies the naming rules when it
// reads the servers file.
func New(specs map[string]SpawnSpec) *Registry {
	registry := &Registry{
		specs: make(map[string]SpawnSpec, len(specs)),
		names: make([]string, 0, len(specs)),
	}
	for name, spec := range specs {
		spec.Name = name
		if spec.Args == nil {
			spec.Args = []string{}
		}
		if spec.Env == nil {
			spec.Env = map[string]string{}
		}
		registry.specs[name] = spec
		registry.names = append(registry.names, name)
	}
	sort.Strings(registry.names)
	return registry
}

// Lookup returns the spec registered under name.
func (r *Registry) Lookup(name string) (SpawnSpec, bool) {
	spec, ok := r.specs[name]
	return spec, ok
}

// Names returns the server names in sorted order. The returned slice
// is a copy; callers may keep or modify it.
func (r *Registry) Names() []string {
	names := make([]string, len(r.names))
	copy(names, r.names)
	return names
}

// Specs returns the full mapping for listings. The map is shared;
// callers must treat it as read-only.
func (r *Registry) Specs() map[string]SpawnSpec {
	return r.specs
}

// Len returns the number of registered servers.
func (r *Registry) Len() int { return len(r.specs) }
