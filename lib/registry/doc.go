// Copyright 2026 The mcpgate Authors
// SPDX-License-Identifier: Apache-2.0

// Package registry holds the gateway's read-only mapping from server
// name to spawn spec.
//
// The registry is built exactly once at startup from a JSONC servers
// file and never mutated afterwards, so every connection handler can
// read it without locking. The set of registry keys is exactly the
// set of names the session endpoint accepts: a name missing from the
// registry is an unknown server, and a connection for it is refused
// before any process is spawned.
package registry
