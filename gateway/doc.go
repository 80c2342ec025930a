// Copyright 2026 The mcpgate Authors
// SPDX-License-Identifier: Apache-2.0

// Package gateway exposes locally-spawned stdio tool servers over
// WebSocket connections.
//
// The server answers two read-only HTTP endpoints (/health and
// /servers) and upgrades connections at /mcp/{name}. Each accepted
// upgrade spawns a fresh process from the registry's spawn spec for
// that name and couples the two into a session: newline-delimited
// lines on the process's stdout become discrete text messages to the
// connection, and each inbound message is written to the process's
// stdin followed by a newline. Message bodies are opaque to the
// gateway; it neither parses nor validates them.
//
// A session ends when either side terminates. Whichever happens
// first, the teardown runs exactly once: the process group is
// terminated unconditionally, the pipes are released, and the
// connection is closed with a status describing the cause. Sessions
// are fully isolated from each other; a crashing tool affects only
// its own connection.
package gateway
