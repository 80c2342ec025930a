// Copyright 2026 The mcpgate Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil classifies connection errors for the gateway's
// logging decisions.
package netutil

import (
	"context"
	"errors"
	"io"
	"net"
	"syscall"

	"github.com/coder/websocket"
)

// IsExpectedClose reports whether err is part of normal session
// teardown rather than a failure worth logging: EOF, a closed
// connection or pipe, broken pipe, connection reset, context
// cancellation, or a WebSocket closure with a routine status.
//
// Teardown closes both the connection and the process pipes on the
// first termination signal, so the surviving side's in-flight read or
// write routinely fails with one of these.
func IsExpectedClose(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return true
	}
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.EPIPE || errno == syscall.ECONNRESET
	}
	return false
}
