// Copyright 2026 The mcpgate Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/mcpgate/mcpgate/lib/clock"
	"github.com/mcpgate/mcpgate/lib/registry"
)

// ServerConfig carries everything a Server needs. Registry, Logger,
// and ListenAddr are required; the rest default to permissive
// behavior (no idle timeout, no message size limit, any origin).
type ServerConfig struct {
	// ListenAddr is the TCP address to bind, for example ":7433" or
	// "127.0.0.1:0".
	ListenAddr string

	// Registry maps server names to spawn specs. It is read-only for
	// the lifetime of the server.
	Registry *registry.Registry

	Logger *slog.Logger

	// Clock drives idle checks and kill escalation. Nil means the
	// real wall clock.
	Clock clock.Clock

	// Origins lists allowed origin patterns for the WebSocket
	// upgrade. Empty means any origin is accepted.
	Origins []string

	// IdleTimeout closes sessions with no traffic in either
	// direction for this long. Zero disables the check.
	IdleTimeout time.Duration

	// KillGrace is how long a terminated process group gets between
	// SIGTERM and SIGKILL. Zero kills immediately.
	KillGrace time.Duration

	// MaxMessageBytes caps a single inbound message. Zero means
	// unlimited.
	MaxMessageBytes int64

	// ShutdownTimeout bounds the graceful drain when Serve's context
	// is canceled. Zero means 5 seconds.
	ShutdownTimeout time.Duration
}

// Server owns the listener, the HTTP surface, and the set of live
// sessions. Create one with NewServer and run it with Serve.
type Server struct {
	config ServerConfig
	clock  clock.Clock
	logger *slog.Logger

	ready chan struct{}
	addr  net.Addr

	mu          sync.Mutex
	sessions    map[string]*session
	sessionWait sync.WaitGroup
}

// NewServer validates the configuration and builds a server. Missing
// required fields are programmer errors and panic.
func NewServer(config ServerConfig) *Server {
	if config.ListenAddr == "" {
		panic("gateway.Server: ListenAddr is required")
	}
	if config.Registry == nil {
		panic("gateway.Server: Registry is required")
	}
	if config.Logger == nil {
		panic("gateway.Server: Logger is required")
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.ShutdownTimeout == 0 {
		config.ShutdownTimeout = 5 * time.Second
	}
	return &Server{
		config:   config,
		clock:    config.Clock,
		logger:   config.Logger.With("component", "gateway"),
		ready:    make(chan struct{}),
		sessions: make(map[string]*session),
	}
}

// Serve binds the listen address and serves until ctx is canceled,
// then drains: the listener closes, live sessions are told the
// server is going away, and their processes are terminated. Serve
// may be called once.
func (s *Server) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		return fmt.Errorf("binding %s: %w", s.config.ListenAddr, err)
	}
	s.addr = listener.Addr()
	close(s.ready)

	httpServer := &http.Server{
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveDone := make(chan error, 1)
	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveDone <- err
		}
		close(serveDone)
	}()

	s.logger.Info("gateway listening",
		"addr", s.addr.String(),
		"servers", s.config.Registry.Len())

	select {
	case <-ctx.Done():
		s.logger.Info("gateway shutting down", "sessions", s.sessionCount())
	case err := <-serveDone:
		if err != nil {
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	}

	// Graceful drain: stop accepting, then tell live sessions the
	// server is going away. Shutdown does not wait on hijacked
	// WebSocket connections, so sessions are closed explicitly.
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancelShutdown()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Debug("http shutdown", "error", err)
	}
	s.closeSessions(websocket.StatusGoingAway, "server shutting down")
	s.waitSessions(shutdownCtx)
	s.logger.Info("gateway stopped")
	return nil
}

// Ready is closed once the listener is bound and Addr is valid.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the bound listen address. Valid only after Ready is
// closed.
func (s *Server) Addr() net.Addr {
	return s.addr
}

func (s *Server) addSession(sess *session) {
	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()
	s.sessionWait.Add(1)
}

func (s *Server) removeSession(sess *session) {
	s.mu.Lock()
	delete(s.sessions, sess.id)
	s.mu.Unlock()
	s.sessionWait.Done()
}

func (s *Server) sessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// closeSessions tears down every live session with the given status.
// Teardown is idempotent, so sessions already ending on their own are
// unaffected. Each close runs in its own goroutine: the handshake
// blocks until the peer acknowledges, and the shutdown deadline in
// waitSessions bounds the drain, not this call.
func (s *Server) closeSessions(code websocket.StatusCode, reason string) {
	s.mu.Lock()
	open := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		open = append(open, sess)
	}
	s.mu.Unlock()
	for _, sess := range open {
		go sess.close(code, reason)
	}
}

// waitSessions blocks until every session handler has returned or the
// shutdown deadline passes.
func (s *Server) waitSessions(ctx context.Context) {
	drained := make(chan struct{})
	go func() {
		s.sessionWait.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-ctx.Done():
		s.logger.Warn("shutdown deadline passed with sessions still draining",
			"sessions", s.sessionCount())
	}
}
