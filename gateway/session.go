// Copyright 2026 The mcpgate Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/mcpgate/mcpgate/lib/clock"
	"github.com/mcpgate/mcpgate/lib/netutil"
	"github.com/mcpgate/mcpgate/lib/process"
	"github.com/mcpgate/mcpgate/lib/registry"
)

// Session states, in order. Transitions only ever move forward.
const (
	stateConnecting int32 = iota
	stateActive
	stateClosing
	stateClosed
)

// closeReasonLimit is the close frame payload room left for the
// reason after the two-byte status code.
const closeReasonLimit = 123

// handleSession resolves the requested server, accepts the WebSocket
// upgrade, spawns the tool process, and runs the session to
// completion. Unknown names are rejected with a plain 404 before any
// upgrade; nothing is spawned for an unresolved route.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	spec, ok := s.resolveServer(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	acceptOptions := &websocket.AcceptOptions{}
	if len(s.config.Origins) > 0 {
		acceptOptions.OriginPatterns = s.config.Origins
	} else {
		// No origin restriction configured: accept any caller. The
		// origin check only fires for cross-origin browser requests
		// anyway; clients without an Origin header always pass.
		acceptOptions.InsecureSkipVerify = true
	}
	conn, err := websocket.Accept(w, r, acceptOptions)
	if err != nil {
		s.logger.Warn("websocket accept failed", "server", spec.Name, "error", err)
		return
	}

	if s.config.MaxMessageBytes > 0 {
		conn.SetReadLimit(s.config.MaxMessageBytes)
	} else {
		conn.SetReadLimit(-1)
	}

	s.runSession(spec, conn)
}

// session couples one WebSocket connection to one spawned tool
// process. Each accepted upgrade gets a fresh session; nothing is
// shared between sessions beyond the registry they were resolved
// from.
type session struct {
	id     string
	logger *slog.Logger
	clock  clock.Clock

	conn    *websocket.Conn
	command *exec.Cmd
	stdin   io.WriteCloser

	ctx    context.Context
	cancel context.CancelFunc

	idleTimeout time.Duration
	killGrace   time.Duration

	lastActivity atomic.Int64
	state        atomic.Int32
	teardown     sync.Once

	// closeReason is set inside the teardown Once, before done is
	// closed; readers must wait on done first.
	closeReason string
	done        chan struct{}
}

func (s *Server) runSession(spec registry.SpawnSpec, conn *websocket.Conn) {
	sessionID := uuid.NewString()[:8]
	logger := s.logger.With("server", spec.Name, "session", sessionID)

	command := exec.Command(spec.Command, spec.Args...)
	command.Env = overlayEnvironment(os.Environ(), spec.Env)
	process.SetGroup(command)

	stdin, err := command.StdinPipe()
	if err != nil {
		failBeforeStart(conn, logger, spec, fmt.Errorf("opening stdin pipe: %w", err))
		return
	}
	stdout, err := command.StdoutPipe()
	if err != nil {
		failBeforeStart(conn, logger, spec, fmt.Errorf("opening stdout pipe: %w", err))
		return
	}
	stderr, err := command.StderrPipe()
	if err != nil {
		failBeforeStart(conn, logger, spec, fmt.Errorf("opening stderr pipe: %w", err))
		return
	}

	if err := command.Start(); err != nil {
		failBeforeStart(conn, logger, spec, fmt.Errorf("spawning %s: %w", spec.Command, err))
		return
	}

	sessionCtx, cancel := context.WithCancel(context.Background())
	sess := &session{
		id:          sessionID,
		logger:      logger,
		clock:       s.clock,
		conn:        conn,
		command:     command,
		stdin:       stdin,
		ctx:         sessionCtx,
		cancel:      cancel,
		idleTimeout: s.config.IdleTimeout,
		killGrace:   s.config.KillGrace,
		done:        make(chan struct{}),
	}
	sess.touch()
	sess.state.Store(stateActive)

	s.addSession(sess)
	defer func() {
		s.removeSession(sess)
		logger.Info("session closed",
			"reason", sess.closeReason,
			"sessions", s.sessionCount())
	}()

	logger.Info("session started",
		"command", spec.Command,
		"pid", command.Process.Pid,
		"sessions", s.sessionCount())

	outputDone := make(chan struct{})
	go sess.drainStdout(stdout, outputDone)
	go sess.drainStderr(stderr)
	go sess.waitProcess(outputDone)
	if sess.idleTimeout > 0 {
		sess.scheduleIdleCheck(sess.idleTimeout)
	}

	sess.drainConn()
	<-sess.done
}

// failBeforeStart reports a session that never reached the active
// state. The upgrade already succeeded, so the error travels to the
// client as an abnormal close embedding the cause.
func failBeforeStart(conn *websocket.Conn, logger *slog.Logger, spec registry.SpawnSpec, err error) {
	logger.Warn("session failed to start", "command", spec.Command, "error", err)
	if closeErr := conn.Close(websocket.StatusInternalError, clipCloseReason(err.Error())); closeErr != nil {
		logger.Debug("closing connection", "error", closeErr)
	}
}

// drainConn forwards inbound messages to the process's stdin, each
// terminated with a line feed, until the connection ends. It runs on
// the handler goroutine; its return triggers teardown for every
// connection-side ending.
func (sess *session) drainConn() {
	for {
		_, data, err := sess.conn.Read(sess.ctx)
		if err != nil {
			if sess.state.Load() < stateClosing && !netutil.IsExpectedClose(err) {
				sess.logger.Warn("connection read failed", "error", err)
			}
			sess.close(websocket.StatusNormalClosure, "connection closed")
			return
		}
		sess.touch()
		payload := make([]byte, 0, len(data)+1)
		payload = append(payload, data...)
		payload = append(payload, '\n')
		if _, err := sess.stdin.Write(payload); err != nil {
			// Stdin failing means the process side is gone; the
			// waiter decides the close reason if it gets there first.
			if sess.state.Load() < stateClosing && !netutil.IsExpectedClose(err) {
				sess.logger.Warn("writing to process", "error", err)
			}
			sess.close(websocket.StatusNormalClosure, "process exited")
			return
		}
	}
}

// drainStdout reassembles the process's stdout into discrete messages
// and forwards them to the connection. outputDone is closed when the
// stream ends so the waiter knows the pipe is finished before it
// reaps the process.
func (sess *session) drainStdout(stdout io.Reader, outputDone chan struct{}) {
	defer close(outputDone)
	framer := &LineFramer{}
	buffer := make([]byte, 32*1024)
	for {
		n, readErr := stdout.Read(buffer)
		if n > 0 {
			for _, message := range framer.Feed(string(buffer[:n])) {
				sess.touch()
				if err := sess.conn.Write(sess.ctx, websocket.MessageText, []byte(message)); err != nil {
					// The connection is gone. Remaining output is
					// dropped, not delivered elsewhere.
					if sess.state.Load() < stateClosing && !netutil.IsExpectedClose(err) {
						sess.logger.Warn("forwarding message failed", "error", err)
					}
					sess.close(websocket.StatusNormalClosure, "connection closed")
					return
				}
			}
		}
		if readErr != nil {
			if readErr != io.EOF && !netutil.IsExpectedClose(readErr) {
				sess.logger.Warn("reading process output", "error", readErr)
			}
			if residue := framer.Pending(); residue != "" {
				sess.logger.Debug("discarding unterminated output", "bytes", len(residue))
			}
			return
		}
	}
}

// drainStderr logs the process's stderr line by line. Stderr never
// reaches the connection.
func (sess *session) drainStderr(stderr io.Reader) {
	scanner := bufio.NewScanner(stderr)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		sess.logger.Info("tool stderr", "line", scanner.Text())
	}
	if err := scanner.Err(); err != nil && !netutil.IsExpectedClose(err) {
		sess.logger.Debug("reading process stderr", "error", err)
	}
}

// waitProcess reaps the process once its stdout is fully drained.
// Wait must not run concurrently with reads from the stdout pipe, so
// it blocks on outputDone first.
func (sess *session) waitProcess(outputDone <-chan struct{}) {
	<-outputDone
	err := sess.command.Wait()
	if sess.state.Load() < stateClosing {
		exitCode := 0
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			exitCode = exitError.ExitCode()
		} else if err != nil {
			sess.logger.Debug("waiting for process", "error", err)
		}
		sess.logger.Info("process exited", "exit_code", exitCode)
	}
	sess.close(websocket.StatusNormalClosure, "process exited")
}

// scheduleIdleCheck arms a timer for the remaining idle window. The
// callback either tears the session down or re-arms for however long
// the session has left, so a busy session is never closed.
//
// Teardown runs in its own goroutine: the close handshake blocks
// until the peer acknowledges, and Clock implementations may run
// callbacks synchronously.
func (sess *session) scheduleIdleCheck(wait time.Duration) {
	sess.clock.AfterFunc(wait, func() {
		if sess.state.Load() >= stateClosing {
			return
		}
		elapsed := time.Duration(sess.clock.Now().UnixNano() - sess.lastActivity.Load())
		if elapsed >= sess.idleTimeout {
			sess.logger.Info("closing idle session", "idle", sess.idleTimeout)
			go sess.close(websocket.StatusNormalClosure, "idle timeout")
			return
		}
		sess.scheduleIdleCheck(sess.idleTimeout - elapsed)
	})
}

func (sess *session) touch() {
	sess.lastActivity.Store(sess.clock.Now().UnixNano())
}

// close tears the session down exactly once: terminate the process
// group, release stdin, and close the connection with the given
// status. Every ending funnels here, so racing triggers are safe; the
// first caller's status wins and the rest are no-ops.
//
// The close handshake must run before the session context is
// canceled: canceling a context mid-Read force-closes the connection
// and the peer would never see the status and reason.
func (sess *session) close(code websocket.StatusCode, reason string) {
	sess.teardown.Do(func() {
		sess.state.Store(stateClosing)
		if sess.command.Process != nil {
			process.TerminateGroup(sess.clock, sess.command.Process.Pid, sess.killGrace)
		}
		if err := sess.stdin.Close(); err != nil && !netutil.IsExpectedClose(err) {
			sess.logger.Debug("closing stdin", "error", err)
		}
		if err := sess.conn.Close(code, clipCloseReason(reason)); err != nil && !netutil.IsExpectedClose(err) {
			sess.logger.Debug("closing connection", "error", err)
		}
		sess.cancel()
		sess.state.Store(stateClosed)
		sess.closeReason = reason
		close(sess.done)
	})
}

// clipCloseReason keeps a close reason within the frame limit.
func clipCloseReason(reason string) string {
	if len(reason) <= closeReasonLimit {
		return reason
	}
	return reason[:closeReasonLimit-3] + "..."
}

// overlayEnvironment merges overrides onto the ambient environment.
// exec.Cmd uses the last value for a duplicated name, so appending
// the overrides is sufficient. Overrides are appended in sorted order
// to keep the spawn environment deterministic.
func overlayEnvironment(ambient []string, overrides map[string]string) []string {
	if len(overrides) == 0 {
		return ambient
	}
	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	sort.Strings(names)
	merged := make([]string, 0, len(ambient)+len(overrides))
	merged = append(merged, ambient...)
	for _, name := range names {
		merged = append(merged, name+"="+overrides[name])
	}
	return merged
}
