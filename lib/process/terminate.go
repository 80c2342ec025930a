// Copyright 2026 The mcpgate Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"os/exec"
	"syscall"
	"time"

	"github.com/mcpgate/mcpgate/lib/clock"
)

// SetGroup configures command to run in its own process group, so that
// TerminateGroup can signal the command and every child it spawns with
// a single call. Must be applied before the command starts.
func SetGroup(command *exec.Cmd) {
	command.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// TerminateGroup signals the process group led by pid. With a positive
// grace, SIGTERM is sent first and SIGKILL follows after grace elapses
// if the group is still alive; with grace <= 0, SIGKILL is sent
// immediately. Signals target the whole group (negative pid) so
// children spawned by the process are terminated with it.
//
// Safe to call on an already-exited process: signalling a dead group
// fails with ESRCH, which is ignored.
func TerminateGroup(clk clock.Clock, pid int, grace time.Duration) {
	group := -pid
	if grace <= 0 {
		_ = syscall.Kill(group, syscall.SIGKILL)
		return
	}
	if err := syscall.Kill(group, syscall.SIGTERM); err != nil {
		// The group is already gone or unsignallable; SIGTERM
		// escalation has nothing to wait for.
		_ = syscall.Kill(group, syscall.SIGKILL)
		return
	}
	clk.AfterFunc(grace, func() {
		// ESRCH from a group that exited during the grace period
		// is harmless.
		_ = syscall.Kill(group, syscall.SIGKILL)
	})
}
