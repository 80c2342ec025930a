// Copyright 2026 The mcpgate Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides entrypoint and subprocess helpers shared by
// the mcpgate binaries.
//
// [Fatal] is the standard binary entrypoint error handler: it reports
// errors from run() in main(), where the structured logger may not be
// initialized yet.
//
// [SetGroup] and [TerminateGroup] manage tool subprocesses as process
// groups, so that terminating a tool also terminates every child it
// spawned. Without the group, only the direct child receives the
// signal and grandchildren survive holding the inherited pipe
// descriptors, which keeps the stdout drain blocked indefinitely.
package process
