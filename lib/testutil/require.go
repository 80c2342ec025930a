// Copyright 2026 The mcpgate Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import "time"

// testingT is the subset of *testing.T the helpers need. Declared as
// an interface so the helpers stay usable from benchmarks and fuzz
// targets.
type testingT interface {
	Helper()
	Fatalf(format string, args ...any)
}

// RequireReceive reads one value from ch within timeout, or fails the
// test. The what string names the awaited event in the failure message.
//
//	message := testutil.RequireReceive(t, messages, 5*time.Second, "first forwarded message")
func RequireReceive[T any](t testingT, ch <-chan T, timeout time.Duration, what string) T {
	t.Helper()
	select {
	case value, ok := <-ch:
		if !ok {
			t.Fatalf("channel closed while waiting for %s", what)
		}
		return value
	case <-time.After(timeout):
		t.Fatalf("timed out after %v waiting for %s", timeout, what)
	}
	panic("unreachable")
}

// RequireSend sends value on ch within timeout, or fails the test.
func RequireSend[T any](t testingT, ch chan<- T, value T, timeout time.Duration, what string) {
	t.Helper()
	select {
	case ch <- value:
	case <-time.After(timeout):
		t.Fatalf("timed out after %v sending %s", timeout, what)
	}
}

// RequireClosed waits for ch to be closed (or to receive a value)
// within timeout, or fails the test. Use it for done and ready
// channels that signal by closing.
func RequireClosed(t testingT, ch <-chan struct{}, timeout time.Duration, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(timeout):
		t.Fatalf("timed out after %v waiting for %s", timeout, what)
	}
}
