// Copyright 2026 The mcpgate Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock abstracts the time operations the gateway needs: reading the
// current time and scheduling one-shot callbacks. Production code
// injects Real(); tests inject Fake() and advance time explicitly.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// AfterFunc waits for duration d, then calls f in its own
	// goroutine (real) or synchronously during Advance (fake).
	// The returned Timer cancels or reschedules the pending call.
	AfterFunc(d time.Duration, f func()) *Timer
}

// Timer is a scheduled one-shot callback created by AfterFunc.
type Timer struct {
	stopFunc  func() bool
	resetFunc func(time.Duration) bool
}

// Stop prevents the timer from firing. Returns true if the call stops
// the timer, false if it already fired or was stopped.
func (t *Timer) Stop() bool { return t.stopFunc() }

// Reset reschedules the timer to fire after duration d, re-arming it
// if it already fired. Returns true if the timer was active before the
// reset.
func (t *Timer) Reset(d time.Duration) bool { return t.resetFunc(d) }
