// Copyright 2026 The mcpgate Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sort"
	"sync"
	"time"
)

// Fake returns a FakeClock initialized to the given time. Time stands
// still until Advance is called.
//
// FakeClock is safe for concurrent use by multiple goroutines.
func Fake(initial time.Time) *FakeClock {
	fake := &FakeClock{current: initial}
	fake.registered = sync.NewCond(&fake.mu)
	return fake
}

// FakeClock is a deterministic Clock for tests. Scheduled callbacks
// fire only when Advance moves the clock past their deadline, in
// deadline order, synchronously in the goroutine calling Advance.
//
// Callbacks may register or reset timers on the same clock. They see
// the already-advanced time, so durations measured from it land after
// the current window and fire on a later Advance. Do not call Advance
// from within a callback.
type FakeClock struct {
	mu         sync.Mutex
	registered *sync.Cond
	current    time.Time
	timers     []*fakeTimer
}

type fakeTimer struct {
	deadline time.Time
	callback func()

	// stopped is set by Timer.Stop; fired after the callback ran.
	// Either state removes the timer from consideration until Reset
	// re-arms it.
	stopped bool
	fired   bool
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// AfterFunc schedules f to run when the clock advances past d from
// now. If d <= 0, f runs synchronously before AfterFunc returns.
func (c *FakeClock) AfterFunc(d time.Duration, f func()) *Timer {
	if d <= 0 {
		f()
		return &Timer{
			stopFunc:  func() bool { return false },
			resetFunc: func(time.Duration) bool { return false },
		}
	}

	c.mu.Lock()
	timer := &fakeTimer{
		deadline: c.current.Add(d),
		callback: f,
	}
	c.timers = append(c.timers, timer)
	c.registered.Broadcast()
	c.mu.Unlock()

	return &Timer{
		stopFunc: func() bool {
			c.mu.Lock()
			defer c.mu.Unlock()
			if timer.stopped || timer.fired {
				return false
			}
			timer.stopped = true
			return true
		},
		resetFunc: func(d time.Duration) bool {
			c.mu.Lock()
			defer c.mu.Unlock()
			wasActive := !timer.stopped && !timer.fired
			timer.stopped = false
			timer.fired = false
			timer.deadline = c.current.Add(d)
			if !wasActive {
				// The timer was removed after firing; put it back.
				c.timers = append(c.timers, timer)
				c.registered.Broadcast()
			}
			return wasActive
		},
	}
}

// Advance moves the clock forward by d and fires every timer whose
// deadline falls within the new time, in deadline order. Callbacks
// run synchronously in the calling goroutine. The due list is
// re-collected after each batch so that zero-duration resets made by
// callbacks still fire within the same call.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.current = c.current.Add(d)
	target := c.current
	c.mu.Unlock()

	for {
		due := c.takeDue(target)
		if len(due) == 0 {
			return
		}
		sort.Slice(due, func(i, j int) bool {
			return due[i].deadline.Before(due[j].deadline)
		})
		for _, timer := range due {
			timer.callback()
		}
	}
}

// takeDue removes timers due at target from the pending list, marks
// them fired, and returns them.
func (c *FakeClock) takeDue(target time.Time) []*fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()

	var due []*fakeTimer
	var pending []*fakeTimer
	for _, timer := range c.timers {
		switch {
		case timer.stopped:
			// Dropped.
		case !timer.deadline.After(target):
			timer.fired = true
			due = append(due, timer)
		default:
			pending = append(pending, timer)
		}
	}
	c.timers = pending
	return due
}

// WaitForTimers blocks until at least n timers are pending. Use it to
// synchronize with a goroutine that registers a timer before calling
// Advance, eliminating the registration race.
func (c *FakeClock) WaitForTimers(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.pendingLocked() < n {
		c.registered.Wait()
	}
}

// PendingCount returns the number of armed timers.
func (c *FakeClock) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pendingLocked()
}

func (c *FakeClock) pendingLocked() int {
	count := 0
	for _, timer := range c.timers {
		if !timer.stopped {
			count++
		}
	}
	return count
}
