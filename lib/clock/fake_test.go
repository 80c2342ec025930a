// Copyright 2026 The mcpgate Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sync/atomic"
	"testing"
	"time"
)

var testEpoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeNowAdvances(t *testing.T) {
	fake := Fake(testEpoch)
	if got := fake.Now(); !got.Equal(testEpoch) {
		t.Errorf("Now() = %v, want %v", got, testEpoch)
	}
	fake.Advance(90 * time.Second)
	if got, want := fake.Now(), testEpoch.Add(90*time.Second); !got.Equal(want) {
		t.Errorf("Now() = %v, want %v", got, want)
	}
}

func TestAfterFuncFiresAtDeadline(t *testing.T) {
	fake := Fake(testEpoch)
	var fired atomic.Bool
	fake.AfterFunc(5*time.Second, func() { fired.Store(true) })

	fake.Advance(4 * time.Second)
	if fired.Load() {
		t.Fatal("callback fired before deadline")
	}
	fake.Advance(time.Second)
	if !fired.Load() {
		t.Fatal("callback did not fire at deadline")
	}
}

func TestAfterFuncZeroDurationRunsInline(t *testing.T) {
	fake := Fake(testEpoch)
	fired := false
	fake.AfterFunc(0, func() { fired = true })
	if !fired {
		t.Fatal("zero-duration callback did not run synchronously")
	}
}

func TestTimerStop(t *testing.T) {
	fake := Fake(testEpoch)
	var fired atomic.Bool
	timer := fake.AfterFunc(time.Second, func() { fired.Store(true) })

	if !timer.Stop() {
		t.Fatal("Stop() = false on an armed timer")
	}
	fake.Advance(time.Minute)
	if fired.Load() {
		t.Fatal("stopped timer fired")
	}
	if timer.Stop() {
		t.Fatal("Stop() = true on an already-stopped timer")
	}
}

func TestTimerResetReschedules(t *testing.T) {
	fake := Fake(testEpoch)
	var count atomic.Int32
	timer := fake.AfterFunc(time.Second, func() { count.Add(1) })

	if !timer.Reset(10 * time.Second) {
		t.Fatal("Reset() = false on an armed timer")
	}
	fake.Advance(time.Second)
	if count.Load() != 0 {
		t.Fatal("timer fired at the original deadline after Reset")
	}
	fake.Advance(9 * time.Second)
	if count.Load() != 1 {
		t.Fatalf("fired %d times, want 1", count.Load())
	}
}

func TestTimerResetRearmsAfterFiring(t *testing.T) {
	fake := Fake(testEpoch)
	var count atomic.Int32
	var timer *Timer
	// The callback reschedules its own timer, the pattern used by
	// the session idle check.
	timer = fake.AfterFunc(time.Second, func() {
		if count.Add(1) < 2 {
			timer.Reset(time.Second)
		}
	})

	fake.Advance(time.Second)
	if count.Load() != 1 {
		t.Fatalf("fired %d times after first advance, want 1", count.Load())
	}
	fake.Advance(time.Second)
	if count.Load() != 2 {
		t.Fatalf("fired %d times after second advance, want 2", count.Load())
	}
	fake.Advance(time.Minute)
	if count.Load() != 2 {
		t.Fatalf("fired %d times after final advance, want 2 (no re-arm)", count.Load())
	}
}

func TestAdvanceFiresInDeadlineOrder(t *testing.T) {
	fake := Fake(testEpoch)
	var order []int
	fake.AfterFunc(3*time.Second, func() { order = append(order, 3) })
	fake.AfterFunc(time.Second, func() { order = append(order, 1) })
	fake.AfterFunc(2*time.Second, func() { order = append(order, 2) })

	fake.Advance(time.Minute)

	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Fatalf("fire order = %v, want [1 2 3]", order)
	}
}

func TestCallbackSchedulingDuringAdvance(t *testing.T) {
	fake := Fake(testEpoch)
	var second atomic.Bool
	fake.AfterFunc(time.Second, func() {
		fake.AfterFunc(time.Second, func() { second.Store(true) })
	})

	// The inner timer is registered against the advanced clock, so it
	// must not fire inside the same window.
	fake.Advance(5 * time.Second)
	if second.Load() {
		t.Fatal("timer registered during Advance fired in the same window")
	}
	fake.Advance(time.Second)
	if !second.Load() {
		t.Fatal("timer registered during Advance never fired")
	}
}

func TestWaitForTimers(t *testing.T) {
	fake := Fake(testEpoch)
	registered := make(chan struct{})
	go func() {
		fake.AfterFunc(time.Second, func() {})
		close(registered)
	}()

	fake.WaitForTimers(1)
	<-registered
	if fake.PendingCount() != 1 {
		t.Fatalf("PendingCount() = %d, want 1", fake.PendingCount())
	}
}
