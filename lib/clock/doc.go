// Copyright 2026 The mcpgate Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time abstraction so that code
// with timers (idle teardown, kill escalation) is testable without
// real waiting.
//
// Production code accepts a Clock value instead of calling time.Now or
// time.AfterFunc directly. Real() provides standard library behavior;
// Fake() provides a deterministic clock that advances only when the
// test calls Advance:
//
//	fakeClock := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	server := gateway.NewServer(gateway.ServerConfig{Clock: fakeClock, ...})
//	// ... start the code under test ...
//	fakeClock.WaitForTimers(1) // block until the timer is registered
//	fakeClock.Advance(30 * time.Second)
package clock
