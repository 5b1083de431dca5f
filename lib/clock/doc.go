// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source for the moderator.
//
// Production code holds a [Clock] and calls Now, After, or [Wait]
// instead of the time package. [Real] returns the wall clock. [Fake]
// returns a deterministic clock that moves only when the test calls
// Advance or Set.
//
// The moderator run loop suspends in exactly one place, the inter-tick
// wait, which goes through [Wait] so that an external cancellation
// interrupts it:
//
//	if err := clock.Wait(ctx, m.clock, m.state.TickInterval); err != nil {
//	    return nil // cancelled between ticks
//	}
//
// # Fake synchronization
//
// A goroutine blocked in Wait on a [FakeClock] registers a pending
// waiter. Tests call [FakeClock.WaitForTimers] before advancing so the
// advance cannot race the registration:
//
//	go moderator.Run(ctx)
//	fake.WaitForTimers(1)
//	fake.Advance(time.Minute)
package clock
