// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source.
//
// Share-age tracking and the poll driver never call time.Now or
// time.NewTicker directly. They hold a Clock: Real() in production,
// Fake() in tests, where time moves only when the test calls Advance.
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	go driver.Run(ctx)       // registers a ticker on c
//	c.WaitForTimers(1)       // wait until the ticker exists
//	c.Advance(5 * time.Second)
//
// WaitForTimers closes the race between a goroutine registering a
// ticker and the test advancing past its deadline.
package clock
