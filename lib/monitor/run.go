// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/bureau-foundation/rigwatch/lib/clock"
	"github.com/bureau-foundation/rigwatch/lib/stats"
)

// Sink receives reports. Run calls it from one goroutine per
// instance, so it must be safe for concurrent use.
type Sink func(stats.Report)

// Run polls every instance immediately and then once per interval
// until ctx is done, passing each report to sink. Each instance has
// its own goroutine and ticker, so a hung miner delays only its own
// reports. Run returns after all goroutines have exited.
func Run(ctx context.Context, clk clock.Clock, interval time.Duration, instances []*Instance, sink Sink) {
	var wg sync.WaitGroup
	for _, instance := range instances {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runInstance(ctx, clk, interval, instance, sink)
		}()
	}
	wg.Wait()
}

func runInstance(ctx context.Context, clk clock.Clock, interval time.Duration, instance *Instance, sink Sink) {
	ticker := clk.NewTicker(interval)
	defer ticker.Stop()

	for {
		report := instance.Poll(ctx)
		if ctx.Err() != nil {
			return
		}
		sink(report)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
