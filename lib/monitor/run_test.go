// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/bureau-foundation/rigwatch/lib/clock"
	"github.com/bureau-foundation/rigwatch/lib/stats"
	"github.com/bureau-foundation/rigwatch/lib/testutil"
)

func TestRun(t *testing.T) {
	server := testutil.NewMinerServer(t)
	server.SetResponse("summary", "KHS=1")
	server.SetResponse("threads", "GPU=0;POWER=150")
	fake := clock.Fake(epoch)
	instance := newTestInstance(t, server.Address(), fake, nil)

	reports := make(chan stats.Report, 4)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		Run(ctx, fake, 5*time.Second, []*Instance{instance}, func(report stats.Report) {
			reports <- report
		})
	}()

	first := testutil.RequireReceive(t, reports, 5*time.Second, "waiting for immediate poll")
	if !first.Time.Equal(epoch) || first.TotalPower != 150 {
		t.Errorf("first report = %v power %d, want epoch power 150", first.Time, first.TotalPower)
	}

	fake.WaitForTimers(1)
	fake.Advance(5 * time.Second)
	second := testutil.RequireReceive(t, reports, 5*time.Second, "waiting for ticked poll")
	if !second.Time.Equal(epoch.Add(5 * time.Second)) {
		t.Errorf("second report time = %v, want epoch+5s", second.Time)
	}

	cancel()
	testutil.RequireClosed(t, done, 5*time.Second, "waiting for Run to return")
	if got := server.Requests("summary"); got != 2 {
		t.Errorf("summary requests = %d, want 2", got)
	}
}

func TestRunIndependentInstances(t *testing.T) {
	healthy := testutil.NewMinerServer(t)
	healthy.SetResponse("summary", "KHS=1")
	hung := testutil.NewMinerServer(t)
	hung.SetSilent(true)

	fake := clock.Fake(epoch)
	good := newTestInstance(t, healthy.Address(), fake, nil)
	stuck := newTestInstance(t, hung.Address(), fake, func(c *Config) {
		c.Name = "stuck"
		c.PollTimeout = 10 * time.Second
	})

	reports := make(chan stats.Report, 4)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		Run(ctx, fake, 5*time.Second, []*Instance{good, stuck}, func(report stats.Report) {
			reports <- report
		})
	}()

	report := testutil.RequireReceive(t, reports, 2*time.Second, "healthy instance blocked by hung one")
	if report.Instance != "miniz-0" {
		t.Errorf("first report from %q, want miniz-0", report.Instance)
	}

	cancel()
	testutil.RequireClosed(t, done, 5*time.Second, "waiting for Run to return")
}
