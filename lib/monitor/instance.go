// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package monitor runs the per-instance polling pass.
//
// An [Instance] owns everything that is scoped to one miner process:
// its API client, its device mapping, and its share tracker. One call
// to [Instance.Poll] asks the miner for its summary and, only if the
// summary came back, for its per-device table, and aggregates both
// into a [stats.Report]. A failed poll is not an error: it yields an
// empty report and the next poll starts from scratch.
//
// [Run] drives a set of instances on a fixed interval, one goroutine
// each, and hands every report to a sink.
package monitor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/bureau-foundation/rigwatch/lib/clock"
	"github.com/bureau-foundation/rigwatch/lib/devicemap"
	"github.com/bureau-foundation/rigwatch/lib/hwinfo"
	"github.com/bureau-foundation/rigwatch/lib/minerapi"
	"github.com/bureau-foundation/rigwatch/lib/minerfamily"
	"github.com/bureau-foundation/rigwatch/lib/probecache"
	"github.com/bureau-foundation/rigwatch/lib/shares"
	"github.com/bureau-foundation/rigwatch/lib/stats"
)

// Config describes one monitored miner process.
type Config struct {
	Name       string
	Family     minerfamily.Family
	APIAddress string

	// Binary is the miner executable, needed only for the probe.
	Binary string

	// Probe runs the family's device listing once in Start.
	Probe bool

	// PollTimeout bounds one Poll, both API round trips included.
	PollTimeout time.Duration

	// ProbeTimeout bounds one run of the device listing.
	ProbeTimeout time.Duration

	// UnresponsiveAfter flags reports once no summary has arrived for
	// this long. Zero disables the flag.
	UnresponsiveAfter time.Duration
}

// Deps are the collaborators an Instance uses.
type Deps struct {
	Clock  clock.Clock
	Logger *slog.Logger

	// Cache stores probe output across restarts. Nil disables
	// caching.
	Cache *probecache.Cache
}

// Instance polls one miner process.
type Instance struct {
	config Config
	clock  clock.Clock
	logger *slog.Logger
	cache  *probecache.Cache
	client *minerapi.Client

	// mu serializes Start, Poll, and Close. mapper and tracker are
	// created with the Instance and never shared with another.
	mu        sync.Mutex
	mapper    *devicemap.Mapper
	tracker   *shares.Tracker
	lastHeard time.Time
	closed    bool
}

// NewInstance creates an Instance for the host GPUs in gpus. Only
// devices of the family's vendor take part in the ordinal mapping;
// gpus must be in host (PCI slot) order.
func NewInstance(config Config, gpus []hwinfo.GPU, deps Deps) *Instance {
	logger := deps.Logger.With("instance", config.Name, "family", config.Family.Name)
	devices := hwinfo.FilterVendor(gpus, config.Family.Vendor)
	return &Instance{
		config:    config,
		clock:     deps.Clock,
		logger:    logger,
		cache:     deps.Cache,
		client:    minerapi.NewClient(config.APIAddress, config.PollTimeout, logger),
		mapper:    devicemap.NewOrdinal(devices),
		tracker:   shares.NewTracker(),
		lastHeard: deps.Clock.Now(),
	}
}

// Name returns the configured instance name.
func (i *Instance) Name() string {
	return i.config.Name
}

// Mapper returns the instance's device mapping.
func (i *Instance) Mapper() *devicemap.Mapper {
	return i.mapper
}

// Start reconciles the ordinal device mapping with the miner's own
// device listing, when the instance is configured to probe. Failures
// are logged and leave the ordinal mapping in place.
func (i *Instance) Start(ctx context.Context) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.config.Probe || i.closed {
		return
	}
	if i.mapper.Len() == 0 {
		i.logger.Info("no host devices for vendor, skipping device probe", "vendor", i.config.Family.Vendor)
		return
	}
	matcher, err := i.config.Family.Matcher()
	if err != nil {
		i.logger.Warn("device probe matcher invalid", "error", err)
		return
	}

	output, err := i.probeOutput(ctx)
	if err != nil {
		i.logger.Warn("device probe failed", "binary", i.config.Binary, "error", err)
	}
	entries := devicemap.ParseProbe(output, matcher)
	confirmed := i.mapper.ApplyProbe(entries)
	i.logger.Info("device mapping reconciled",
		"devices", i.mapper.Len(),
		"probe_entries", len(entries),
		"confirmed", confirmed,
	)
}

// probeOutput returns cached probe output or runs the probe and
// caches a successful result.
func (i *Instance) probeOutput(ctx context.Context) (string, error) {
	var key probecache.Key
	cacheable := false
	if i.cache != nil {
		devices := i.mapper.Devices()
		stableIDs := make([]string, len(devices))
		for index, device := range devices {
			stableIDs[index] = device.StableID
		}
		var err error
		key, err = probecache.NewKey(i.config.Binary, i.config.Family.ProbeArgs, stableIDs)
		if err != nil {
			return "", err
		}
		cacheable = true

		output, err := i.cache.Load(key)
		if err == nil {
			i.logger.Debug("using cached device probe")
			return output, nil
		}
		if !errors.Is(err, probecache.ErrMiss) {
			i.logger.Warn("reading probe cache", "error", err)
		}
	}

	output, err := devicemap.Probe(ctx, devicemap.ProbeConfig{
		Binary:  i.config.Binary,
		Args:    i.config.Family.ProbeArgs,
		Timeout: i.config.ProbeTimeout,
	})
	if err != nil {
		return output, err
	}
	if cacheable {
		if err := i.cache.Store(key, output, i.clock.Now()); err != nil {
			i.logger.Warn("writing probe cache", "error", err)
		}
	}
	return output, nil
}

// Poll runs one pass: summary, then per-device table, then
// aggregation. The per-device table is requested only when the summary
// reply was non-empty. Poll never returns an error; a pass that gets
// nothing yields [stats.Empty].
func (i *Instance) Poll(ctx context.Context) stats.Report {
	i.mu.Lock()
	defer i.mu.Unlock()

	now := i.clock.Now()
	if i.closed {
		return stats.Empty(i.config.Name, now)
	}

	if i.config.PollTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.config.PollTimeout)
		defer cancel()
	}

	payload := i.client.Fetch(ctx, minerapi.CommandSummary)
	if payload == "" {
		report := stats.Empty(i.config.Name, now)
		report.Unresponsive = i.unresponsive(now)
		if report.Unresponsive {
			i.logger.Warn("miner unresponsive", "silent_for", now.Sub(i.lastHeard))
		}
		return report
	}
	i.lastHeard = now

	summary, err := minerapi.ParseSummary(payload)
	if err != nil {
		i.logger.Warn("dropping malformed summary", "error", err)
	}

	threads := i.client.Fetch(ctx, minerapi.CommandThreads)
	records, err := minerapi.ParseDevices(threads)
	if err != nil {
		i.logger.Warn("dropping malformed device blocks", "error", err, "kept", len(records))
	}

	return stats.Aggregate(stats.Input{
		Instance:    i.config.Name,
		Summary:     summary,
		Records:     records,
		Mapper:      i.mapper,
		FeePercent:  i.config.Family.FeePercent,
		Now:         now,
		RawResponse: payload,
	}, i.tracker)
}

func (i *Instance) unresponsive(now time.Time) bool {
	return i.config.UnresponsiveAfter > 0 && now.Sub(i.lastHeard) > i.config.UnresponsiveAfter
}

// Close discards the instance's share history. Later polls return
// empty reports without contacting the miner.
func (i *Instance) Close() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.closed = true
	i.tracker = shares.NewTracker()
}
