// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package shares turns a miner's cumulative share counters into share
// recency.
//
// Miner APIs expose running totals of accepted and rejected shares,
// not a feed of share events. A [Tracker] remembers the last totals it
// saw for each device and stamps the time whenever a total changes, so
// the monitor can report "no accepted share for N minutes" across any
// number of polls.
//
// Device ids are the miner's local ordinals, which are only unique
// within one miner process. A Tracker therefore belongs to exactly one
// monitored instance: create it when the instance starts and drop it
// when the instance stops. Never share one between instances.
package shares

import (
	"sync"
	"time"
)

// State is the tracked share history of one device. A zero
// LastAcceptedAt or LastRejectedAt means no change has been observed
// since tracking began.
type State struct {
	LocalID        int
	Accepted       int
	Rejected       int
	LastAcceptedAt time.Time
	LastRejectedAt time.Time
}

// AcceptedSeen reports whether an accepted-count change has been
// observed.
func (s State) AcceptedSeen() bool { return !s.LastAcceptedAt.IsZero() }

// RejectedSeen reports whether a rejected-count change has been
// observed.
func (s State) RejectedSeen() bool { return !s.LastRejectedAt.IsZero() }

// Tracker holds per-device State for one miner instance. Safe for
// concurrent use.
type Tracker struct {
	mu     sync.Mutex
	states map[int]*State
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{states: make(map[int]*State)}
}

// Observe records the counters reported for localID at now and
// returns the updated State.
//
// The first observation of a device only establishes the baseline: its
// timestamps stay zero because there is nothing to compare against.
// Afterwards a counter that differs from the stored one (in either
// direction, since a miner restart resets its totals) is stored and
// its timestamp set to now. Unchanged counters leave timestamps alone.
func (t *Tracker) Observe(localID, accepted, rejected int, now time.Time) State {
	t.mu.Lock()
	defer t.mu.Unlock()

	state, ok := t.states[localID]
	if !ok {
		state = &State{LocalID: localID, Accepted: accepted, Rejected: rejected}
		t.states[localID] = state
		return *state
	}
	if state.Accepted != accepted {
		state.Accepted = accepted
		state.LastAcceptedAt = now
	}
	if state.Rejected != rejected {
		state.Rejected = rejected
		state.LastRejectedAt = now
	}
	return *state
}

// Lookup returns the State for localID, if the device has been
// observed.
func (t *Tracker) Lookup(localID int) (State, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	state, ok := t.states[localID]
	if !ok {
		return State{}, false
	}
	return *state, true
}

// Len returns the number of tracked devices.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.states)
}
