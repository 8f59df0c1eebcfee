// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package devicemap reconciles a miner's device numbering with the
// host's stable GPU identifiers.
//
// A miner reports per-device telemetry under its own local ids: small
// ordinals that depend on the miner's enumeration order (CUDA order,
// OpenCL platform order, or something vendor specific). The host knows
// GPUs by stable ids from [hwinfo]. A [Mapper] holds the translation
// for one miner instance.
//
// The mapping starts as an ordinal guess: the Nth host device of the
// miner's vendor, in PCI slot order, is assumed to be local id N. When
// the miner can print its own device list, [Probe] and [ParseProbe]
// recover the real assignment and [Mapper.ApplyProbe] overwrites the
// guesses it confirms. Devices the probe does not mention keep their
// guess.
//
// When a confirmed device claims a local id another device guessed,
// the reverse index ([Mapper.StableID]) names the confirmed device.
// Consumers attribute a record to a device only if the device owns its
// local id in the reverse index, so one record never counts twice.
package devicemap

import (
	"sync"

	"github.com/bureau-foundation/rigwatch/lib/hwinfo"
)

// Source records how a mapping entry was established.
type Source int

const (
	// SourceOrdinal is a guess from host enumeration order.
	SourceOrdinal Source = iota

	// SourceProbe was confirmed by the miner's own device listing.
	SourceProbe
)

// String returns "ordinal" or "probe".
func (s Source) String() string {
	switch s {
	case SourceOrdinal:
		return "ordinal"
	case SourceProbe:
		return "probe"
	default:
		return "unknown"
	}
}

type entry struct {
	localID int
	source  Source
}

// Mapper is the bidirectional stable id / local id table for one miner
// instance. Safe for concurrent use.
type Mapper struct {
	mu      sync.RWMutex
	devices []hwinfo.GPU
	forward map[string]entry
	reverse map[int]string
}

// NewOrdinal assigns local ids 0..N-1 to devices in the order given.
// Callers pass the output of [hwinfo.Enumerate], which is already
// filtered to the miner's vendor and sorted by PCI slot.
func NewOrdinal(devices []hwinfo.GPU) *Mapper {
	mapper := &Mapper{
		devices: append([]hwinfo.GPU(nil), devices...),
		forward: make(map[string]entry, len(devices)),
		reverse: make(map[int]string, len(devices)),
	}
	for index, device := range mapper.devices {
		mapper.forward[device.StableID] = entry{localID: index, source: SourceOrdinal}
		mapper.reverse[index] = device.StableID
	}
	return mapper
}

// Devices returns the mapped host devices in host order.
func (m *Mapper) Devices() []hwinfo.GPU {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]hwinfo.GPU(nil), m.devices...)
}

// Len returns the number of mapped devices.
func (m *Mapper) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.devices)
}

// Resolve returns the local id the miner uses for stableID.
func (m *Mapper) Resolve(stableID string) (int, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mapped, ok := m.forward[stableID]
	return mapped.localID, ok
}

// StableID returns the device that owns localID.
func (m *Mapper) StableID(localID int) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stableID, ok := m.reverse[localID]
	return stableID, ok
}

// Owns reports whether stableID resolves to a local id whose reverse
// entry points back at stableID. A device shadowed by a confirmed
// claim on its guessed id does not own it.
func (m *Mapper) Owns(stableID string) (int, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mapped, ok := m.forward[stableID]
	if !ok {
		return 0, false
	}
	return mapped.localID, m.reverse[mapped.localID] == stableID
}

// Source returns how the mapping for stableID was established.
func (m *Mapper) Source(stableID string) (Source, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mapped, ok := m.forward[stableID]
	return mapped.source, ok
}

// ApplyProbe overwrites ordinal guesses with the assignments confirmed
// by entries and returns the number of devices confirmed. For each
// host device the first entry that matches it is used; a local id
// already claimed by a confirmed device is not reassigned. Entries that
// match no host device are ignored. No entries leaves the mapper
// unchanged.
func (m *Mapper) ApplyProbe(entries []ProbeEntry) int {
	if len(entries) == 0 {
		return 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	claimed := make(map[int]string)
	confirmed := 0
	for _, device := range m.devices {
		for _, probed := range entries {
			if !probed.matches(device) {
				continue
			}
			if owner, taken := claimed[probed.LocalID]; taken && owner != device.StableID {
				continue
			}
			previous := m.forward[device.StableID]
			if m.reverse[previous.localID] == device.StableID {
				delete(m.reverse, previous.localID)
			}
			m.forward[device.StableID] = entry{localID: probed.LocalID, source: SourceProbe}
			m.reverse[probed.LocalID] = device.StableID
			claimed[probed.LocalID] = device.StableID
			confirmed++
			break
		}
	}
	return confirmed
}
