// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package minerfamily holds the built-in defaults for the miner
// programs rigwatch knows how to poll. Every family here speaks the
// ccminer-style text API on its TCP port; they differ in developer
// fee, GPU vendor, and whether the binary can list its devices.
package minerfamily

import (
	"sort"

	"github.com/bureau-foundation/rigwatch/lib/devicemap"
)

// Family is the default configuration for one miner program.
type Family struct {
	// Name is the identifier used in configuration.
	Name string

	// Vendor is the GPU vendor the miner enumerates. Only host
	// devices of this vendor take part in ordinal mapping.
	Vendor string

	// FeePercent is the developer fee the miner keeps, in percent of
	// hashrate.
	FeePercent float64

	// ProbeArgs makes the binary print its device list and exit.
	// Empty when the miner has no such mode.
	ProbeArgs []string

	// ProbePattern and ProbeKey configure the matcher for the device
	// list. See [devicemap.NewMatcher].
	ProbePattern string
	ProbeKey     devicemap.MatchKey
}

// CanProbe reports whether the family has a device-listing mode.
func (f Family) CanProbe() bool {
	return len(f.ProbeArgs) > 0 && f.ProbePattern != ""
}

// Matcher compiles the family's probe matcher.
func (f Family) Matcher() (devicemap.Matcher, error) {
	return devicemap.NewMatcher(f.ProbePattern, f.ProbeKey)
}

// miniZ -ci prints one line per CUDA device with its ordinal and PCI
// bus, e.g. "#0 GeForce RTX 3080 busID: 2" or "[ 1] ... pci bus 0x0a".
const miniZPattern = `(?i)^\s*\[?\s*#?(?P<id>\d+)\s*\]?.*?\bbus\s*(?:id)?\s*[:=#]?\s*(?P<locator>(?:0x)?[0-9a-f]+)\b`

var builtin = map[string]Family{
	"cryptodredge": {
		Name:       "cryptodredge",
		Vendor:     "NVIDIA",
		FeePercent: 1.0,
	},
	"trex": {
		Name:       "trex",
		Vendor:     "NVIDIA",
		FeePercent: 1.0,
	},
	"miniz": {
		Name:         "miniz",
		Vendor:       "NVIDIA",
		FeePercent:   2.0,
		ProbeArgs:    []string{"-ci"},
		ProbePattern: miniZPattern,
		ProbeKey:     devicemap.MatchBus,
	},
}

// Lookup returns the built-in defaults for name.
func Lookup(name string) (Family, bool) {
	family, ok := builtin[name]
	if !ok {
		return Family{}, false
	}
	family.ProbeArgs = append([]string(nil), family.ProbeArgs...)
	return family, true
}

// Names returns the known family names, sorted.
func Names() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
