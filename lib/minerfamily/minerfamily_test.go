// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package minerfamily

import (
	"slices"
	"testing"

	"github.com/bureau-foundation/rigwatch/lib/devicemap"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name     string
		fee      float64
		canProbe bool
	}{
		{"cryptodredge", 1.0, false},
		{"trex", 1.0, false},
		{"miniz", 2.0, true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			family, ok := Lookup(test.name)
			if !ok {
				t.Fatalf("Lookup(%q) not found", test.name)
			}
			if family.FeePercent != test.fee {
				t.Errorf("FeePercent = %v, want %v", family.FeePercent, test.fee)
			}
			if family.CanProbe() != test.canProbe {
				t.Errorf("CanProbe() = %v, want %v", family.CanProbe(), test.canProbe)
			}
			if family.Vendor != "NVIDIA" {
				t.Errorf("Vendor = %q, want NVIDIA", family.Vendor)
			}
		})
	}

	if _, ok := Lookup("phoenix"); ok {
		t.Error("Lookup(phoenix) found a family")
	}
}

func TestLookupReturnsCopy(t *testing.T) {
	family, _ := Lookup("miniz")
	family.ProbeArgs[0] = "--mutated"
	again, _ := Lookup("miniz")
	if again.ProbeArgs[0] != "-ci" {
		t.Errorf("built-in ProbeArgs mutated through Lookup: %v", again.ProbeArgs)
	}
}

func TestNames(t *testing.T) {
	want := []string{"cryptodredge", "miniz", "trex"}
	if got := Names(); !slices.Equal(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}

func TestMiniZMatcher(t *testing.T) {
	family, _ := Lookup("miniz")
	matcher, err := family.Matcher()
	if err != nil {
		t.Fatalf("Matcher: %v", err)
	}
	output := "miniZ v2.0c\n" +
		"#0 GeForce RTX 3080 busID: 2\n" +
		"[ 1] GeForce GTX 1070 | pci bus 0x0a\n" +
		"Driver 535.104.05\n"

	entries := devicemap.ParseProbe(output, matcher)
	want := []devicemap.ProbeEntry{
		{LocalID: 0, Key: devicemap.MatchBus, Locator: "2"},
		{LocalID: 1, Key: devicemap.MatchBus, Locator: "0x0a"},
	}
	if !slices.Equal(entries, want) {
		t.Errorf("entries = %+v, want %+v", entries, want)
	}
}
