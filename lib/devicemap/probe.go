// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package devicemap

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/bureau-foundation/rigwatch/lib/hwinfo"
)

// MatchKey names the host device attribute a probe locator is compared
// against.
type MatchKey string

const (
	// MatchBus compares the locator with the PCI bus number. Locators
	// are decimal unless prefixed with 0x.
	MatchBus MatchKey = "bus"

	// MatchSlot compares the locator with the full PCI address, in
	// "dddd:bb:dd.f" or "bb:dd.f" form.
	MatchSlot MatchKey = "slot"

	// MatchUUID compares the locator with the vendor unique id,
	// case-insensitively.
	MatchUUID MatchKey = "uuid"
)

// Matcher extracts (local id, locator) pairs from lines of probe
// output. Pattern must have named groups "id" and "locator".
type Matcher struct {
	Pattern *regexp.Regexp
	Key     MatchKey
}

// NewMatcher compiles pattern and checks that it has the required
// groups and that key is known.
func NewMatcher(pattern string, key MatchKey) (Matcher, error) {
	switch key {
	case MatchBus, MatchSlot, MatchUUID:
	default:
		return Matcher{}, fmt.Errorf("unknown match key %q (want bus, slot, or uuid)", key)
	}
	compiled, err := regexp.Compile(pattern)
	if err != nil {
		return Matcher{}, fmt.Errorf("compiling probe pattern: %w", err)
	}
	if compiled.SubexpIndex("id") < 0 || compiled.SubexpIndex("locator") < 0 {
		return Matcher{}, fmt.Errorf("probe pattern %q must have named groups \"id\" and \"locator\"", pattern)
	}
	return Matcher{Pattern: compiled, Key: key}, nil
}

// ProbeEntry is one device line recovered from probe output.
type ProbeEntry struct {
	LocalID int
	Key     MatchKey
	Locator string
}

func (p ProbeEntry) matches(device hwinfo.GPU) bool {
	switch p.Key {
	case MatchBus:
		bus, err := parseBus(p.Locator)
		if err != nil {
			return false
		}
		address, err := hwinfo.ParsePCIAddress(device.PCISlot)
		return err == nil && address.Bus == bus
	case MatchSlot:
		want, err := hwinfo.ParsePCIAddress(p.Locator)
		if err != nil {
			return false
		}
		address, err := hwinfo.ParsePCIAddress(device.PCISlot)
		return err == nil && address == want
	case MatchUUID:
		return device.UniqueID != "" && strings.EqualFold(p.Locator, device.UniqueID)
	default:
		return false
	}
}

func parseBus(locator string) (int, error) {
	if hex, found := strings.CutPrefix(strings.ToLower(locator), "0x"); found {
		value, err := strconv.ParseUint(hex, 16, 8)
		return int(value), err
	}
	value, err := strconv.ParseUint(locator, 10, 8)
	return int(value), err
}

// ParseProbe applies matcher to each line of output. Lines that do not
// match, or whose id is not a non-negative integer, or whose locator
// is empty, are skipped. Unparsable output yields no entries.
func ParseProbe(output string, matcher Matcher) []ProbeEntry {
	if matcher.Pattern == nil {
		return nil
	}
	idIndex := matcher.Pattern.SubexpIndex("id")
	locatorIndex := matcher.Pattern.SubexpIndex("locator")
	if idIndex < 0 || locatorIndex < 0 {
		return nil
	}

	var entries []ProbeEntry
	for _, line := range strings.Split(output, "\n") {
		groups := matcher.Pattern.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if groups == nil {
			continue
		}
		localID, err := strconv.Atoi(strings.TrimSpace(groups[idIndex]))
		if err != nil || localID < 0 {
			continue
		}
		locator := strings.TrimSpace(groups[locatorIndex])
		if locator == "" {
			continue
		}
		entries = append(entries, ProbeEntry{LocalID: localID, Key: matcher.Key, Locator: locator})
	}
	return entries
}

// ProbeConfig describes one run of a miner's device-listing mode.
type ProbeConfig struct {
	Binary  string
	Args    []string
	Timeout time.Duration
}

// Probe runs the miner binary with the listing arguments and returns
// its combined stdout and stderr. The binary runs in its own process
// group; when the timeout or ctx expires the whole group is killed.
//
// Output captured before a failure is returned alongside the error so
// the caller can still try to parse it.
func Probe(ctx context.Context, config ProbeConfig) (string, error) {
	if config.Binary == "" {
		return "", errors.New("probe: no miner binary configured")
	}
	if config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.Timeout)
		defer cancel()
	}

	var output bytes.Buffer
	cmd := exec.CommandContext(ctx, config.Binary, config.Args...)
	cmd.Stdout = &output
	cmd.Stderr = &output
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return unix.Kill(-cmd.Process.Pid, unix.SIGKILL)
	}
	cmd.WaitDelay = time.Second

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return output.String(), fmt.Errorf("probe %s: %w", config.Binary, ctx.Err())
		}
		return output.String(), fmt.Errorf("probe %s: %w", config.Binary, err)
	}
	return output.String(), nil
}
