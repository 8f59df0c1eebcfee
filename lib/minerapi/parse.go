// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package minerapi

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Summary is the process-wide part of a summary reply.
type Summary struct {
	// Speed is the aggregate hashrate in hashes per second.
	Speed float64

	// Uptime is how long the miner has been running, when reported.
	Uptime time.Duration
}

// DeviceRecord is one device block of a threads reply.
type DeviceRecord struct {
	// LocalID is the miner's own ordinal for the device.
	LocalID int

	// Power is the device's reported draw in watts.
	Power int

	// Speed is the device hashrate in hashes per second.
	Speed float64

	// Accepted and Rejected are cumulative share counters since the
	// miner started.
	Accepted int
	Rejected int
}

// ErrMissingLocalID is reported for a device block without a GPU key.
var ErrMissingLocalID = errors.New("device block has no GPU key")

// ParseSummary parses a summary payload. KHS (kilohashes/sec) is the
// only key that can fail the parse: a non-numeric KHS aborts it and
// returns a zero Summary. UPTIME (seconds) is informational and is
// left at zero when it does not parse. Tokens that do not split into
// exactly one key and one value are skipped.
func ParseSummary(payload string) (Summary, error) {
	var summary Summary
	payload = strings.TrimRight(payload, "|")
	for _, token := range split(payload, ';') {
		key, value, ok := keyValue(token)
		if !ok {
			continue
		}
		switch key {
		case "KHS":
			khs, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return Summary{}, fmt.Errorf("summary KHS %q: %w", value, err)
			}
			summary.Speed = khs * 1000
		case "UPTIME":
			summary.Uptime = parseUptime(value)
		}
	}
	return summary, nil
}

// parseUptime accepts whole or fractional seconds.
func parseUptime(value string) time.Duration {
	seconds, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(seconds) || seconds < 0 || seconds > math.MaxInt64/float64(time.Second) {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}

// ParseDevices parses a threads payload into one record per device
// block. Blocks are independent: a block with a non-numeric value for
// a recognized key, or with no GPU key, is dropped and its error joined
// into the returned error, while every well-formed block is still
// returned.
func ParseDevices(payload string) ([]DeviceRecord, error) {
	var records []DeviceRecord
	var errs []error
	for index, block := range split(payload, '|') {
		record, err := parseDeviceBlock(block)
		if err != nil {
			errs = append(errs, fmt.Errorf("device block %d: %w", index, err))
			continue
		}
		records = append(records, record)
	}
	return records, errors.Join(errs...)
}

func parseDeviceBlock(block string) (DeviceRecord, error) {
	var record DeviceRecord
	haveID := false
	for _, token := range split(block, ';') {
		key, value, ok := keyValue(token)
		if !ok {
			continue
		}
		var err error
		switch key {
		case "GPU":
			record.LocalID, err = strconv.Atoi(value)
			haveID = err == nil
		case "POWER":
			record.Power, err = strconv.Atoi(value)
		case "KHS":
			var khs float64
			khs, err = strconv.ParseFloat(value, 64)
			record.Speed = khs * 1000
		case "ACC":
			record.Accepted, err = strconv.Atoi(value)
		case "REJ":
			record.Rejected, err = strconv.Atoi(value)
		}
		if err != nil {
			return DeviceRecord{}, fmt.Errorf("%s %q: %w", key, value, err)
		}
	}
	if !haveID {
		return DeviceRecord{}, ErrMissingLocalID
	}
	return record, nil
}

// split splits s on sep and drops empty fields.
func split(s string, sep rune) []string {
	return strings.FieldsFunc(s, func(r rune) bool { return r == sep })
}

// keyValue splits a KEY=VALUE token. Empty pieces are discarded before
// counting, so "KHS==5" is accepted and "KHS=" or "A=B=C" are not.
func keyValue(token string) (key, value string, ok bool) {
	parts := split(strings.TrimSpace(token), '=')
	if len(parts) != 2 {
		return "", "", false
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), true
}
