// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package stats combines one poll of a miner into a [Report] keyed by
// stable device id.
//
// [Aggregate] walks the host devices of the instance's
// [devicemap.Mapper], finds the device record each one owns, applies
// the developer fee to speeds, sums power, and feeds share counters
// through the instance's [shares.Tracker]. Devices the miner did not
// report this poll are left out of every map; they are never reported
// as zero.
package stats

import (
	"time"

	"github.com/bureau-foundation/rigwatch/lib/devicemap"
	"github.com/bureau-foundation/rigwatch/lib/minerapi"
	"github.com/bureau-foundation/rigwatch/lib/shares"
)

// ShareInfo is the share history of one device: the miner's cumulative
// count and when the count last changed. LastAt is zero until a change
// has been observed.
type ShareInfo struct {
	Count  int       `json:"count"`
	LastAt time.Time `json:"last_at,omitzero"`
}

// Report is the per-poll result for one miner instance.
type Report struct {
	Instance string    `json:"instance"`
	Time     time.Time `json:"time"`

	// Speed is post-fee hashes per second per stable device id.
	Speed map[string]float64 `json:"speed"`

	// Power is watts per stable device id.
	Power map[string]int `json:"power"`

	// TotalPower sums Power.
	TotalPower int `json:"total_power"`

	Accepted map[string]ShareInfo `json:"accepted"`
	Rejected map[string]ShareInfo `json:"rejected"`

	// AggregateSpeed is the miner's own post-fee total from the
	// summary reply.
	AggregateSpeed float64 `json:"aggregate_speed"`

	// Uptime is the miner's reported uptime, zero when absent.
	Uptime time.Duration `json:"uptime,omitempty"`

	// RawResponse is the summary payload as received.
	RawResponse string `json:"raw_response"`

	// Unresponsive is set by the monitor when no usable summary has
	// arrived for longer than the instance's unresponsive threshold.
	Unresponsive bool `json:"unresponsive,omitempty"`
}

// Ready reports whether the report carries data from the miner.
func (r Report) Ready() bool {
	return r.RawResponse != ""
}

// Empty returns the report for a poll that produced nothing: empty
// maps, zero power, empty raw response.
func Empty(instance string, now time.Time) Report {
	return Report{
		Instance: instance,
		Time:     now,
		Speed:    map[string]float64{},
		Power:    map[string]int{},
		Accepted: map[string]ShareInfo{},
		Rejected: map[string]ShareInfo{},
	}
}

// Input is everything one poll contributes to a Report.
type Input struct {
	Instance    string
	Summary     minerapi.Summary
	Records     []minerapi.DeviceRecord
	Mapper      *devicemap.Mapper
	FeePercent  float64
	Now         time.Time
	RawResponse string
}

// Aggregate builds the Report for one poll. Records are attributed to
// the device that owns their local id in the mapper; when several
// records carry the same local id the first one is used. Records whose
// local id no host device owns are dropped.
func Aggregate(input Input, tracker *shares.Tracker) Report {
	report := Empty(input.Instance, input.Now)
	report.RawResponse = input.RawResponse
	report.Uptime = input.Summary.Uptime

	factor := 1 - input.FeePercent/100
	report.AggregateSpeed = input.Summary.Speed * factor

	if input.Mapper == nil {
		return report
	}

	byLocalID := make(map[int]minerapi.DeviceRecord, len(input.Records))
	for _, record := range input.Records {
		if _, exists := byLocalID[record.LocalID]; !exists {
			byLocalID[record.LocalID] = record
		}
	}

	for _, device := range input.Mapper.Devices() {
		localID, owns := input.Mapper.Owns(device.StableID)
		if !owns {
			continue
		}
		record, ok := byLocalID[localID]
		if !ok {
			continue
		}

		report.Speed[device.StableID] = record.Speed * factor
		report.Power[device.StableID] = record.Power
		report.TotalPower += record.Power

		state := tracker.Observe(localID, record.Accepted, record.Rejected, input.Now)
		report.Accepted[device.StableID] = ShareInfo{Count: state.Accepted, LastAt: state.LastAcceptedAt}
		report.Rejected[device.StableID] = ShareInfo{Count: state.Rejected, LastAt: state.LastRejectedAt}
	}
	return report
}
