// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Rigwatch polls GPU miner processes through their local text API and
// reports per-device hashrate, power, and share recency keyed by
// stable host device ids.
//
// At startup rigwatch enumerates the host GPUs from sysfs, builds one
// monitored instance per configured miner, and reconciles each
// miner's device numbering with the host's (running the miner's
// device-listing mode once, with the result cached in state_dir). It
// then polls every instance on poll_interval and writes one JSON
// report per poll to stdout, and to the CBOR journal when one is
// configured.
//
// Usage:
//
//	rigwatch --config rigwatch.yaml [--once] [--log-level debug]
//	rigwatch journal <path>
//
// The journal subcommand prints every report in a journal file as a
// JSON line.
//
// Configuration comes from --config or RIGWATCH_CONFIG; see
// lib/config. Logs go to stderr: text when stderr is a terminal, JSON
// otherwise.
package main
