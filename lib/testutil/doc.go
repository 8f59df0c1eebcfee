// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for rigwatch packages.
//
// [RequireReceive] and [RequireClosed] wrap the select-with-timeout
// safety valve so individual tests never call time.After themselves.
//
// [MinerServer] is an in-process stand-in for a miner's TCP status
// API. It answers the ccminer-style text commands with canned payloads
// and counts requests per command, so tests can assert both what a
// poll reported and which endpoints it contacted.
//
// [WriteExecutable] writes a shell script that plays the role of a
// miner binary for cross-reference probe tests.
//
// All helpers call t.Fatalf on failure rather than returning errors.
//
// This package has no rigwatch-internal dependencies.
package testutil
