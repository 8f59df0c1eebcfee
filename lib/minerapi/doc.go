// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package minerapi talks to a running miner's local status API and
// parses its replies.
//
// The protocol is the ccminer text API spoken by CryptoDredge, T-Rex
// (telnet API) and miniZ: the client connects over TCP, writes a
// command name, and the miner answers with a flat KEY=VALUE text
// payload and closes the connection.
//
//	summary -> NAME=CryptoDredge;VER=0.27.0;KHS=123.45;ACC=18;REJ=0;UPTIME=120|
//	threads -> GPU=0;BUS=1;POWER=150;KHS=45.2;ACC=10;REJ=0|GPU=1;POWER=140;KHS=44.8;ACC=12;REJ=1|
//
// [Client.Fetch] never fails: a miner that is starting, restarting, or
// hung yields an empty payload, which callers treat as "not ready".
// [ParseSummary] and [ParseDevices] are tolerant of unknown keys and
// malformed tokens. Per-device blocks are parsed independently so one
// corrupt block does not cost the whole poll.
package minerapi
