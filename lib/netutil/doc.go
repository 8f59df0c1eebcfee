// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides small I/O helpers for talking to miner
// status sockets.
//
// [ReadLimited] bounds a response read so a misbehaving miner cannot
// make the monitor allocate without limit. [IsExpectedCloseError]
// classifies the errors a peer produces when it closes its end after
// writing a reply; miners end every response that way.
package netutil
