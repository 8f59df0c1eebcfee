// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package binhash provides BLAKE3 content hashing for miner binaries.
//
// rigwatch caches the device list a miner binary prints in its probe
// mode. The cache is keyed by the binary's content, not its path: a
// miner upgraded in place gets a new digest and is probed again, and a
// binary copied to a new path reuses the cached listing.
//
//   - [HashFile] streams a file through BLAKE3 in keyed mode, with
//     constant memory usage regardless of file size
//   - [FormatDigest] and [ParseDigest] convert between a [Digest] and
//     its hex form
//
// This package has no dependencies on other rigwatch packages.
package binhash
