// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides rigwatch's standard CBOR encoding
// configuration.
//
// rigwatch uses two serialization formats with a clear boundary:
//
//   - JSON for external interfaces: report lines on stdout and the
//     journal dump command.
//   - CBOR for on-disk state: journal frames and probe cache files.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer encoding, no indefinite-length items.
// Timestamps are RFC 3339 text with nanoseconds so they round-trip
// exactly.
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// # Struct Tag Rules
//
// A `cbor` tag marks a type that is only ever CBOR (probe cache
// entries). A `json` tag marks a type serialized as both; fxamacker
// reads `json` tags when `cbor` tags are absent. Never use both on the
// same field.
package codec
