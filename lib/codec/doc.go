// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the moderator's CBOR encoding configuration.
//
// Everything godfather writes to disk for its own consumption is CBOR:
// the game.state envelope, checkpoint payloads, and rules-engine
// exports nested inside both. Operator-facing files (setup.yaml,
// checkpoints/manifest.jsonl) stay in text formats.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer encoding, no indefinite-length items.
// Saving the same state twice produces identical bytes, which keeps
// checkpoint digests meaningful.
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// # Struct Tags
//
// Persisted types carry `cbor` tags. Types that also appear in YAML or
// JSON output carry `json`/`yaml` tags only; fxamacker/cbor falls back
// to `json` tags when `cbor` tags are absent.
//
// time.Time values encode as RFC 3339 text with nanoseconds. The zone
// offset survives a round trip but the zone name does not; callers
// that care about the IANA location re-apply it after decoding.
package codec
