// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package checkpoint keeps immutable, named snapshots of a game.
//
// The moderator writes a checkpoint when a game starts, at every phase
// change, and when it ends. The running moderator never reads them
// back; they exist for audit and for `godfather restore`.
//
// Each checkpoint is one file under <game_dir>/checkpoints:
//
//	0001-start.ckpt.zst
//	0002-day-1.ckpt.zst.age
//
// The payload is compressed (zstd by default, or lz4, or none) and
// then, when the policy lists age recipients, encrypted. Every write
// appends a line to manifest.jsonl recording the sequence number, name,
// creation time, and a BLAKE3 digest of the uncompressed payload.
//
// Retention is bounded by count and age. Pruning never removes the
// newest checkpoint.
package checkpoint
