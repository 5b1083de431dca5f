// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package moderator runs a game: it polls the forum, feeds player
// messages to the rules engine, mails out what the engine logs,
// advances phases at their deadlines, and persists everything so a
// crash loses at most the tick in flight.
//
// # State machine
//
// A [State] is NotStarted until the welcome message is sent and the
// engine has begun, then Running until the engine reports the game
// over, then Ended. Ended is terminal: [Moderator.Run] on an ended
// state returns immediately without touching the forum or the disk.
//
// # Ticks
//
// Each tick fetches the messages received in
// [LastFetchCutoff, min(now - receipt lag, deadline)), hands each to the
// engine, and replies to its sender. When now is past the phase
// deadline plus the receipt lag, every message of the phase has been
// seen, so the phase resolves and the next deadline is computed. The
// state is written to game.state at the end of every tick. The only
// blocking point is the wait between ticks, which returns when the
// Run context is cancelled; a tick in progress always finishes.
//
// A crash after a tick's messages were answered but before its state
// was written replays that tick's window on restart. Players may see a
// confirmation twice; the engine's actions are idempotent per phase
// (a repeated vote or night order replaces the earlier one).
//
// # Persistence
//
// game.state is a CBOR envelope with an explicit format number. The
// rules engine is stored as an opaque blob tagged with the engine's
// format and rebuilt through the [rules.Registry]. Checkpoints use the
// same encoding and are written at the start, at every phase change and
// at the end.
package moderator
