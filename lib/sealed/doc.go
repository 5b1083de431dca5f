// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sealed encrypts checkpoints to operator age keys.
//
// A game's checkpoint policy may list age X25519 recipients (age1...).
// Checkpoints are then streamed through [Seal] and can only be read
// back with one of the matching identities via [Open]. Identities are
// handled as [secret.Buffer] values and never touch the game
// directory; `godfather keygen` prints a fresh pair with
// [GenerateKeypair].
package sealed
