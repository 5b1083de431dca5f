// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package mafia is a small, deterministic Mafia rules engine
// implementing [rules.Game].
//
// Two factions play: the Town and the Mafia. Roles are dealt from the
// setup's role pool with a seeded shuffle, so the same setup always
// deals the same hands.
//
// Players act by mail. The first non-blank line of a message is the
// command, case-insensitive:
//
//	kill <player>         Mafia, at night
//	protect <player>      Doctor, at night
//	investigate <player>  Cop, at night
//	vote <player>         anyone alive, during the day
//	unvote                anyone alive, during the day
//	will <text>           anyone alive, any time
//	help                  resend the role announcement
//
// At the end of a night the Mafia's most recent kill order takes
// effect unless a Doctor protected the target, and every Cop learns the
// apparent faction of their target (a Godfather appears to be Town).
// At the end of a day the player with strictly the most votes is
// lynched; a tie or no votes means no lynch.
//
// The Town wins when no Mafia member is alive. The Mafia wins when
// living Mafia members outnumber everyone else alive. Winners include
// dead members of the winning faction.
package mafia
