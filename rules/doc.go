// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package rules defines the contract between the moderator and a Mafia
// rules engine.
//
// The moderator never looks inside a game. It drives one through the
// [Game] interface: begin it, feed it player actions, resolve phases,
// and read its append-only [Log] of [Event] values. Each event carries
// an [Audience]; the moderator forwards every event with a non-empty
// audience to those players.
//
// Events form a closed set. Every concrete event type is declared in
// this package and listed in [EventKinds], so renderers can check at
// test time that they cover every kind.
//
// Engines persist themselves through [Game.Export] and a format-keyed
// [Importer] registered with [Register]. The moderator stores the
// format string next to the exported bytes and looks the importer up
// again on load, so the state file never depends on engine internals.
package rules
