// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rules

// Game is a running rules engine instance. The moderator is its only
// caller and never calls it concurrently.
type Game interface {
	// Format names the engine and its export version, for example
	// "mafia/v1". It selects the Importer on load.
	Format() string

	// Players returns the roster in setup order, dead players included.
	Players() []Player

	// Begin assigns roles and appends the opening announcements.
	Begin() error

	// Act applies one player message during phase. It returns nil when
	// the action was accepted, an *InvalidActionError when it was
	// rejected without changing the game, ErrHelpRequested when the
	// player asked for their role again, and any other error when the
	// engine itself failed.
	Act(phase Phase, player Player, text string) error

	// Resolve ends phase: night actions take effect, or the day's
	// votes are counted. Events are appended to the log.
	Resolve(phase Phase) error

	IsOver() bool

	// Winners returns the winning players once IsOver is true.
	Winners() []Player

	Log() *Log

	// Export serializes the complete game for the Importer registered
	// under Format.
	Export() ([]byte, error)
}
