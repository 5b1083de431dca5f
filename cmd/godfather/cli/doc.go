// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for godfather.
//
// The central type is [Command], a named subcommand with optional
// nested [Command.Subcommands], a [pflag.FlagSet] factory, and a Run
// function. Commands are assembled into a tree by the commands package
// and dispatched via [Command.Execute], which handles flag parsing,
// subcommand routing, and help output with examples.
//
// When a user types an unknown subcommand or flag, the framework
// suggests the closest known name by Levenshtein distance (at most 3).
//
// [ExitError] lets a command choose its exit code, and
// [NewCommandLogger] builds the slog logger commands share, honoring
// GODFATHER_LOG_LEVEL and GODFATHER_LOG_FORMAT (see [LogSettings]).
package cli
