// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the godfather command tree.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/godfather/cmd/godfather/cli"
	"github.com/bureau-foundation/godfather/lib/clock"
	"github.com/bureau-foundation/godfather/lib/version"
)

// environment is what commands touch outside the game directory.
type environment struct {
	stdout io.Writer
	stdin  io.Reader
	clock  clock.Clock
	logger func(verbose bool) *slog.Logger
	// signals returns the context a moderator runs under.
	signals func() (context.Context, context.CancelFunc)
}

func defaultEnvironment() *environment {
	return &environment{
		stdout: os.Stdout,
		stdin:  os.Stdin,
		clock:  clock.Real(),
		logger: cli.NewCommandLogger,
		signals: func() (context.Context, context.CancelFunc) {
			return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		},
	}
}

// Root returns the godfather command tree.
func Root() *cli.Command {
	return root(defaultEnvironment())
}

func root(env *environment) *cli.Command {
	var showVersion bool
	return &cli.Command{
		Name: "godfather",
		Description: `godfather: an email moderator for games of Mafia.

A game lives in a directory holding its setup file, its state and its
checkpoints. Players act by sending mail; the moderator replies,
resolves each phase at its deadline and announces the results.`,
		Subcommands: []*cli.Command{
			initCommand(env),
			runCommand(env),
			logCommand(env),
			checkpointsCommand(env),
			restoreCommand(env),
			mailCommand(env),
			keygenCommand(env),
		},
		Examples: []cli.Example{
			{Description: "Create a game and edit its setup", Command: "godfather init games/friday"},
			{Description: "Moderate it until the game ends", Command: "godfather run games/friday"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("godfather", pflag.ContinueOnError)
			flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
			return flagSet
		},
		Run: func(args []string) error {
			if !showVersion {
				return cli.Usagef("a command is required\n\nRun 'godfather --help' for usage.")
			}
			fmt.Fprintf(env.stdout, "godfather %s\n", version.Full())
			return nil
		},
	}
}

// gameDirectory returns the single positional game directory.
func gameDirectory(args []string) (string, error) {
	switch len(args) {
	case 0:
		return "", cli.Usagef("a game directory is required")
	case 1:
		return args[0], nil
	default:
		return "", cli.Usagef("expected one game directory, got %d arguments", len(args))
	}
}
