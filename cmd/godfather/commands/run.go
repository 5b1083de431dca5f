// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/godfather/cmd/godfather/cli"
	"github.com/bureau-foundation/godfather/forum/forums"
	"github.com/bureau-foundation/godfather/lib/checkpoint"
	"github.com/bureau-foundation/godfather/lib/runlock"
	"github.com/bureau-foundation/godfather/lib/setup"
	"github.com/bureau-foundation/godfather/moderator"
)

func runCommand(env *environment) *cli.Command {
	var setupOnly, verbose bool
	return &cli.Command{
		Name:    "run",
		Summary: "Moderate a game until it ends",
		Description: `Moderate the game in <game_dir>.

The first run creates game.state from the setup file; later runs resume
from game.state and ignore the setup file. Only one moderator may run
per directory: a second one exits with status 3 without touching
anything. SIGINT and SIGTERM stop the moderator between ticks.`,
		Usage: "godfather run [--setup-only] [-v] <game_dir>",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("run", pflag.ContinueOnError)
			flagSet.BoolVar(&setupOnly, "setup-only", false, "create game.state from the setup file and exit")
			flagSet.BoolVarP(&verbose, "verbose", "v", false, "log at debug level")
			return flagSet
		},
		Examples: []cli.Example{
			{Description: "Check a setup file without sending mail", Command: "godfather run --setup-only games/friday"},
		},
		Run: func(args []string) error {
			directory, err := gameDirectory(args)
			if err != nil {
				return err
			}
			logger := env.logger(verbose).With("command", "run", "directory", directory)
			return runGame(env, directory, setupOnly, logger)
		},
	}
}

func runGame(env *environment, directory string, setupOnly bool, logger *slog.Logger) error {
	lock, err := runlock.Acquire(directory)
	if err != nil {
		return err
	}
	defer lock.Release()

	state, err := loadOrCreate(env, directory, logger)
	if err != nil {
		return err
	}
	if setupOnly {
		fmt.Fprintf(env.stdout, "%s\n", state)
		return nil
	}

	transport, err := forums.Open(state.Forum, forums.Options{
		GameDirectory: directory,
		Console:       env.stdout,
		Clock:         env.clock,
		Logger:        logger,
	})
	if err != nil {
		return err
	}
	defer transport.Close()

	m, err := moderator.New(state, moderator.Config{
		Forum:       transport,
		Clock:       env.clock,
		Checkpoints: checkpoint.NewStore(directory, state.Checkpoints, env.clock, logger),
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := env.signals()
	defer stop()
	if err := m.Run(ctx); err != nil {
		logger.Error("moderator failed", "error", err)
		return err
	}
	logger.Info("moderator exited", "state", state.Status())
	return nil
}

// loadOrCreate resumes game.state, or creates it from the setup file
// when the directory has none. An existing state is never overwritten.
func loadOrCreate(env *environment, directory string, logger *slog.Logger) (*moderator.State, error) {
	exists, err := moderator.Exists(directory)
	if err != nil {
		return nil, err
	}
	if exists {
		state, err := moderator.Load(directoryState(directory), nil)
		if err != nil {
			return nil, err
		}
		logger.Info("resuming game", "state", state.String())
		return state, nil
	}

	config, err := setup.Load(directory)
	if err != nil {
		return nil, err
	}
	state, err := moderator.NewState(directory, config, env.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := moderator.Save(state); err != nil {
		return nil, err
	}
	logger.Info("game created", "setup", config.Path, "state", state.String())
	return state, nil
}

// errNoState is returned by commands that need a game that was run at
// least once.
var errNoState = errors.New("no game.state; run 'godfather run --setup-only' first")

func loadState(directory string) (*moderator.State, error) {
	exists, err := moderator.Exists(directory)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%s: %w", directory, errNoState)
	}
	return moderator.Load(directoryState(directory), nil)
}
