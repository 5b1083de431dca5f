// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/godfather/cmd/godfather/cli"
	"github.com/bureau-foundation/godfather/lib/checkpoint"
	"github.com/bureau-foundation/godfather/lib/runlock"
	"github.com/bureau-foundation/godfather/lib/secret"
	"github.com/bureau-foundation/godfather/moderator"
)

func restoreCommand(env *environment) *cli.Command {
	var backup, identityPath string
	return &cli.Command{
		Name:    "restore",
		Summary: "Replace game.state with a checkpoint",
		Description: `Decode a checkpoint and atomically replace the game's state with it.
The run lock is held throughout, so a running moderator makes this fail
with status 3. Sealed checkpoints need the age identity they were
sealed to.`,
		Usage: "godfather restore --backup <file> [--identity <file>] <game_dir>",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("restore", pflag.ContinueOnError)
			flagSet.StringVar(&backup, "backup", "", "checkpoint file to restore (required)")
			flagSet.StringVar(&identityPath, "identity", "", "age identity file for sealed checkpoints")
			return flagSet
		},
		Examples: []cli.Example{
			{
				Description: "Roll back to the start of Day 2",
				Command:     "godfather restore --backup games/friday/checkpoints/0004-day-2.ckpt.zst games/friday",
			},
		},
		Run: func(args []string) error {
			directory, err := gameDirectory(args)
			if err != nil {
				return err
			}
			if backup == "" {
				return cli.Usagef("--backup is required")
			}

			lock, err := runlock.Acquire(directory)
			if err != nil {
				return err
			}
			defer lock.Release()

			var identity *secret.Buffer
			if identityPath != "" {
				identity, err = secret.ReadFromPath(identityPath)
				if err != nil {
					return fmt.Errorf("reading identity: %w", err)
				}
				defer identity.Close()
			}

			payload, err := checkpoint.Verify(backup, identity)
			if err != nil {
				return err
			}
			state, err := moderator.Restore(directory, payload, nil)
			if err != nil {
				return err
			}
			fmt.Fprintf(env.stdout, "Restored %s\n", state)
			return nil
		},
	}
}
