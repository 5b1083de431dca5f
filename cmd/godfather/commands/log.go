// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/godfather/cmd/godfather/cli"
	"github.com/bureau-foundation/godfather/lib/codec"
	"github.com/bureau-foundation/godfather/lib/render"
	"github.com/bureau-foundation/godfather/moderator"
)

func directoryState(directory string) string {
	return filepath.Join(directory, moderator.StateFileName)
}

func logCommand(env *environment) *cli.Command {
	var raw bool
	return &cli.Command{
		Name:    "log",
		Summary: "Print the game's event log",
		Description: `Print every event the rules engine logged, one per line, including
private ones such as role assignments. Intended for the operator.

With --raw, print game.state itself in CBOR diagnostic notation.`,
		Usage: "godfather log [--raw] <game_dir>",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("log", pflag.ContinueOnError)
			flagSet.BoolVar(&raw, "raw", false, "print the state file in CBOR diagnostic notation")
			return flagSet
		},
		Run: func(args []string) error {
			directory, err := gameDirectory(args)
			if err != nil {
				return err
			}
			state, err := loadState(directory)
			if err != nil {
				return err
			}

			if raw {
				data, err := os.ReadFile(state.Path)
				if err != nil {
					return err
				}
				diagnostic, err := codec.Diagnose(data)
				if err != nil {
					return err
				}
				fmt.Fprintln(env.stdout, diagnostic)
				return nil
			}

			fmt.Fprintf(env.stdout, "%s\n", state)
			for _, event := range state.Game.Log().Events() {
				line, err := render.Line(event)
				if err != nil {
					return err
				}
				fmt.Fprintln(env.stdout, line)
			}
			return nil
		},
	}
}
