// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"errors"
	"fmt"

	"github.com/bureau-foundation/godfather/cmd/godfather/cli"
	"github.com/bureau-foundation/godfather/lib/setup"
)

func initCommand(env *environment) *cli.Command {
	return &cli.Command{
		Name:    "init",
		Summary: "Create a game directory with a setup template",
		Description: `Create the game directory if needed and write a setup.yaml template
into it. An existing setup file is left alone.`,
		Usage: "godfather init <game_dir>",
		Run: func(args []string) error {
			directory, err := gameDirectory(args)
			if err != nil {
				return err
			}
			path, err := setup.WriteTemplate(directory)
			if errors.Is(err, setup.ErrExists) {
				fmt.Fprintf(env.stdout, "%s already exists.\n", path)
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(env.stdout, "Wrote %s. Edit it, then run:\n\n  godfather run %s\n", path, directory)
			return nil
		},
	}
}
