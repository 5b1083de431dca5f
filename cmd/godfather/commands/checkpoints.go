// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/bureau-foundation/godfather/cmd/godfather/cli"
	"github.com/bureau-foundation/godfather/lib/checkpoint"
)

func checkpointsCommand(env *environment) *cli.Command {
	return &cli.Command{
		Name:    "checkpoints",
		Summary: "List a game's checkpoints",
		Usage:   "godfather checkpoints <game_dir>",
		Run: func(args []string) error {
			directory, err := gameDirectory(args)
			if err != nil {
				return err
			}
			entries, err := checkpoint.ReadManifest(filepath.Join(directory, checkpoint.DirectoryName))
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(env.stdout, "No checkpoints.")
				return nil
			}
			tw := tabwriter.NewWriter(env.stdout, 2, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "SEQ\tNAME\tCREATED\tSIZE\tFILE")
			for _, entry := range entries {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n",
					entry.Sequence, entry.Name, entry.Created.Format(time.RFC3339), entry.Size,
					filepath.Join(directory, checkpoint.DirectoryName, entry.File))
			}
			return tw.Flush()
		},
	}
}
