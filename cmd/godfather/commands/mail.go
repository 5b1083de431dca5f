// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/godfather/cmd/godfather/cli"
	"github.com/bureau-foundation/godfather/forum"
	"github.com/bureau-foundation/godfather/forum/forums"
)

func mailCommand(env *environment) *cli.Command {
	var from, subject string
	return &cli.Command{
		Name:    "mail",
		Summary: "Deliver a message to a game's local mailbox",
		Description: `Store an inbound message in the game's mailbox database, as if a
player had sent it. The moderator picks it up on a later tick when the
game uses the mailbox transport. Without body arguments the body is
read from standard input.`,
		Usage: "godfather mail --from <address> [--subject <text>] <game_dir> [body...]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("mail", pflag.ContinueOnError)
			flagSet.StringVar(&from, "from", "", "sender address (required)")
			flagSet.StringVar(&subject, "subject", "", "message subject")
			return flagSet
		},
		Examples: []cli.Example{
			{Description: "Alice votes for Bob", Command: "godfather mail --from alice@example.com games/friday vote Bob"},
		},
		Run: func(args []string) error {
			if len(args) == 0 {
				return cli.Usagef("a game directory is required")
			}
			if from == "" {
				return cli.Usagef("--from is required")
			}
			directory := args[0]

			body := strings.Join(args[1:], " ")
			if body == "" {
				data, err := io.ReadAll(env.stdin)
				if err != nil {
					return fmt.Errorf("reading body: %w", err)
				}
				body = string(data)
			}

			state, err := loadState(directory)
			if err != nil {
				return err
			}
			mailbox, err := forums.OpenMailbox(state.Forum, forums.Options{
				GameDirectory: directory,
				Clock:         env.clock,
				Logger:        env.logger(false),
			})
			if err != nil {
				return err
			}
			defer mailbox.Close()

			stored, err := mailbox.Inject(context.Background(), forum.Inbound{
				From:    from,
				Subject: subject,
				Body:    body,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(env.stdout, "Delivered %s from %s at %s\n", stored.ID, stored.From, stored.ReceivedAt.Format("15:04:05 MST"))
			return nil
		},
	}
}
