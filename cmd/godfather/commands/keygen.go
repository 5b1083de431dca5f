// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/godfather/cmd/godfather/cli"
	"github.com/bureau-foundation/godfather/lib/atomicfile"
	"github.com/bureau-foundation/godfather/lib/sealed"
	"github.com/bureau-foundation/godfather/lib/secret"
)

func keygenCommand(env *environment) *cli.Command {
	var output string
	return &cli.Command{
		Name:    "keygen",
		Summary: "Create an age identity for sealed checkpoints",
		Description: `Write a new age identity to --output and print its public key. List the
public key under checkpoints.recipients in the setup file to seal every
checkpoint; pass the identity file to 'godfather restore --identity'.`,
		Usage: "godfather keygen --output <file>",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("keygen", pflag.ContinueOnError)
			flagSet.StringVarP(&output, "output", "o", "", "identity file to create (required)")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 0 {
				return cli.Usagef("keygen takes no arguments")
			}
			if output == "" {
				return cli.Usagef("--output is required")
			}
			if _, err := os.Stat(output); err == nil {
				return fmt.Errorf("%s already exists", output)
			} else if !errors.Is(err, os.ErrNotExist) {
				return err
			}

			keypair, err := sealed.GenerateKeypair()
			if err != nil {
				return err
			}
			defer keypair.Close()

			contents := make([]byte, 0, keypair.PrivateKey.Len()+1)
			contents = append(append(contents, keypair.PrivateKey.Bytes()...), '\n')
			defer secret.Zero(contents)
			if err := atomicfile.WriteFile(output, contents, 0o600); err != nil {
				return fmt.Errorf("writing identity: %w", err)
			}
			fmt.Fprintln(env.stdout, keypair.PublicKey)
			return nil
		},
	}
}
