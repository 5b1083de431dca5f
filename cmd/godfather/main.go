// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// godfather moderates games of Mafia played over email.
package main

import (
	"os"

	"github.com/bureau-foundation/godfather/cmd/godfather/cli"
	"github.com/bureau-foundation/godfather/cmd/godfather/commands"
	"github.com/bureau-foundation/godfather/lib/process"
)

func main() {
	err := commands.Root().Execute(os.Args[1:])
	code, report := cli.ExitCode(err)
	if !report {
		err = nil
	}
	process.Exit(code, err)
}
