// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"fmt"
	"os"
)

// Exit codes.
const (
	ExitSuccess = 0
	ExitFailure = 1
	// ExitUsage reports a command-line mistake.
	ExitUsage = 2
	// ExitLockContention means another moderator holds the game
	// directory. Nothing in the directory was touched.
	ExitLockContention = 3
)

// Exit writes err, when non-nil, to stderr and exits with code.
func Exit(code int, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	os.Exit(code)
}
