// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"fmt"

	"github.com/bureau-foundation/godfather/lib/process"
	"github.com/bureau-foundation/godfather/lib/runlock"
)

// ExitError signals a non-zero exit code without printing an extra
// error message. The command is expected to have already written its
// own output.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode returns the exit code.
func (e *ExitError) ExitCode() int {
	return e.Code
}

// ExitCode maps the error a command returned to the process exit
// code, and reports whether main should print it.
func ExitCode(err error) (code int, report bool) {
	var coder interface{ ExitCode() int }
	switch {
	case err == nil:
		return process.ExitSuccess, false
	case errors.As(err, &coder):
		return coder.ExitCode(), false
	case errors.Is(err, runlock.ErrContention):
		return process.ExitLockContention, true
	case errors.Is(err, ErrUsage):
		return process.ExitUsage, true
	default:
		return process.ExitFailure, true
	}
}
