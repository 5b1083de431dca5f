// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rules

import (
	"errors"
	"fmt"
)

// InvalidActionError reports a player action the engine refused. The
// game is unchanged. Reason is shown to the player verbatim.
type InvalidActionError struct {
	Reason string
}

func (e *InvalidActionError) Error() string {
	return e.Reason
}

// Invalid returns an *InvalidActionError with a formatted reason.
func Invalid(format string, args ...any) error {
	return &InvalidActionError{Reason: fmt.Sprintf(format, args...)}
}

// ErrHelpRequested is returned by Game.Act when the player asked to be
// reminded of their role. It is a signal, not a failure.
var ErrHelpRequested = errors.New("help requested")

// ErrUnknownFormat is returned by Import for a format with no
// registered importer.
var ErrUnknownFormat = errors.New("unknown game format")
