// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package moderator

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/bureau-foundation/godfather/forum"
	"github.com/bureau-foundation/godfather/lib/checkpoint"
	"github.com/bureau-foundation/godfather/lib/phaseclock"
	"github.com/bureau-foundation/godfather/lib/setup"
	"github.com/bureau-foundation/godfather/rules"
)

// StateFileName is the authoritative state file in a game directory.
const StateFileName = "game.state"

// State is everything the moderator knows about a game. Only the run
// loop mutates it.
type State struct {
	// Path is where Save writes. It is not persisted; Load sets it.
	Path string

	Game rules.Game

	Name     string
	Location *time.Location
	NightEnd phaseclock.TimeOfDay
	DayEnd   phaseclock.TimeOfDay

	Started bool
	Ended   bool

	Phase         rules.Phase
	PhaseDeadline time.Time
	// LastFetchCutoff is the end of the last fetched window. It never
	// decreases once the game has started, and start moves it back to
	// at most now minus the forum's receipt lag.
	LastFetchCutoff time.Time

	Forum        forum.Config
	TickInterval time.Duration
	Checkpoints  checkpoint.Policy
}

// NewState creates the state of a game that has not started: phase
// Night 0, deadline at the next night end after now, and nothing
// fetched before now. The forum is not known yet; the moderator pulls
// the cutoff back by its receipt lag when the game starts.
func NewState(directory string, config *setup.Setup, now time.Time) (*State, error) {
	game, err := config.NewGame()
	if err != nil {
		return nil, err
	}
	phase := rules.Phase{Kind: rules.Night, Number: 0}
	now = now.In(config.Location)
	return &State{
		Path:            filepath.Join(directory, StateFileName),
		Game:            game,
		Name:            config.Name,
		Location:        config.Location,
		NightEnd:        config.NightEnd,
		DayEnd:          config.DayEnd,
		Phase:           phase,
		PhaseDeadline:   phaseclock.Deadline(phase, now, config.NightEnd, config.DayEnd).In(config.Location),
		LastFetchCutoff: now,
		Forum:           config.Forum,
		TickInterval:    config.TickInterval,
		Checkpoints:     config.Checkpoints,
	}, nil
}

// Directory returns the game directory.
func (s *State) Directory() string {
	return filepath.Dir(s.Path)
}

// Status names the state machine state.
func (s *State) Status() string {
	switch {
	case s.Ended:
		return "ended"
	case s.Started:
		return "running"
	default:
		return "not started"
	}
}

func (s *State) String() string {
	return fmt.Sprintf("%s (%s, %s, deadline %s)", s.Name, s.Status(), s.Phase,
		s.PhaseDeadline.In(s.Location).Format(time.RFC3339))
}
