// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package moderator

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bureau-foundation/godfather/forum"
	"github.com/bureau-foundation/godfather/lib/atomicfile"
	"github.com/bureau-foundation/godfather/lib/checkpoint"
	"github.com/bureau-foundation/godfather/lib/codec"
	"github.com/bureau-foundation/godfather/lib/phaseclock"
	"github.com/bureau-foundation/godfather/rules"
)

// FormatVersion is the envelope format this build reads and writes.
const FormatVersion = 1

// ErrUnsupportedFormat is returned by Decode for envelopes written by
// a different format version.
var ErrUnsupportedFormat = errors.New("unsupported state format")

type envelope struct {
	Format int `cbor:"format"`

	Name     string               `cbor:"name"`
	TimeZone string               `cbor:"time_zone"`
	NightEnd phaseclock.TimeOfDay `cbor:"night_end"`
	DayEnd   phaseclock.TimeOfDay `cbor:"day_end"`

	Started bool `cbor:"started"`
	Ended   bool `cbor:"ended"`

	Phase           rules.Phase `cbor:"phase"`
	PhaseDeadline   time.Time   `cbor:"phase_deadline"`
	LastFetchCutoff time.Time   `cbor:"last_fetch_cutoff"`

	Forum        forum.Config      `cbor:"forum"`
	TickInterval time.Duration     `cbor:"tick_interval"`
	Checkpoints  checkpoint.Policy `cbor:"checkpoints"`

	Engine engine `cbor:"engine"`
}

type engine struct {
	Format string `cbor:"format"`
	Data   []byte `cbor:"data"`
}

// Encode serializes state into a format-1 envelope.
func Encode(state *State) ([]byte, error) {
	exported, err := state.Game.Export()
	if err != nil {
		return nil, fmt.Errorf("exporting %s game: %w", state.Game.Format(), err)
	}
	data, err := codec.Marshal(envelope{
		Format:          FormatVersion,
		Name:            state.Name,
		TimeZone:        state.Location.String(),
		NightEnd:        state.NightEnd,
		DayEnd:          state.DayEnd,
		Started:         state.Started,
		Ended:           state.Ended,
		Phase:           state.Phase,
		PhaseDeadline:   state.PhaseDeadline,
		LastFetchCutoff: state.LastFetchCutoff,
		Forum:           state.Forum,
		TickInterval:    state.TickInterval,
		Checkpoints:     state.Checkpoints,
		Engine:          engine{Format: state.Game.Format(), Data: exported},
	})
	if err != nil {
		return nil, fmt.Errorf("encoding state: %w", err)
	}
	return data, nil
}

// Decode rebuilds a state from an envelope, importing the engine from
// registry (rules.DefaultRegistry when nil). The returned state has no
// Path.
func Decode(data []byte, registry *rules.Registry) (*State, error) {
	if registry == nil {
		registry = rules.DefaultRegistry
	}

	var header struct {
		Format int `cbor:"format"`
	}
	if err := codec.Unmarshal(data, &header); err != nil {
		return nil, fmt.Errorf("decoding state: %w", err)
	}
	if header.Format != FormatVersion {
		return nil, fmt.Errorf("%w %d (this build reads format %d)", ErrUnsupportedFormat, header.Format, FormatVersion)
	}

	var decoded envelope
	if err := codec.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("decoding state: %w", err)
	}
	location, err := time.LoadLocation(decoded.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("state time zone: %w", err)
	}
	game, err := registry.Import(decoded.Engine.Format, decoded.Engine.Data)
	if err != nil {
		return nil, err
	}

	return &State{
		Game:            game,
		Name:            decoded.Name,
		Location:        location,
		NightEnd:        decoded.NightEnd,
		DayEnd:          decoded.DayEnd,
		Started:         decoded.Started,
		Ended:           decoded.Ended,
		Phase:           decoded.Phase,
		PhaseDeadline:   decoded.PhaseDeadline.In(location),
		LastFetchCutoff: decoded.LastFetchCutoff.In(location),
		Forum:           decoded.Forum,
		TickInterval:    decoded.TickInterval,
		Checkpoints:     decoded.Checkpoints,
	}, nil
}

// Save atomically replaces the state file. A reader sees either the
// previous state or this one, never a mix.
func Save(state *State) error {
	data, err := Encode(state)
	if err != nil {
		return err
	}
	if err := atomicfile.WriteFile(state.Path, data, 0o600); err != nil {
		return fmt.Errorf("saving state: %w", err)
	}
	return nil
}

// Load reads the state file at path.
func Load(path string, registry *rules.Registry) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	state, err := Decode(data, registry)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	state.Path = path
	return state, nil
}

// Exists reports whether directory already holds a state file.
func Exists(directory string) (bool, error) {
	_, err := os.Stat(filepath.Join(directory, StateFileName))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Restore replaces the state file in directory with a decoded
// checkpoint payload. The payload is decoded first, so a corrupt or
// foreign checkpoint leaves the current state alone.
func Restore(directory string, payload []byte, registry *rules.Registry) (*State, error) {
	state, err := Decode(payload, registry)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: %w", err)
	}
	state.Path = filepath.Join(directory, StateFileName)
	if err := atomicfile.WriteFile(state.Path, payload, 0o600); err != nil {
		return nil, fmt.Errorf("restoring state: %w", err)
	}
	return state, nil
}
