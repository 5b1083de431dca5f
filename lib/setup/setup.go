// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package setup loads the operator's game setup file.
//
// A game directory holds one of setup.yaml, setup.jsonc (JSON with
// comments and trailing commas) or setup.toml. Defaults are applied
// before decoding and the result is validated afterwards; every problem is reported as
// a [*ConfigurationError] naming the file and field.
package setup

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/godfather/forum"
	"github.com/bureau-foundation/godfather/lib/checkpoint"
	"github.com/bureau-foundation/godfather/lib/mafia"
	"github.com/bureau-foundation/godfather/lib/phaseclock"
	"github.com/bureau-foundation/godfather/rules"
)

// File names searched in a game directory, in order.
const (
	YAMLName  = "setup.yaml"
	JSONCName = "setup.jsonc"
	TOMLName  = "setup.toml"
)

// DefaultTickInterval is how often the moderator polls the forum.
const DefaultTickInterval = time.Minute

// Setup is a validated game setup.
type Setup struct {
	// Name prefixes every mail subject.
	Name string `yaml:"name"`

	// TimeZone is an IANA zone name. Deadlines are computed and shown
	// in it.
	// Default: UTC
	TimeZone string `yaml:"time_zone"`

	// NightEnd and DayEnd are the daily cutoffs, "HH:MM[:SS] [Zone]".
	// A cutoff without a zone is in TimeZone.
	NightEndText string `yaml:"night_end"`
	DayEndText   string `yaml:"day_end"`

	Players []rules.Player `yaml:"players"`

	// Roles is the role pool, one entry per player.
	Roles []string `yaml:"roles"`

	// Seed makes role assignment reproducible.
	Seed uint64 `yaml:"seed"`

	// TickInterval is the polling period.
	// Default: 1m
	TickInterval time.Duration `yaml:"tick_interval"`

	Forum       forum.Config      `yaml:"forum"`
	Checkpoints checkpoint.Policy `yaml:"checkpoints"`

	// Resolved by Validate.
	Location *time.Location       `yaml:"-"`
	NightEnd phaseclock.TimeOfDay `yaml:"-"`
	DayEnd   phaseclock.TimeOfDay `yaml:"-"`
	Path     string               `yaml:"-"`
}

// ConfigurationError reports an invalid or unreadable setup file.
type ConfigurationError struct {
	Path string
	// Field is the offending setting. Empty when the file as a whole
	// could not be read or parsed.
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("setup %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("setup %s: %s: %v", e.Path, e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// Default returns a setup with every defaulted field filled in.
func Default() *Setup {
	return &Setup{
		TimeZone:     "UTC",
		TickInterval: DefaultTickInterval,
		Checkpoints:  checkpoint.Policy{Compression: checkpoint.CompressionZstd},
	}
}

// Find returns the setup file in directory.
func Find(directory string) (string, error) {
	for _, name := range []string{YAMLName, JSONCName, TOMLName} {
		path := filepath.Join(directory, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", &ConfigurationError{Path: path, Err: err}
		}
	}
	return "", &ConfigurationError{
		Path: filepath.Join(directory, YAMLName),
		Err:  fmt.Errorf("no %s, %s or %s in %s (run godfather init)", YAMLName, JSONCName, TOMLName, directory),
	}
}

// Load finds, parses and validates the setup file in directory.
func Load(directory string) (*Setup, error) {
	path, err := Find(directory)
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile parses and validates one setup file. The format follows
// the extension: .jsonc and .json are JSONC, .toml is TOML, anything
// else YAML.
func LoadFile(path string) (*Setup, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigurationError{Path: path, Err: err}
	}
	setup, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, withPath(err, path)
	}
	setup.Path = path
	return setup, nil
}

// Parse decodes and validates setup content. extension selects the
// syntax as LoadFile does.
func Parse(data []byte, extension string) (*Setup, error) {
	setup := Default()
	switch strings.ToLower(extension) {
	case ".jsonc", ".json":
		// JSON is a subset of YAML, so the stripped JSONC goes
		// through the same decoder and the same field tags.
		data = jsonc.ToJSON(data)
	case ".toml":
		converted, err := tomlToJSON(data)
		if err != nil {
			return nil, &ConfigurationError{Err: fmt.Errorf("parsing: %w", err)}
		}
		data = converted
	}
	decoder := yaml.NewDecoder(strings.NewReader(string(data)))
	decoder.KnownFields(true)
	if err := decoder.Decode(setup); err != nil {
		return nil, &ConfigurationError{Err: fmt.Errorf("parsing: %w", err)}
	}
	if err := setup.Validate(); err != nil {
		return nil, err
	}
	return setup, nil
}

// tomlToJSON re-encodes a TOML document as JSON for the YAML decoder,
// so unknown-field checks and durations behave as in YAML.
func tomlToJSON(data []byte) ([]byte, error) {
	var document map[string]any
	if _, err := toml.Decode(string(data), &document); err != nil {
		return nil, err
	}
	return json.Marshal(document)
}

func withPath(err error, path string) error {
	var configErr *ConfigurationError
	if errors.As(err, &configErr) && configErr.Path == "" {
		configErr.Path = path
	}
	return err
}

// Validate checks the setup and resolves the time zone and cutoffs.
// The first problem found is returned as a *ConfigurationError.
func (s *Setup) Validate() error {
	invalid := func(field string, err error) error {
		return &ConfigurationError{Path: s.Path, Field: field, Err: err}
	}

	if strings.TrimSpace(s.Name) == "" {
		return invalid("name", errors.New("is required"))
	}

	location, err := time.LoadLocation(s.TimeZone)
	if err != nil {
		return invalid("time_zone", err)
	}
	s.Location = location

	if s.NightEnd, err = parseCutoff(s.NightEndText, location); err != nil {
		return invalid("night_end", err)
	}
	if s.DayEnd, err = parseCutoff(s.DayEndText, location); err != nil {
		return invalid("day_end", err)
	}

	if s.TickInterval <= 0 {
		return invalid("tick_interval", fmt.Errorf("must be positive, got %v", s.TickInterval))
	}

	if err := s.validatePlayers(); err != nil {
		return invalid("players", err)
	}
	if err := s.validateRoles(); err != nil {
		return invalid("roles", err)
	}

	s.Forum.ApplyDefaults()
	if err := s.Forum.Validate(); err != nil {
		return invalid("forum", err)
	}
	if err := s.Checkpoints.Validate(); err != nil {
		return invalid("checkpoints", err)
	}
	return nil
}

func parseCutoff(text string, location *time.Location) (phaseclock.TimeOfDay, error) {
	if strings.TrimSpace(text) == "" {
		return phaseclock.TimeOfDay{}, errors.New("is required")
	}
	return phaseclock.ParseTimeOfDay(text, location)
}

func (s *Setup) validatePlayers() error {
	if len(s.Players) < 3 {
		return fmt.Errorf("a game needs at least 3 players, got %d", len(s.Players))
	}
	names := make(map[string]bool)
	addresses := make(map[string]bool)
	for i, player := range s.Players {
		if strings.TrimSpace(player.Name) == "" {
			return fmt.Errorf("player %d has no name", i+1)
		}
		if _, err := mail.ParseAddress(player.Address); err != nil {
			return fmt.Errorf("player %s: %w", player.Name, err)
		}
		name := strings.ToLower(player.Name)
		if names[name] {
			return fmt.Errorf("duplicate player name %q", player.Name)
		}
		names[name] = true
		address := rules.NormalizeAddress(player.Address)
		if addresses[address] {
			return fmt.Errorf("duplicate address %q", player.Address)
		}
		addresses[address] = true
	}
	return nil
}

func (s *Setup) validateRoles() error {
	if len(s.Roles) != len(s.Players) {
		return fmt.Errorf("%d roles for %d players", len(s.Roles), len(s.Players))
	}
	for _, name := range s.Roles {
		if _, ok := mafia.LookupRole(name); !ok {
			return fmt.Errorf("unknown role %q (known roles: %s)", name, strings.Join(mafia.Roles(), ", "))
		}
	}
	return nil
}

// NewGame builds the rules engine for this setup. The game has not
// begun.
func (s *Setup) NewGame() (rules.Game, error) {
	game, err := mafia.New(s.Players, s.Roles, s.Seed)
	if err != nil {
		return nil, &ConfigurationError{Path: s.Path, Field: "roles", Err: err}
	}
	return game, nil
}
