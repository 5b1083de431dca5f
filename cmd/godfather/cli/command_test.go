// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/godfather/lib/process"
	"github.com/bureau-foundation/godfather/lib/runlock"
)

func TestExecuteDispatchesToSubcommand(t *testing.T) {
	var called string
	var receivedArgs []string

	root := &Command{
		Name: "godfather",
		Subcommands: []*Command{
			{Name: "init", Run: func(args []string) error { called = "init"; return nil }},
			{Name: "run", Run: func(args []string) error {
				called = "run"
				receivedArgs = args
				return nil
			}},
		},
	}

	if err := root.Execute([]string{"run", "games/one"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if called != "run" {
		t.Errorf("dispatched to %q, want run", called)
	}
	if len(receivedArgs) != 1 || receivedArgs[0] != "games/one" {
		t.Errorf("args = %v, want [games/one]", receivedArgs)
	}
}

func TestExecuteParsesFlags(t *testing.T) {
	var setupOnly bool
	var verbose bool
	var positional []string

	command := &Command{
		Name: "run",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("run", pflag.ContinueOnError)
			flagSet.BoolVar(&setupOnly, "setup-only", false, "create the state and exit")
			flagSet.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
			return flagSet
		},
		Run: func(args []string) error {
			positional = args
			return nil
		},
	}

	if err := command.Execute([]string{"--setup-only", "-v", "game"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !setupOnly || !verbose {
		t.Errorf("setupOnly=%v verbose=%v, want both set", setupOnly, verbose)
	}
	if len(positional) != 1 || positional[0] != "game" {
		t.Errorf("positional = %v, want [game]", positional)
	}
}

func TestExecuteUnknownCommandSuggests(t *testing.T) {
	root := &Command{
		Name:   "godfather",
		Output: &bytes.Buffer{},
		Subcommands: []*Command{
			{Name: "restore", Run: func([]string) error { return nil }},
			{Name: "checkpoints", Run: func([]string) error { return nil }},
		},
	}

	err := root.Execute([]string{"restroe"})
	if err == nil {
		t.Fatal("Execute accepted an unknown command")
	}
	if !strings.Contains(err.Error(), `did you mean "restore"`) {
		t.Errorf("error = %q, want a suggestion", err)
	}
	if !errors.Is(err, ErrUsage) {
		t.Errorf("unknown command error is not a usage error: %v", err)
	}
}

func TestExecuteUnknownFlagSuggests(t *testing.T) {
	command := &Command{
		Name: "restore",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("restore", pflag.ContinueOnError)
			flagSet.String("backup", "", "checkpoint file")
			flagSet.String("identity", "", "age identity")
			return flagSet
		},
		Run: func([]string) error { return nil },
	}

	err := command.Execute([]string{"--bakup", "x"})
	if err == nil || !strings.Contains(err.Error(), "did you mean --backup?") {
		t.Errorf("error = %v, want a --backup suggestion", err)
	}
}

func TestExecuteHelp(t *testing.T) {
	var output bytes.Buffer
	root := &Command{
		Name:        "godfather",
		Description: "Moderate Mafia games by email.",
		Output:      &output,
		Subcommands: []*Command{
			{Name: "init", Summary: "Create a game directory"},
			{Name: "run", Summary: "Moderate a game"},
		},
		Examples: []Example{{Description: "Start a game", Command: "godfather run games/friday"}},
	}

	if err := root.Execute([]string{"--help"}); err != nil {
		t.Fatalf("Execute --help: %v", err)
	}
	help := output.String()
	for _, want := range []string{
		"Moderate Mafia games by email.",
		"godfather <command> [flags]",
		"init",
		"Create a game directory",
		"# Start a game",
		"godfather run games/friday",
	} {
		if !strings.Contains(help, want) {
			t.Errorf("help output missing %q:\n%s", want, help)
		}
	}
}

func TestExecuteSubcommandRequired(t *testing.T) {
	root := &Command{
		Name:        "godfather",
		Output:      &bytes.Buffer{},
		Subcommands: []*Command{{Name: "run", Run: func([]string) error { return nil }}},
	}
	if err := root.Execute(nil); !errors.Is(err, ErrUsage) {
		t.Errorf("Execute() = %v, want a usage error", err)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   int
		report bool
	}{
		{"success", nil, process.ExitSuccess, false},
		{"failure", errors.New("boom"), process.ExitFailure, true},
		{"usage", Usagef("missing game directory"), process.ExitUsage, true},
		{"contention", fmt.Errorf("run: %w", runlock.ErrContention), process.ExitLockContention, true},
		{"explicit", &ExitError{Code: 7}, 7, false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			code, report := ExitCode(test.err)
			if code != test.code || report != test.report {
				t.Errorf("ExitCode(%v) = %d, %v, want %d, %v", test.err, code, report, test.code, test.report)
			}
		})
	}
}

func TestNewLoggerLevels(t *testing.T) {
	var output bytes.Buffer
	newLogger(&output, false, LogSettings{}, false).Debug("hidden")
	if output.Len() != 0 {
		t.Errorf("debug record written without verbose: %s", output.String())
	}
	newLogger(&output, false, LogSettings{}, true).Debug("shown")
	if !strings.Contains(output.String(), `"msg":"shown"`) {
		t.Errorf("verbose JSON logger output = %q", output.String())
	}

	output.Reset()
	newLogger(&output, false, LogSettings{Level: "warn", Format: "text"}, false).Info("quiet")
	if output.Len() != 0 {
		t.Errorf("info record written at warn level: %s", output.String())
	}
	newLogger(&output, false, LogSettings{Level: "warn", Format: "text"}, false).Warn("loud")
	if !strings.Contains(output.String(), "msg=loud") {
		t.Errorf("text logger output = %q", output.String())
	}
}

func TestLoadLogSettings(t *testing.T) {
	for _, name := range []string{"GODFATHER_LOG_LEVEL", "GODFATHER_LOG_FORMAT"} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
	settings, err := LoadLogSettings()
	if err != nil {
		t.Fatalf("LoadLogSettings: %v", err)
	}
	if settings.Level != "info" || settings.Format != "auto" {
		t.Errorf("defaults = %+v, want info/auto", settings)
	}

	t.Setenv("GODFATHER_LOG_LEVEL", "debug")
	t.Setenv("GODFATHER_LOG_FORMAT", "json")
	settings, err = LoadLogSettings()
	if err != nil || settings.Level != "debug" || settings.Format != "json" {
		t.Errorf("LoadLogSettings = %+v, %v", settings, err)
	}

	t.Setenv("GODFATHER_LOG_FORMAT", "xml")
	if _, err := LoadLogSettings(); err == nil {
		t.Error("accepted an unknown log format")
	}
	t.Setenv("GODFATHER_LOG_FORMAT", "text")
	t.Setenv("GODFATHER_LOG_LEVEL", "loud")
	if _, err := LoadLogSettings(); err == nil {
		t.Error("accepted an unknown log level")
	}
}
