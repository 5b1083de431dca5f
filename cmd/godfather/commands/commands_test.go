// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/godfather/cmd/godfather/cli"
	"github.com/bureau-foundation/godfather/forum"
	"github.com/bureau-foundation/godfather/forum/mailbox"
	"github.com/bureau-foundation/godfather/lib/checkpoint"
	"github.com/bureau-foundation/godfather/lib/clock"
	"github.com/bureau-foundation/godfather/lib/process"
	"github.com/bureau-foundation/godfather/lib/runlock"
	"github.com/bureau-foundation/godfather/lib/setup"
	"github.com/bureau-foundation/godfather/lib/testutil"
	"github.com/bureau-foundation/godfather/moderator"
)

var epoch = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type testEnvironment struct {
	*environment
	output *bytes.Buffer
	clock  *clock.FakeClock
	cancel context.CancelFunc
}

func newTestEnvironment(t *testing.T) *testEnvironment {
	t.Helper()
	output := &bytes.Buffer{}
	clk := clock.Fake(epoch)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	env := &testEnvironment{output: output, clock: clk, cancel: cancel}
	env.environment = &environment{
		stdout: output,
		stdin:  strings.NewReader(""),
		clock:  clk,
		logger: func(bool) *slog.Logger { return slog.New(slog.DiscardHandler) },
		signals: func() (context.Context, context.CancelFunc) {
			return ctx, func() {}
		},
	}
	return env
}

func (e *testEnvironment) execute(t *testing.T, args ...string) error {
	t.Helper()
	command := root(e.environment)
	command.Output = &bytes.Buffer{}
	return command.Execute(args)
}

func (e *testEnvironment) mustExecute(t *testing.T, args ...string) string {
	t.Helper()
	e.output.Reset()
	if err := e.execute(t, args...); err != nil {
		t.Fatalf("godfather %s: %v", strings.Join(args, " "), err)
	}
	return e.output.String()
}

// newGame initializes a game directory, optionally rewriting its setup.
func newGame(t *testing.T, env *testEnvironment, edit func(string) string) string {
	t.Helper()
	directory := filepath.Join(t.TempDir(), "game")
	env.mustExecute(t, "init", directory)
	if edit != nil {
		path := filepath.Join(directory, setup.YAMLName)
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("ReadFile: %v", err)
		}
		if err := os.WriteFile(path, []byte(edit(string(data))), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}
	return directory
}

func useMailbox(text string) string {
	return strings.Replace(text, "transport: console", "transport: mailbox", 1)
}

func readState(t *testing.T, directory string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(directory, moderator.StateFileName))
	if err != nil {
		t.Fatalf("reading state: %v", err)
	}
	return data
}

func TestInit(t *testing.T) {
	env := newTestEnvironment(t)
	directory := filepath.Join(t.TempDir(), "friday")

	output := env.mustExecute(t, "init", directory)
	if !strings.Contains(output, "godfather run "+directory) {
		t.Errorf("init output = %q, want the next command", output)
	}
	if _, err := setup.Load(directory); err != nil {
		t.Fatalf("template does not load: %v", err)
	}

	output = env.mustExecute(t, "init", directory)
	if !strings.Contains(output, "already exists") {
		t.Errorf("second init output = %q", output)
	}
}

func TestMissingGameDirectoryIsUsageError(t *testing.T) {
	env := newTestEnvironment(t)
	for _, name := range []string{"run", "log", "checkpoints", "init"} {
		err := env.execute(t, name)
		if code, _ := cli.ExitCode(err); code != process.ExitUsage {
			t.Errorf("%s without a directory: %v (exit %d), want a usage error", name, err, code)
		}
	}
}

func TestVersion(t *testing.T) {
	env := newTestEnvironment(t)
	if output := env.mustExecute(t, "--version"); !strings.HasPrefix(output, "godfather ") {
		t.Errorf("--version output = %q", output)
	}
}

func TestRunSetupOnlyNeverOverwrites(t *testing.T) {
	env := newTestEnvironment(t)
	directory := newGame(t, env, nil)

	output := env.mustExecute(t, "run", "--setup-only", directory)
	if !strings.Contains(output, "Test Game (not started, Night 0") {
		t.Errorf("setup-only output = %q", output)
	}
	before := readState(t, directory)

	path := filepath.Join(directory, setup.YAMLName)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	renamed := strings.Replace(string(data), "name: Test Game", "name: Another Game", 1)
	if err := os.WriteFile(path, []byte(renamed), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	env.clock.Advance(time.Hour)

	output = env.mustExecute(t, "run", "--setup-only", directory)
	if !strings.Contains(output, "Test Game") {
		t.Errorf("second run reported %q, want the existing game", output)
	}
	if !bytes.Equal(readState(t, directory), before) {
		t.Error("existing game.state was rewritten from the setup file")
	}
}

func TestRunInvalidSetup(t *testing.T) {
	env := newTestEnvironment(t)
	directory := newGame(t, env, func(text string) string {
		return strings.Replace(text, "roles: [Cop, Doctor, Goon]", "roles: [Cop, Doctor, Wizard]", 1)
	})

	err := env.execute(t, "run", "--setup-only", directory)
	var configErr *setup.ConfigurationError
	if !errors.As(err, &configErr) || configErr.Field != "roles" {
		t.Fatalf("run = %v, want a roles *setup.ConfigurationError", err)
	}
	if ok, _ := moderator.Exists(directory); ok {
		t.Error("invalid setup produced a game.state")
	}
}

func TestRunLockContention(t *testing.T) {
	env := newTestEnvironment(t)
	directory := newGame(t, env, nil)
	env.mustExecute(t, "run", "--setup-only", directory)
	before := readState(t, directory)

	lock, err := runlock.Acquire(directory)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer lock.Release()

	for _, args := range [][]string{
		{"run", directory},
		{"restore", "--backup", filepath.Join(directory, "missing.ckpt"), directory},
	} {
		err := env.execute(t, args...)
		if !errors.Is(err, runlock.ErrContention) {
			t.Fatalf("%s = %v, want lock contention", args[0], err)
		}
		if code, _ := cli.ExitCode(err); code != process.ExitLockContention {
			t.Errorf("%s exit code = %d, want %d", args[0], code, process.ExitLockContention)
		}
	}
	if !bytes.Equal(readState(t, directory), before) {
		t.Error("contended run touched game.state")
	}
}

// startGame runs the console moderator until its first wait, then
// stops it with the signal context.
func startGame(t *testing.T, env *testEnvironment, directory string) string {
	t.Helper()
	env.output.Reset()
	done := make(chan error, 1)
	go func() { done <- env.execute(t, "run", directory) }()
	env.clock.WaitForTimers(1)
	env.cancel()
	if err := testutil.RequireReceive(t, done, 5*time.Second, "run did not stop"); err != nil {
		t.Fatalf("run: %v", err)
	}
	return env.output.String()
}

func TestRunStartsGameAndStopsOnSignal(t *testing.T) {
	env := newTestEnvironment(t)
	directory := newGame(t, env, nil)

	output := startGame(t, env, directory)
	for _, want := range []string{
		"Subject: Test Game: Start",
		"Welcome to **Test Game**.",
		"You are the **",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("console output missing %q:\n%s", want, output)
		}
	}

	state, err := moderator.Load(filepath.Join(directory, moderator.StateFileName), nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !state.Started || state.Ended {
		t.Errorf("state after signal = %s, want running", state)
	}

	log := env.mustExecute(t, "log", directory)
	if strings.Count(log, "role_announcement") != 3 {
		t.Errorf("log should list three role announcements:\n%s", log)
	}

	raw := env.mustExecute(t, "log", "--raw", directory)
	if !strings.Contains(raw, `"format"`) || !strings.Contains(raw, `"mafia/v1"`) {
		t.Errorf("raw state dump = %q", raw)
	}

	listing := env.mustExecute(t, "checkpoints", directory)
	if !strings.Contains(listing, "start") || !strings.Contains(listing, "0001-start.ckpt.zst") {
		t.Errorf("checkpoint listing = %q", listing)
	}
}

func TestRestore(t *testing.T) {
	env := newTestEnvironment(t)
	directory := newGame(t, env, nil)
	startGame(t, env, directory)

	entries, err := checkpoint.ReadManifest(filepath.Join(directory, checkpoint.DirectoryName))
	if err != nil || len(entries) == 0 {
		t.Fatalf("ReadManifest = %v, %v", entries, err)
	}
	backup := filepath.Join(directory, checkpoint.DirectoryName, entries[0].File)

	// Damage the live state; restoring the checkpoint repairs it.
	if err := os.WriteFile(filepath.Join(directory, moderator.StateFileName), []byte("garbage"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	output := env.mustExecute(t, "restore", "--backup", backup, directory)
	if !strings.HasPrefix(output, "Restored Test Game (running") {
		t.Errorf("restore output = %q", output)
	}
	if _, err := moderator.Load(filepath.Join(directory, moderator.StateFileName), nil); err != nil {
		t.Errorf("restored state does not load: %v", err)
	}

	if err := env.execute(t, "restore", directory); !errors.Is(err, cli.ErrUsage) {
		t.Errorf("restore without --backup = %v, want a usage error", err)
	}
}

func TestKeygenAndSealedRestore(t *testing.T) {
	env := newTestEnvironment(t)
	identity := filepath.Join(t.TempDir(), "identity.age")

	publicKey := strings.TrimSpace(env.mustExecute(t, "keygen", "--output", identity))
	if !strings.HasPrefix(publicKey, "age1") {
		t.Fatalf("keygen printed %q, want an age public key", publicKey)
	}
	info, err := os.Stat(identity)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("identity mode = %v, want 0600", info.Mode().Perm())
	}
	if err := env.execute(t, "keygen", "--output", identity); err == nil {
		t.Error("keygen overwrote an existing identity")
	}

	directory := newGame(t, env, func(text string) string {
		return strings.Replace(text, "  # recipients: [age1...]", "  recipients: ["+publicKey+"]", 1)
	})
	startGame(t, env, directory)

	entries, err := checkpoint.ReadManifest(filepath.Join(directory, checkpoint.DirectoryName))
	if err != nil || len(entries) == 0 || !entries[0].Sealed {
		t.Fatalf("manifest = %v, %v, want a sealed start checkpoint", entries, err)
	}
	backup := filepath.Join(directory, checkpoint.DirectoryName, entries[0].File)

	if err := env.execute(t, "restore", "--backup", backup, directory); err == nil {
		t.Error("restored a sealed checkpoint without the identity")
	}
	env.mustExecute(t, "restore", "--backup", backup, "--identity", identity, directory)
}

func TestMailInjectsIntoMailbox(t *testing.T) {
	env := newTestEnvironment(t)
	directory := newGame(t, env, useMailbox)
	env.mustExecute(t, "run", "--setup-only", directory)

	output := env.mustExecute(t, "mail", "--from", "Alice <alice@example.com>", "--subject", "vote", directory, "vote", "Bob")
	if !strings.HasPrefix(output, "Delivered ") {
		t.Errorf("mail output = %q", output)
	}

	env.clock.Advance(time.Second)
	env.stdin = strings.NewReader("will: see you\nall later\n")
	env.mustExecute(t, "mail", "--from", "eve@example.com", directory)

	box, err := mailbox.Open(mailbox.Config{Path: filepath.Join(directory, "mailbox.db")})
	if err != nil {
		t.Fatalf("mailbox.Open: %v", err)
	}
	defer box.Close()
	messages, err := box.Messages(context.Background(), nil, forum.Window{From: epoch.Add(-time.Hour), To: epoch.Add(time.Hour)})
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("mailbox holds %d messages, want 2", len(messages))
	}
	if messages[0].Body != "vote Bob" || messages[0].Subject != "vote" {
		t.Errorf("first message = %+v", messages[0])
	}
	if messages[1].Body != "will: see you\nall later\n" {
		t.Errorf("stdin body = %q", messages[1].Body)
	}

	if err := env.execute(t, "mail", directory, "vote", "Bob"); !errors.Is(err, cli.ErrUsage) {
		t.Errorf("mail without --from = %v, want a usage error", err)
	}
}

func TestLogWithoutState(t *testing.T) {
	env := newTestEnvironment(t)
	directory := newGame(t, env, nil)
	if err := env.execute(t, "log", directory); !errors.Is(err, errNoState) {
		t.Errorf("log before run = %v, want errNoState", err)
	}
}
