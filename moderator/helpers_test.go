// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package moderator

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/godfather/forum"
	"github.com/bureau-foundation/godfather/lib/checkpoint"
	"github.com/bureau-foundation/godfather/lib/clock"
	"github.com/bureau-foundation/godfather/lib/mafia"
	"github.com/bureau-foundation/godfather/lib/setup"
	"github.com/bureau-foundation/godfather/lib/testutil"
	"github.com/bureau-foundation/godfather/rules"
)

// epoch is a Monday morning, an hour before the first night ends.
var epoch = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

const testLag = 30 * time.Second

// fakeForum serves scripted inbound mail and records everything sent.
type fakeForum struct {
	mu       sync.Mutex
	lag      time.Duration
	inbound  []forum.Inbound
	sent     []forum.Message
	windows  []forum.Window
	sendErr  error
	fetchErr error
}

func newFakeForum() *fakeForum {
	return &fakeForum{lag: testLag}
}

func (f *fakeForum) ReceiptLag() time.Duration { return f.lag }

func (f *fakeForum) Send(_ context.Context, _ rules.Game, message forum.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return forum.Failed("send", f.sendErr)
	}
	f.sent = append(f.sent, message)
	return nil
}

func (f *fakeForum) Messages(_ context.Context, _ rules.Game, window forum.Window) ([]forum.Inbound, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, forum.Failed("fetch", f.fetchErr)
	}
	f.windows = append(f.windows, window)
	var result []forum.Inbound
	for _, message := range f.inbound {
		if window.Contains(message.ReceivedAt) {
			result = append(result, message)
		}
	}
	slices.SortStableFunc(result, func(a, b forum.Inbound) int { return a.ReceivedAt.Compare(b.ReceivedAt) })
	return result, nil
}

func (f *fakeForum) Close() error { return nil }

func (f *fakeForum) deliver(from, subject, body string, at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inbound = append(f.inbound, forum.Inbound{
		ID:         testutil.UniqueID("inbound"),
		From:       from,
		Subject:    subject,
		Body:       body,
		ReceivedAt: at,
	})
}

// takeSent returns and clears the recorded outbound messages.
func (f *fakeForum) takeSent() []forum.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	sent := f.sent
	f.sent = nil
	return sent
}

func testSetup(t *testing.T) *setup.Setup {
	t.Helper()
	config, err := setup.Parse([]byte(setup.Template), ".yaml")
	if err != nil {
		t.Fatalf("setup.Parse: %v", err)
	}
	return config
}

type harness struct {
	t         *testing.T
	directory string
	clock     *clock.FakeClock
	forum     *fakeForum
	store     *checkpoint.Store
	moderator *Moderator
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	directory := t.TempDir()
	clk := clock.Fake(epoch)
	state, err := NewState(directory, testSetup(t), clk.Now())
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	if err := Save(state); err != nil {
		t.Fatalf("Save: %v", err)
	}
	h := &harness{
		t:         t,
		directory: directory,
		clock:     clk,
		forum:     newFakeForum(),
	}
	h.store = checkpoint.NewStore(directory, state.Checkpoints, clk, nil)
	h.moderator = h.newModerator(state)
	return h
}

func (h *harness) newModerator(state *State) *Moderator {
	h.t.Helper()
	m, err := New(state, Config{Forum: h.forum, Clock: h.clock, Checkpoints: h.store})
	if err != nil {
		h.t.Fatalf("New: %v", err)
	}
	return m
}

// attach subscribes the dispatcher the way Run does, for tests that
// drive start and tick directly. Tests that call Run must not attach.
func (h *harness) attach() {
	m := h.moderator
	if m.dispatcher != nil {
		return
	}
	m.dispatcher = newDispatcher(h.forum, m.state.Game, m.state.Name, m.logger)
	h.t.Cleanup(m.dispatcher.close)
}

// started runs the start transition and discards its mail.
func (h *harness) started() *harness {
	h.t.Helper()
	h.attach()
	if err := h.moderator.start(context.Background()); err != nil {
		h.t.Fatalf("start: %v", err)
	}
	h.forum.takeSent()
	return h
}

func (h *harness) tick() bool {
	h.t.Helper()
	h.attach()
	ended, err := h.moderator.tick(context.Background())
	if err != nil {
		h.t.Fatalf("tick: %v", err)
	}
	return ended
}

func (h *harness) state() *State { return h.moderator.state }

// cast returns the players holding each role.
func cast(t *testing.T, game rules.Game) map[string]rules.Player {
	t.Helper()
	engine, ok := game.(*mafia.Game)
	if !ok {
		t.Fatalf("game is %T, want *mafia.Game", game)
	}
	roles := make(map[string]rules.Player)
	for _, player := range game.Players() {
		role, ok := engine.RoleOf(player.Name)
		if !ok {
			t.Fatalf("no role dealt to %s", player.Name)
		}
		roles[role.Name] = player
	}
	return roles
}

func requireOneMessage(t *testing.T, sent []forum.Message) forum.Message {
	t.Helper()
	if len(sent) != 1 {
		var subjects []string
		for _, message := range sent {
			subjects = append(subjects, message.Subject+": "+message.Body)
		}
		t.Fatalf("sent %d messages, want exactly 1:\n%s", len(sent), strings.Join(subjects, "\n"))
	}
	return sent[0]
}

func requirePrivateTo(t *testing.T, message forum.Message, player rules.Player) {
	t.Helper()
	if message.To.Public || len(message.To.Players) != 1 || message.To.Players[0] != player {
		t.Fatalf("message to %v, want only %s", message.To, player.Name)
	}
}

var errBoom = errors.New("boom")
