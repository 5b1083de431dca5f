// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package moderator

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/godfather/forum"
	"github.com/bureau-foundation/godfather/rules"
)

func TestValidActionConfirmedOnce(t *testing.T) {
	h := newHarness(t).started()
	roles := cast(t, h.state().Game)
	goon, cop := roles["Goon"], roles["Cop"]

	body := "kill " + cop.Name
	h.forum.deliver(goon.Address, "Tonight", body, epoch.Add(10*time.Second))
	h.clock.Advance(time.Minute)
	h.tick()

	reply := requireOneMessage(t, h.forum.takeSent())
	requirePrivateTo(t, reply, goon)
	if want := "Confirmed.\n\n> " + body; reply.Body != want {
		t.Errorf("reply = %q, want %q", reply.Body, want)
	}
	if reply.Subject != "Tonight" {
		t.Errorf("reply subject = %q, want the sender's subject", reply.Subject)
	}

	// The kill took effect: resolving the night kills the cop.
	h.clock.Set(h.state().PhaseDeadline.Add(testLag + time.Second))
	h.tick()
	var died bool
	for _, message := range h.forum.takeSent() {
		if strings.HasPrefix(message.Body, cop.Name+", the **Cop**, has died.") {
			died = true
		}
	}
	if !died {
		t.Error("accepted kill did not lead to a death announcement")
	}
}

func TestInvalidActionRepliesWithoutMutation(t *testing.T) {
	h := newHarness(t).started()
	roles := cast(t, h.state().Game)
	cop := roles["Cop"]

	before, err := h.state().Game.Export()
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	logLength := h.state().Game.Log().Len()

	h.forum.deliver("Cop Player <"+strings.ToUpper(cop.Address)+">", "vote", "vote Bob", epoch.Add(5*time.Second))
	h.clock.Advance(time.Minute)
	h.tick()

	reply := requireOneMessage(t, h.forum.takeSent())
	requirePrivateTo(t, reply, cop)
	if want := "You can only vote during the day.\n\n> vote Bob"; reply.Body != want {
		t.Errorf("reply = %q, want %q", reply.Body, want)
	}

	after, err := h.state().Game.Export()
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if string(before) != string(after) {
		t.Error("invalid action changed the game")
	}
	if got := h.state().Game.Log().Len(); got != logLength {
		t.Errorf("log grew from %d to %d events", logLength, got)
	}
}

func TestUnrecognizedSenderRejected(t *testing.T) {
	h := newHarness(t).started()
	before, err := h.state().Game.Export()
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	h.forum.deliver("Mallory <Mallory@Example.net>", "let me in", "kill Alice", epoch.Add(time.Second))
	h.clock.Advance(time.Minute)
	h.tick()

	reply := requireOneMessage(t, h.forum.takeSent())
	if len(reply.To.Addresses) != 1 || reply.To.Addresses[0] != "mallory@example.net" || reply.To.Public || len(reply.To.Players) != 0 {
		t.Errorf("rejection addressed to %+v, want only mallory@example.net", reply.To)
	}
	if want := "Unrecognized player: 'mallory@example.net'."; reply.Body != want {
		t.Errorf("rejection = %q, want %q", reply.Body, want)
	}
	after, err := h.state().Game.Export()
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if string(before) != string(after) {
		t.Error("message from a stranger reached the rules engine")
	}
}

func TestUnparseableSenderDropped(t *testing.T) {
	h := newHarness(t).started()
	before, err := h.state().Game.Export()
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	h.forum.deliver("", "", "kill Alice", epoch.Add(time.Second))
	h.forum.deliver("not an address", "", "kill Alice", epoch.Add(2*time.Second))
	h.clock.Advance(time.Minute)
	h.tick()

	if sent := h.forum.takeSent(); len(sent) != 0 {
		t.Errorf("replied to an unparseable sender: %+v", sent)
	}
	if want := h.clock.Now().Add(-testLag); !h.state().LastFetchCutoff.Equal(want) {
		t.Errorf("LastFetchCutoff = %v, want the window to be consumed up to %v", h.state().LastFetchCutoff, want)
	}
	after, err := h.state().Game.Export()
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if string(before) != string(after) {
		t.Error("message without a sender reached the rules engine")
	}
}

func TestHelpResendsRoleAnnouncement(t *testing.T) {
	h := newHarness(t).started()
	doctor := cast(t, h.state().Game)["Doctor"]

	h.forum.deliver(doctor.Address, "???", "Help me!", epoch.Add(time.Second))
	h.clock.Advance(time.Minute)
	h.tick()

	reply := requireOneMessage(t, h.forum.takeSent())
	requirePrivateTo(t, reply, doctor)
	if !strings.HasPrefix(reply.Body, "You are the **Town Doctor**.") {
		t.Errorf("help reply = %q, want the role announcement", reply.Body)
	}
	if !strings.Contains(reply.Body, "protect <player>") {
		t.Errorf("help reply should list the doctor's commands:\n%s", reply.Body)
	}
	if reply.Subject != "???" {
		t.Errorf("subject = %q", reply.Subject)
	}
	if reply.HTML == "" {
		t.Error("help reply has no HTML part")
	}
}

func TestHelpBeforeStartSendsNothing(t *testing.T) {
	h := newHarness(t)
	h.attach()
	player := h.state().Game.Players()[0]
	if err := h.moderator.help(context.Background(), player, forum.Inbound{Subject: "help"}); err != nil {
		t.Fatalf("help: %v", err)
	}
	if sent := h.forum.takeSent(); len(sent) != 0 {
		t.Errorf("sent %d messages without a role announcement", len(sent))
	}
}

func TestVoteTallyFollowsConfirmation(t *testing.T) {
	h := newHarness(t).started()
	roles := cast(t, h.state().Game)
	cop, goon := roles["Cop"], roles["Goon"]

	h.clock.Set(h.state().PhaseDeadline.Add(testLag + time.Second))
	h.tick()
	h.forum.takeSent()
	if h.state().Phase != (rules.Phase{Kind: rules.Day, Number: 1}) {
		t.Fatalf("phase = %v, want Day 1", h.state().Phase)
	}

	h.forum.deliver(cop.Address, "My Vote", "vote "+goon.Name+"\r\n-"+cop.Name, h.clock.Now().Add(time.Second))
	h.clock.Advance(time.Minute)
	h.tick()

	sent := h.forum.takeSent()
	if len(sent) != 2 {
		t.Fatalf("sent %d messages, want confirmation and tally", len(sent))
	}
	if !strings.HasPrefix(sent[0].Body, "Confirmed.") {
		t.Errorf("first message = %q, want the confirmation", sent[0].Body)
	}
	if want := "Current votes:\n- " + cop.Name + " votes for " + goon.Name + "."; sent[1].Body != want || !sent[1].To.Public {
		t.Errorf("second message = %q to %v, want public %q", sent[1].Body, sent[1].To, want)
	}
	if sent[1].Subject != "Test Game: Day 1" {
		t.Errorf("tally subject = %q", sent[1].Subject)
	}
}

func TestNoRedelivery(t *testing.T) {
	h := newHarness(t).started()
	goon := cast(t, h.state().Game)["Goon"]

	h.forum.deliver(goon.Address, "", "set will: avenge me", epoch.Add(10*time.Second))
	for range 5 {
		h.clock.Advance(20 * time.Second)
		h.tick()
	}

	var confirmations int
	for _, message := range h.forum.takeSent() {
		if strings.HasPrefix(message.Body, "Confirmed.") {
			confirmations++
		}
	}
	if confirmations != 1 {
		t.Errorf("message confirmed %d times across ticks, want 1", confirmations)
	}

	windows := h.forum.windows
	for i := 1; i < len(windows); i++ {
		if !windows[i].From.Equal(windows[i-1].To) {
			t.Errorf("window %d starts at %v, previous ended at %v", i, windows[i].From, windows[i-1].To)
		}
	}
	if len(windows) == 0 || !windows[0].From.Equal(epoch.Add(-testLag)) {
		t.Errorf("first window = %v, want to start one receipt lag before game creation", windows)
	}
}

func TestSafeCutoff(t *testing.T) {
	h := newHarness(t).started()
	goon := cast(t, h.state().Game)["Goon"]

	// Received 10s before now: inside the receipt lag, not yet safe.
	h.clock.Advance(time.Minute)
	h.forum.deliver(goon.Address, "", "set will: late", h.clock.Now().Add(-10*time.Second))
	h.tick()
	if sent := h.forum.takeSent(); len(sent) != 0 {
		t.Fatalf("message inside the receipt lag was processed: %v", sent)
	}
	if want := h.clock.Now().Add(-testLag); !h.state().LastFetchCutoff.Equal(want) {
		t.Errorf("LastFetchCutoff = %v, want now - lag = %v", h.state().LastFetchCutoff, want)
	}

	h.clock.Advance(time.Minute)
	h.tick()
	requireOneMessage(t, h.forum.takeSent())

	// Far past the deadline the cutoff stops at the deadline.
	deadline := h.state().PhaseDeadline
	if got := h.moderator.safeCutoff(deadline.Add(time.Hour)); !got.Equal(deadline) {
		t.Errorf("safeCutoff past the deadline = %v, want %v", got, deadline)
	}
}

func TestMessageAfterDeadlineCountsForNextPhase(t *testing.T) {
	h := newHarness(t).started()
	roles := cast(t, h.state().Game)
	goon, cop := roles["Goon"], roles["Cop"]
	deadline := h.state().PhaseDeadline

	h.forum.deliver(goon.Address, "", "kill "+cop.Name, deadline.Add(5*time.Second))
	h.clock.Set(deadline.Add(testLag + time.Second))
	h.tick()

	for _, message := range h.forum.takeSent() {
		if strings.Contains(message.Body, "has died") {
			t.Fatalf("kill sent after the deadline took effect in Night 0: %q", message.Body)
		}
	}

	h.clock.Advance(time.Minute)
	h.tick()
	reply := requireOneMessage(t, h.forum.takeSent())
	if want := "You can only kill at night."; !strings.HasPrefix(reply.Body, want) {
		t.Errorf("late kill reply = %q, want it judged in Day 1", reply.Body)
	}
}

// brokenGame fails every action with an error the moderator does not
// recognize.
type brokenGame struct {
	rules.Game
}

func (brokenGame) Act(rules.Phase, rules.Player, string) error { return errBoom }

func TestUnknownEngineErrorIsFatal(t *testing.T) {
	h := newHarness(t).started()
	h.state().Game = brokenGame{h.state().Game}
	player := h.state().Game.Players()[0]
	cutoff := h.state().LastFetchCutoff

	h.forum.deliver(player.Address, "", "vote Bob", epoch.Add(time.Second))
	h.clock.Advance(time.Minute)
	_, err := h.moderator.tick(context.Background())
	if !errors.Is(err, errBoom) {
		t.Fatalf("tick error = %v, want the engine failure", err)
	}
	if sent := h.forum.takeSent(); len(sent) != 0 {
		t.Errorf("replied %d times to a message the engine failed on", len(sent))
	}
	if !h.state().LastFetchCutoff.Equal(cutoff) {
		t.Error("LastFetchCutoff advanced past a failed window")
	}
}

func TestFetchFailureIsFatal(t *testing.T) {
	h := newHarness(t).started()
	cutoff := h.state().LastFetchCutoff
	h.forum.fetchErr = errors.New("connection reset")

	h.clock.Advance(time.Minute)
	_, err := h.moderator.tick(context.Background())
	var transportErr *forum.TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("tick error = %v, want *forum.TransportError", err)
	}
	if !h.state().LastFetchCutoff.Equal(cutoff) {
		t.Error("LastFetchCutoff advanced after a failed fetch")
	}
}
