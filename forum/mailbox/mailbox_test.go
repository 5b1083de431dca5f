// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package mailbox

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/bureau-foundation/godfather/forum"
	"github.com/bureau-foundation/godfather/lib/clock"
	"github.com/bureau-foundation/godfather/lib/mafia"
	"github.com/bureau-foundation/godfather/rules"
)

var players = []rules.Player{
	{Name: "Alice", Address: "alice@example.com"},
	{Name: "Bob", Address: "bob@example.com"},
	{Name: "Eve", Address: "eve@example.com"},
}

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func openMailbox(t *testing.T, path string, clk clock.Clock) *Forum {
	t.Helper()
	mailbox, err := Open(Config{Path: path, Clock: clk})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { mailbox.Close() })
	return mailbox
}

func newGame(t *testing.T) rules.Game {
	t.Helper()
	game, err := mafia.New(players, []string{"Cop", "Doctor", "Goon"}, 123)
	if err != nil {
		t.Fatalf("mafia.New: %v", err)
	}
	return game
}

func TestWindowsAreHalfOpen(t *testing.T) {
	ctx := context.Background()
	fake := clock.Fake(epoch)
	mailbox := openMailbox(t, filepath.Join(t.TempDir(), "mailbox.db"), fake)

	for _, offset := range []time.Duration{0, 30 * time.Second, time.Minute, 90 * time.Second} {
		if _, err := mailbox.Inject(ctx, forum.Inbound{
			From:       "alice@example.com",
			Body:       offset.String(),
			ReceivedAt: epoch.Add(offset),
		}); err != nil {
			t.Fatalf("Inject: %v", err)
		}
	}

	first, err := mailbox.Messages(ctx, nil, forum.Window{From: epoch, To: epoch.Add(time.Minute)})
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	second, err := mailbox.Messages(ctx, nil, forum.Window{From: epoch.Add(time.Minute), To: epoch.Add(2 * time.Minute)})
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}

	bodies := func(messages []forum.Inbound) []string {
		var result []string
		for _, message := range messages {
			result = append(result, message.Body)
		}
		return result
	}
	if got := bodies(first); !slices.Equal(got, []string{"0s", "30s"}) {
		t.Errorf("first window = %v, want [0s 30s]", got)
	}
	if got := bodies(second); !slices.Equal(got, []string{"1m0s", "1m30s"}) {
		t.Errorf("second window = %v, want [1m0s 1m30s]", got)
	}
}

func TestInjectDefaults(t *testing.T) {
	ctx := context.Background()
	fake := clock.Fake(epoch)
	mailbox := openMailbox(t, filepath.Join(t.TempDir(), "mailbox.db"), fake)

	stored, err := mailbox.Inject(ctx, forum.Inbound{From: "bob@example.com", Subject: "vote", Body: "vote Eve"})
	if err != nil {
		t.Fatalf("Inject: %v", err)
	}
	if stored.ID == "" {
		t.Error("Inject did not assign an ID")
	}
	if !stored.ReceivedAt.Equal(epoch) {
		t.Errorf("ReceivedAt = %v, want the clock's now", stored.ReceivedAt)
	}

	messages, err := mailbox.Messages(ctx, nil, forum.Window{From: epoch, To: epoch.Add(time.Nanosecond)})
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if len(messages) != 1 || messages[0].ID != stored.ID || messages[0].Body != "vote Eve" || !messages[0].ReceivedAt.Equal(epoch) {
		t.Errorf("Messages = %+v, want [%+v]", messages, stored)
	}

	if _, err := mailbox.Inject(ctx, forum.Inbound{ID: stored.ID, From: "x"}); err == nil {
		t.Error("duplicate ID should fail")
	} else {
		var transportErr *forum.TransportError
		if !errors.As(err, &transportErr) {
			t.Errorf("Inject error = %v, want *forum.TransportError", err)
		}
	}
}

func TestSendRecordsDeliveries(t *testing.T) {
	ctx := context.Background()
	mailbox := openMailbox(t, filepath.Join(t.TempDir(), "mailbox.db"), clock.Fake(epoch))
	game := newGame(t)

	if err := mailbox.Send(ctx, game, forum.Message{To: forum.Everyone(), Subject: "Test Game: Start", Body: "Welcome.", HTML: "<p>Welcome.</p>"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := mailbox.Send(ctx, game, forum.Message{To: forum.ToPlayers(players[0]), Subject: "Test Game: Night 0", Body: "Confirmed."}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := mailbox.Send(ctx, game, forum.Message{Subject: "nobody"}); err == nil {
		t.Error("Send without recipients should fail")
	}

	deliveries, err := mailbox.Sent(ctx)
	if err != nil {
		t.Fatalf("Sent: %v", err)
	}
	if len(deliveries) != 2 {
		t.Fatalf("Sent = %d deliveries, want 2", len(deliveries))
	}
	if !deliveries[0].Public || len(deliveries[0].To) != 3 || deliveries[0].HTML != "<p>Welcome.</p>" {
		t.Errorf("broadcast = %+v", deliveries[0])
	}
	if deliveries[1].Public || !slices.Equal(deliveries[1].To, []string{"alice@example.com"}) {
		t.Errorf("private = %+v", deliveries[1])
	}
}

func TestSharedAcrossOpens(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "mailbox.db")
	moderatorSide := openMailbox(t, path, clock.Fake(epoch))
	operatorSide := openMailbox(t, path, clock.Fake(epoch))

	if _, err := operatorSide.Inject(ctx, forum.Inbound{From: "eve@example.com", Body: "kill Alice"}); err != nil {
		t.Fatalf("Inject: %v", err)
	}
	messages, err := moderatorSide.Messages(ctx, nil, forum.Window{From: epoch, To: epoch.Add(time.Second)})
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if len(messages) != 1 || messages[0].Body != "kill Alice" {
		t.Errorf("Messages = %+v", messages)
	}
}
