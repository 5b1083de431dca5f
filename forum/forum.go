// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package forum

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/bureau-foundation/godfather/rules"
)

// Forum is a message transport. Implementations are not required to be
// safe for concurrent use; the moderator calls them from one goroutine.
type Forum interface {
	// ReceiptLag is how long after delivery a message is guaranteed
	// to be visible to Messages.
	ReceiptLag() time.Duration

	// Send delivers message to its recipients. Errors are
	// *TransportError.
	Send(ctx context.Context, game rules.Game, message Message) error

	// Messages returns the messages addressed to the game that were
	// received in window, oldest first. Errors are *TransportError.
	Messages(ctx context.Context, game rules.Game, window Window) ([]Inbound, error)

	Close() error
}

// Recipients selects who receives an outbound message. Exactly one of
// the fields is normally set: Public for a broadcast to every player,
// Players for private messages, Addresses for replies to senders that
// are not in the game.
type Recipients struct {
	Public    bool
	Players   []rules.Player
	Addresses []string
}

// Everyone is a broadcast.
func Everyone() Recipients { return Recipients{Public: true} }

// ToPlayers addresses players privately.
func ToPlayers(players ...rules.Player) Recipients { return Recipients{Players: players} }

// ToAddress addresses a raw mail address.
func ToAddress(address string) Recipients { return Recipients{Addresses: []string{address}} }

// FromAudience converts an event audience.
func FromAudience(audience rules.Audience) Recipients {
	if audience.Public {
		return Everyone()
	}
	return ToPlayers(audience.Players...)
}

// Resolve returns the roster members the message goes to: everyone for
// a broadcast, otherwise the named players in order.
func (r Recipients) Resolve(roster []rules.Player) []rules.Player {
	if r.Public {
		return slices.Clone(roster)
	}
	return slices.Clone(r.Players)
}

// Empty reports whether the message would reach nobody.
func (r Recipients) Empty() bool {
	return !r.Public && len(r.Players) == 0 && len(r.Addresses) == 0
}

func (r Recipients) String() string {
	switch {
	case r.Public:
		return "everyone"
	case len(r.Players) > 0:
		return rules.JoinNames(r.Players)
	default:
		return fmt.Sprint(r.Addresses)
	}
}

// Message is an outbound message. Body is the plain text; HTML is the
// same content rendered for mail clients and may be empty.
type Message struct {
	To      Recipients
	Subject string
	Body    string
	HTML    string
}

// Inbound is a message received from a player or a stranger. From is
// the raw sender as the transport reported it.
type Inbound struct {
	ID         string
	From       string
	Subject    string
	Body       string
	ReceivedAt time.Time
}

// Window is the half-open interval [From, To).
type Window struct {
	From time.Time
	To   time.Time
}

// Empty reports whether the window contains no instant.
func (w Window) Empty() bool {
	return !w.From.Before(w.To)
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.From) && t.Before(w.To)
}

func (w Window) String() string {
	return fmt.Sprintf("[%s, %s)", w.From.Format(time.RFC3339Nano), w.To.Format(time.RFC3339Nano))
}

// TransportError reports a failed transport operation. The moderator
// never retries it.
type TransportError struct {
	// Op names the operation, for example "send" or "fetch".
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("forum %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Failed wraps err as a *TransportError for op. A nil err stays nil.
func Failed(op string, err error) error {
	if err == nil {
		return nil
	}
	return &TransportError{Op: op, Err: err}
}
