// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package moderator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/godfather/forum"
	"github.com/bureau-foundation/godfather/lib/render"
	"github.com/bureau-foundation/godfather/rules"
)

// dispatcher mails out logged events. It subscribes to the game log
// and queues every event with a non-empty audience; flush renders and
// sends the queue in append order. The moderator flushes after every
// engine call, so an event is on its way before the state that caused
// it is saved.
type dispatcher struct {
	forum  forum.Forum
	game   rules.Game
	name   string
	logger *slog.Logger

	// starting makes subjects read "<name>: Start" while the game is
	// being dealt.
	starting bool
	pending  []rules.Event
	remove   func()
}

func newDispatcher(transport forum.Forum, game rules.Game, name string, logger *slog.Logger) *dispatcher {
	d := &dispatcher{forum: transport, game: game, name: name, logger: logger}
	d.remove = game.Log().OnAppend(d.enqueue)
	return d
}

func (d *dispatcher) enqueue(event rules.Event) {
	if event.Audience().Empty() {
		return
	}
	d.pending = append(d.pending, event)
}

func (d *dispatcher) subject(event rules.Event) string {
	if d.starting {
		return d.name + ": Start"
	}
	return fmt.Sprintf("%s: %s", d.name, event.When())
}

// flush sends the queued events. It stops at the first failure and
// returns it; the unsent events stay queued, but the moderator treats
// the error as fatal.
func (d *dispatcher) flush(ctx context.Context) error {
	for len(d.pending) > 0 {
		event := d.pending[0]
		body, err := render.Event(event)
		if err != nil {
			return err
		}
		message := forum.Message{
			To:      forum.FromAudience(event.Audience()),
			Subject: d.subject(event),
			Body:    body.Text,
			HTML:    body.HTML,
		}
		if err := d.forum.Send(ctx, d.game, message); err != nil {
			return fmt.Errorf("sending %s event: %w", event.Kind(), err)
		}
		d.logger.Debug("event sent", "kind", event.Kind(), "phase", event.When(), "to", message.To.String())
		d.pending = d.pending[1:]
	}
	return nil
}

func (d *dispatcher) close() {
	d.remove()
}
