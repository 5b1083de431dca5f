// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package moderator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bureau-foundation/godfather/forum"
	"github.com/bureau-foundation/godfather/lib/render"
	"github.com/bureau-foundation/godfather/rules"
)

// safeCutoff is the latest instant up to which the forum's view is
// complete, clamped to the phase deadline so messages sent after the
// deadline wait for the next phase.
func (m *Moderator) safeCutoff(now time.Time) time.Time {
	cutoff := now.Add(-m.forum.ReceiptLag())
	if m.state.PhaseDeadline.Before(cutoff) {
		cutoff = m.state.PhaseDeadline
	}
	return cutoff
}

// reconcile fetches the window since the last cutoff and processes
// every message in it. LastFetchCutoff moves once, after the whole
// window was handled.
func (m *Moderator) reconcile(ctx context.Context, now time.Time) error {
	cutoff := m.safeCutoff(now)
	window := forum.Window{From: m.state.LastFetchCutoff, To: cutoff}

	if !window.Empty() {
		messages, err := m.forum.Messages(ctx, m.state.Game, window)
		if err != nil {
			return fmt.Errorf("fetching messages: %w", err)
		}
		if len(messages) > 0 {
			m.logger.Info("messages received", "count", len(messages), "window", window.String())
		}
		for _, message := range messages {
			if err := m.handle(ctx, message); err != nil {
				return err
			}
		}
	}

	if cutoff.After(m.state.LastFetchCutoff) {
		m.state.LastFetchCutoff = cutoff
	}
	return nil
}

// handle processes one inbound message.
func (m *Moderator) handle(ctx context.Context, message forum.Inbound) error {
	player, ok := rules.FindPlayer(m.state.Game.Players(), message.From)
	if !ok {
		address, err := rules.ParseAddress(message.From)
		if err != nil {
			// No reply can be delivered to a sender that is not an
			// address, and a failed send would stall the window.
			m.logger.Warn("dropping message with unparseable sender", "sender", message.From, "id", message.ID, "error", err)
			return nil
		}
		m.logger.Warn("message from unrecognized sender", "sender", address, "id", message.ID)
		return m.reply(ctx, forum.ToAddress(address), message, render.Rejection(address))
	}

	actErr := m.state.Game.Act(m.state.Phase, player, message.Body)

	var invalid *rules.InvalidActionError
	var err error
	switch {
	case actErr == nil:
		m.logger.Info("action accepted", "sender", player.Name, "phase", m.state.Phase)
		err = m.reply(ctx, forum.ToPlayers(player), message, render.Confirmation(message.Body))
	case errors.As(actErr, &invalid):
		m.logger.Info("action rejected", "sender", player.Name, "phase", m.state.Phase, "reason", invalid.Reason)
		err = m.reply(ctx, forum.ToPlayers(player), message, render.InvalidAction(invalid.Reason, message.Body))
	case errors.Is(actErr, rules.ErrHelpRequested):
		err = m.help(ctx, player, message)
	default:
		return fmt.Errorf("rules engine failed on message %s from %s: %w", message.ID, player.Name, actErr)
	}
	if err != nil {
		return err
	}
	// Events the action logged, such as a new vote tally, follow the
	// reply.
	return m.dispatcher.flush(ctx)
}

// help resends the player's most recent role announcement.
func (m *Moderator) help(ctx context.Context, player rules.Player, message forum.Inbound) error {
	event, ok := m.state.Game.Log().Latest(
		rules.ByRecipient(player),
		rules.ByKind(rules.KindRoleAnnouncement),
	)
	if !ok {
		m.logger.Warn("help requested but no role announcement found", "sender", player.Name)
		return nil
	}
	body, err := render.Event(event)
	if err != nil {
		return err
	}
	m.logger.Info("help sent", "sender", player.Name)
	return m.sendBody(ctx, forum.ToPlayers(player), replySubject(message, m.state.Name), body)
}

func (m *Moderator) reply(ctx context.Context, to forum.Recipients, message forum.Inbound, text string) error {
	return m.send(ctx, to, replySubject(message, m.state.Name), text)
}

// replySubject keeps the sender's subject so replies thread.
func replySubject(message forum.Inbound, fallback string) string {
	if message.Subject == "" {
		return fallback
	}
	return message.Subject
}
