// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package moderator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bureau-foundation/godfather/forum"
	"github.com/bureau-foundation/godfather/lib/checkpoint"
	"github.com/bureau-foundation/godfather/lib/clock"
	"github.com/bureau-foundation/godfather/lib/phaseclock"
	"github.com/bureau-foundation/godfather/lib/render"
)

// Config holds a moderator's collaborators.
type Config struct {
	Forum forum.Forum
	// Clock defaults to real time.
	Clock clock.Clock
	// Checkpoints receives the start, phase and end snapshots. Nil
	// disables checkpoints.
	Checkpoints *checkpoint.Store
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Moderator drives one game. It is not safe for concurrent use; Run
// owns the state until it returns.
type Moderator struct {
	state       *State
	forum       forum.Forum
	clock       clock.Clock
	checkpoints *checkpoint.Store
	logger      *slog.Logger

	dispatcher *dispatcher
}

// New returns a moderator for state.
func New(state *State, config Config) (*Moderator, error) {
	if state == nil || state.Game == nil {
		return nil, errors.New("moderator: state with a game is required")
	}
	if config.Forum == nil {
		return nil, errors.New("moderator: Forum is required")
	}
	if state.TickInterval <= 0 {
		return nil, fmt.Errorf("moderator: tick interval must be positive, got %v", state.TickInterval)
	}
	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Moderator{
		state:       state,
		forum:       config.Forum,
		clock:       clk,
		checkpoints: config.Checkpoints,
		logger:      logger.With("game", state.Name),
	}, nil
}

// State returns the moderated state.
func (m *Moderator) State() *State { return m.state }

// Run starts the game if needed and ticks until the game ends or ctx
// is cancelled. Cancellation is only observed between ticks and is not
// an error. Any transport, engine or persistence failure stops the
// loop and is returned.
func (m *Moderator) Run(ctx context.Context) error {
	if m.state.Ended {
		m.logger.Info("game already ended")
		return nil
	}

	m.dispatcher = newDispatcher(m.forum, m.state.Game, m.state.Name, m.logger)
	defer m.dispatcher.close()

	// Ticks run to completion once begun.
	work := context.WithoutCancel(ctx)

	if !m.state.Started {
		if err := m.start(work); err != nil {
			return err
		}
	}

	for {
		ended, err := m.tick(work)
		if err != nil {
			return err
		}
		if ended {
			return nil
		}
		if err := clock.Wait(ctx, m.clock, m.state.TickInterval); err != nil {
			m.logger.Info("moderator stopped", "phase", m.state.Phase, "reason", err)
			return nil
		}
	}
}

// start sends the welcome, deals the roles and records the start.
func (m *Moderator) start(ctx context.Context) error {
	m.logger.Info("starting game", "players", len(m.state.Game.Players()), "deadline", m.state.PhaseDeadline)

	m.dispatcher.starting = true
	defer func() { m.dispatcher.starting = false }()

	welcome := render.Welcome(m.state.Name, m.state.Game.Players(), m.state.PhaseDeadline)
	if err := m.send(ctx, forum.Everyone(), m.state.Name+": Start", welcome); err != nil {
		return err
	}
	if err := m.state.Game.Begin(); err != nil {
		return fmt.Errorf("beginning game: %w", err)
	}
	if err := m.dispatcher.flush(ctx); err != nil {
		return err
	}

	// The first window opens one receipt lag back, so the cutoff
	// never runs ahead of what the forum can have delivered.
	if seed := m.clock.Now().Add(-m.forum.ReceiptLag()); seed.Before(m.state.LastFetchCutoff) {
		m.state.LastFetchCutoff = seed
	}

	m.state.Started = true
	if err := m.checkpoint("start"); err != nil {
		return err
	}
	return m.save()
}

// tick runs one reconcile/advance/persist round and reports whether
// the game ended.
func (m *Moderator) tick(ctx context.Context) (bool, error) {
	now := m.clock.Now()
	if err := m.reconcile(ctx, now); err != nil {
		return false, err
	}

	if now.After(m.state.PhaseDeadline.Add(m.forum.ReceiptLag())) {
		if err := m.advance(ctx, now); err != nil {
			return false, err
		}
	}

	if err := m.save(); err != nil {
		return false, err
	}

	if m.state.Game.IsOver() {
		return true, m.finish(ctx)
	}
	return false, nil
}

// advance resolves the current phase and moves to the next one.
func (m *Moderator) advance(ctx context.Context, now time.Time) error {
	ended := m.state.Phase
	if err := m.state.Game.Resolve(ended); err != nil {
		return fmt.Errorf("resolving %s: %w", ended, err)
	}
	if err := m.dispatcher.flush(ctx); err != nil {
		return err
	}

	m.state.Phase = ended.Next()
	m.state.PhaseDeadline = phaseclock.Deadline(m.state.Phase, now, m.state.NightEnd, m.state.DayEnd).In(m.state.Location)
	m.logger.Info("phase advanced",
		"ended", ended,
		"phase", m.state.Phase,
		"deadline", m.state.PhaseDeadline,
	)

	if !m.state.Game.IsOver() {
		summary := render.PhaseSummary(ended, m.state.Phase, m.state.PhaseDeadline)
		if err := m.send(ctx, forum.Everyone(), fmt.Sprintf("%s: %s", m.state.Name, m.state.Phase), summary); err != nil {
			return err
		}
	}
	return m.checkpoint(m.state.Phase.Slug())
}

// finish announces the winners and persists the terminal state.
func (m *Moderator) finish(ctx context.Context) error {
	winners := m.state.Game.Winners()
	m.logger.Info("game over", "winners", len(winners), "phase", m.state.Phase)

	if err := m.send(ctx, forum.Everyone(), m.state.Name+": The End", render.Congratulations(winners)); err != nil {
		return err
	}
	m.state.Ended = true
	if err := m.checkpoint("end"); err != nil {
		return err
	}
	return m.save()
}

func (m *Moderator) save() error {
	if err := Save(m.state); err != nil {
		return err
	}
	m.logger.Debug("state saved",
		"phase", m.state.Phase,
		"deadline", m.state.PhaseDeadline,
		"last_fetch_cutoff", m.state.LastFetchCutoff,
	)
	return nil
}

func (m *Moderator) checkpoint(name string) error {
	if m.checkpoints == nil {
		return nil
	}
	payload, err := Encode(m.state)
	if err != nil {
		return err
	}
	if _, err := m.checkpoints.Write(name, payload); err != nil {
		return fmt.Errorf("checkpoint %s: %w", name, err)
	}
	return nil
}

func (m *Moderator) send(ctx context.Context, to forum.Recipients, subject, text string) error {
	body, err := render.NewBody(text)
	if err != nil {
		return err
	}
	return m.sendBody(ctx, to, subject, body)
}

func (m *Moderator) sendBody(ctx context.Context, to forum.Recipients, subject string, body render.Body) error {
	return m.forum.Send(ctx, m.state.Game, forum.Message{
		To:      to,
		Subject: subject,
		Body:    body.Text,
		HTML:    body.HTML,
	})
}
