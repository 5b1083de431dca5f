// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package mailbox is a forum kept in a local SQLite database.
//
// Inbound mail is written with [Forum.Inject], normally by
// `godfather mail` running in another process while the moderator
// polls. Outbound mail is recorded instead of delivered and can be read
// back with [Forum.Sent]. The mailbox exercises the full moderator
// loop without a mail provider.
package mailbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/godfather/forum"
	"github.com/bureau-foundation/godfather/lib/clock"
	"github.com/bureau-foundation/godfather/lib/sqlitepool"
	"github.com/bureau-foundation/godfather/rules"
)

// ReceiptLag covers an Inject that read the clock just before the
// moderator's cutoff but committed just after its query.
const ReceiptLag = time.Second

const schema = `
CREATE TABLE IF NOT EXISTS inbound (
	id          TEXT PRIMARY KEY,
	sender      TEXT NOT NULL,
	subject     TEXT NOT NULL,
	body        TEXT NOT NULL,
	received_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS inbound_received_at ON inbound (received_at);

CREATE TABLE IF NOT EXISTS outbound (
	id         TEXT PRIMARY KEY,
	recipients TEXT NOT NULL,
	public     INTEGER NOT NULL,
	subject    TEXT NOT NULL,
	body       TEXT NOT NULL,
	html       TEXT NOT NULL,
	sent_at    INTEGER NOT NULL
);
`

// Config holds the parameters for Open.
type Config struct {
	// Path is the database file.
	Path string
	// Clock stamps injected and sent mail. Default: real time.
	Clock clock.Clock
	// Logger defaults to a discarding logger.
	Logger *slog.Logger
}

// Forum is a SQLite mailbox.
type Forum struct {
	pool   *sqlitepool.Pool
	clock  clock.Clock
	logger *slog.Logger
}

var _ forum.Forum = (*Forum)(nil)

// Delivery is a recorded outbound message.
type Delivery struct {
	ID      string
	To      []string
	Public  bool
	Subject string
	Body    string
	HTML    string
	SentAt  time.Time
}

// Open opens or creates the mailbox at config.Path.
func Open(config Config) (*Forum, error) {
	if config.Path == "" {
		return nil, errors.New("mailbox: Path is required")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}
	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:   config.Path,
		Logger: logger,
		OnConnect: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn, schema, nil)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("mailbox: %w", err)
	}
	return &Forum{pool: pool, clock: clk, logger: logger}, nil
}

// ReceiptLag implements forum.Forum.
func (f *Forum) ReceiptLag() time.Duration { return ReceiptLag }

// Close closes the database.
func (f *Forum) Close() error {
	return f.pool.Close()
}

// Inject stores an inbound message. A missing ID is generated and a
// zero ReceivedAt is set from the clock. The stored message is
// returned.
func (f *Forum) Inject(ctx context.Context, message forum.Inbound) (forum.Inbound, error) {
	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	if message.ReceivedAt.IsZero() {
		message.ReceivedAt = f.clock.Now()
	}
	message.ReceivedAt = message.ReceivedAt.UTC()

	conn, err := f.pool.Take(ctx)
	if err != nil {
		return forum.Inbound{}, forum.Failed("inject", err)
	}
	defer f.pool.Put(conn)

	err = sqlitex.Execute(conn,
		"INSERT INTO inbound (id, sender, subject, body, received_at) VALUES (?, ?, ?, ?, ?)",
		&sqlitex.ExecOptions{Args: []any{
			message.ID, message.From, message.Subject, message.Body, message.ReceivedAt.UnixNano(),
		}})
	if err != nil {
		return forum.Inbound{}, forum.Failed("inject", err)
	}
	f.logger.Debug("mail injected", "id", message.ID, "sender", message.From)
	return message, nil
}

// Send records message with its resolved recipient addresses.
func (f *Forum) Send(ctx context.Context, game rules.Game, message forum.Message) error {
	to := append([]string(nil), message.To.Addresses...)
	for _, player := range message.To.Resolve(game.Players()) {
		to = append(to, player.Address)
	}
	if len(to) == 0 {
		return forum.Failed("send", errors.New("message has no recipients"))
	}

	conn, err := f.pool.Take(ctx)
	if err != nil {
		return forum.Failed("send", err)
	}
	defer f.pool.Put(conn)

	err = sqlitex.Execute(conn,
		"INSERT INTO outbound (id, recipients, public, subject, body, html, sent_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		&sqlitex.ExecOptions{Args: []any{
			uuid.NewString(), strings.Join(to, ","), message.To.Public,
			message.Subject, message.Body, message.HTML, f.clock.Now().UnixNano(),
		}})
	if err != nil {
		return forum.Failed("send", err)
	}
	return nil
}

// Messages returns the inbound mail received in window, oldest first.
func (f *Forum) Messages(ctx context.Context, _ rules.Game, window forum.Window) ([]forum.Inbound, error) {
	if window.Empty() {
		return nil, nil
	}
	conn, err := f.pool.Take(ctx)
	if err != nil {
		return nil, forum.Failed("fetch", err)
	}
	defer f.pool.Put(conn)

	var messages []forum.Inbound
	err = sqlitex.Execute(conn, `
		SELECT id, sender, subject, body, received_at FROM inbound
		WHERE received_at >= ? AND received_at < ?
		ORDER BY received_at, rowid`,
		&sqlitex.ExecOptions{
			Args: []any{window.From.UnixNano(), window.To.UnixNano()},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				messages = append(messages, forum.Inbound{
					ID:         stmt.ColumnText(0),
					From:       stmt.ColumnText(1),
					Subject:    stmt.ColumnText(2),
					Body:       stmt.ColumnText(3),
					ReceivedAt: time.Unix(0, stmt.ColumnInt64(4)).UTC(),
				})
				return nil
			},
		})
	if err != nil {
		return nil, forum.Failed("fetch", err)
	}
	return messages, nil
}

// Sent returns every recorded outbound message in send order.
func (f *Forum) Sent(ctx context.Context) ([]Delivery, error) {
	conn, err := f.pool.Take(ctx)
	if err != nil {
		return nil, err
	}
	defer f.pool.Put(conn)

	var deliveries []Delivery
	err = sqlitex.Execute(conn,
		"SELECT id, recipients, public, subject, body, html, sent_at FROM outbound ORDER BY sent_at, rowid",
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				deliveries = append(deliveries, Delivery{
					ID:      stmt.ColumnText(0),
					To:      strings.Split(stmt.ColumnText(1), ","),
					Public:  stmt.ColumnBool(2),
					Subject: stmt.ColumnText(3),
					Body:    stmt.ColumnText(4),
					HTML:    stmt.ColumnText(5),
					SentAt:  time.Unix(0, stmt.ColumnInt64(6)).UTC(),
				})
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("mailbox: reading outbound: %w", err)
	}
	return deliveries, nil
}
