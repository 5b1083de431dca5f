// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package console is a send-only forum that prints every outbound
// message. Nothing is ever received, so a game on the console
// transport advances on deadlines alone. It is the default transport
// of a fresh setup and is useful for rehearsing a setup file.
package console

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/bureau-foundation/godfather/forum"
	"github.com/bureau-foundation/godfather/rules"
)

const ruleWidth = 72

// Forum writes messages to an io.Writer.
type Forum struct {
	output io.Writer
	logger *slog.Logger

	mu     sync.Mutex
	header lipgloss.Style
	label  lipgloss.Style
	rule   string
}

var _ forum.Forum = (*Forum)(nil)

// New returns a console forum writing to output. Styling is enabled
// only when output is a terminal.
func New(output io.Writer, logger *slog.Logger) *Forum {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	profile := termenv.Ascii
	if file, ok := output.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		profile = termenv.ANSI256
	}
	renderer := lipgloss.NewRenderer(output, termenv.WithProfile(profile))
	renderer.SetColorProfile(profile)

	return &Forum{
		output: output,
		logger: logger,
		header: renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
		label:  renderer.NewStyle().Faint(true),
		rule:   renderer.NewStyle().Faint(true).Render(strings.Repeat("─", ruleWidth)),
	}
}

// ReceiptLag is zero: there is no inbound path to wait for.
func (f *Forum) ReceiptLag() time.Duration { return 0 }

// Send prints message.
func (f *Forum) Send(_ context.Context, game rules.Game, message forum.Message) error {
	to := recipientList(message.To, game.Players())

	f.mu.Lock()
	defer f.mu.Unlock()

	var builder strings.Builder
	fmt.Fprintf(&builder, "%s %s\n", f.label.Render("To:"), to)
	fmt.Fprintf(&builder, "%s %s\n", f.label.Render("Subject:"), f.header.Render(message.Subject))
	builder.WriteString("\n")
	builder.WriteString(strings.TrimRight(message.Body, "\n"))
	builder.WriteString("\n")
	builder.WriteString(f.rule)
	builder.WriteString("\n")

	if _, err := io.WriteString(f.output, builder.String()); err != nil {
		return forum.Failed("send", err)
	}
	f.logger.Debug("message printed", "to", to, "subject", message.Subject)
	return nil
}

// Messages always returns nothing.
func (f *Forum) Messages(context.Context, rules.Game, forum.Window) ([]forum.Inbound, error) {
	return nil, nil
}

func (f *Forum) Close() error { return nil }

func recipientList(recipients forum.Recipients, roster []rules.Player) string {
	if len(recipients.Addresses) > 0 && !recipients.Public && len(recipients.Players) == 0 {
		return strings.Join(recipients.Addresses, ", ")
	}
	players := recipients.Resolve(roster)
	names := make([]string, len(players))
	for i, player := range players {
		names[i] = fmt.Sprintf("%s <%s>", player.Name, player.Address)
	}
	return strings.Join(names, ", ")
}
