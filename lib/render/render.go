// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package render

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/bureau-foundation/godfather/lib/phaseclock"
	"github.com/bureau-foundation/godfather/rules"
)

// Body is a rendered message body.
type Body struct {
	// Text is the Markdown source, readable as plain text.
	Text string
	// HTML is Text rendered to HTML.
	HTML string
}

var (
	markdownInstance goldmark.Markdown
	markdownOnce     sync.Once
)

func markdown() goldmark.Markdown {
	markdownOnce.Do(func() {
		markdownInstance = goldmark.New(goldmark.WithExtensions(extension.GFM))
	})
	return markdownInstance
}

// NewBody renders Markdown text into a Body.
func NewBody(text string) (Body, error) {
	var html bytes.Buffer
	if err := markdown().Convert([]byte(text), &html); err != nil {
		return Body{}, fmt.Errorf("rendering markdown: %w", err)
	}
	return Body{Text: text, HTML: html.String()}, nil
}

var functions = template.FuncMap{
	"names": rules.JoinNames,
	"quote": Quote,
}

// eventTemplates has one entry per rules.EventKind.
var eventTemplates = map[rules.EventKind]*template.Template{
	rules.KindRoleAnnouncement: parse(rules.KindRoleAnnouncement,
		`You are the **{{.Faction}} {{.Role}}**.

{{.Description}}`),

	rules.KindFactionAnnouncement: parse(rules.KindFactionAnnouncement,
		`You are the {{.Faction}}. Your members are {{names .Members}}.`),

	rules.KindDied: parse(rules.KindDied,
		`{{.Player.Name}}, the **{{.Role}}**, has died.{{template "will" .}}`),

	rules.KindLynched: parse(rules.KindLynched,
		`{{.Player.Name}}, the **{{.Role}}**, was lynched by {{names .Voters}}.{{template "will" .}}`),

	rules.KindVoteTally: parse(rules.KindVoteTally,
		`Current votes:{{range .Counts}}{{$target := .Target}}{{range .Voters}}
- {{.Name}} votes for {{$target.Name}}.{{end}}{{else}}
- Nobody has voted.{{end}}`),

	rules.KindInvestigationResult: parse(rules.KindInvestigationResult,
		`{{.Target.Name}} is a member of the {{.Faction}}.`),

	rules.KindNoLynch: parse(rules.KindNoLynch,
		`Nobody was lynched on {{.Phase}}.`),

	rules.KindVictory: parse(rules.KindVictory,
		`The {{.Faction}} has won. Congratulations to {{names .Winners}}!`),
}

const willTemplate = `{{define "will"}}{{if .Will}}

## The Last Will and Testament of {{.Player.Name}}

{{quote .Will}}{{end}}{{end}}`

func parse(kind rules.EventKind, text string) *template.Template {
	return template.Must(template.Must(
		template.New(string(kind)).Funcs(functions).Parse(willTemplate)).Parse(text))
}

// Event renders an event's body.
func Event(event rules.Event) (Body, error) {
	tmpl, ok := eventTemplates[event.Kind()]
	if !ok {
		return Body{}, fmt.Errorf("no template for event kind %q", event.Kind())
	}
	var text strings.Builder
	if err := tmpl.Execute(&text, event); err != nil {
		return Body{}, fmt.Errorf("rendering %s event: %w", event.Kind(), err)
	}
	return NewBody(text.String())
}

// Line renders an event as a single line for log listings.
func Line(event rules.Event) (string, error) {
	body, err := Event(event)
	if err != nil {
		return "", err
	}
	flattened := strings.Join(strings.Fields(strings.ReplaceAll(body.Text, "**", "")), " ")
	return fmt.Sprintf("[%s] %s: %s", event.When(), event.Kind(), flattened), nil
}

// Quote prefixes every line of text with "> ".
func Quote(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = "> " + line
	}
	return strings.Join(lines, "\n")
}

// Confirmation acknowledges an accepted action, echoing it.
func Confirmation(original string) string {
	return "Confirmed.\n\n" + Quote(original)
}

// InvalidAction explains a rejected action, echoing it.
func InvalidAction(reason, original string) string {
	return reason + "\n\n" + Quote(original)
}

// Rejection tells an unknown sender they are not in the game.
func Rejection(address string) string {
	return fmt.Sprintf("Unrecognized player: '%s'.", address)
}

// Welcome opens the game.
func Welcome(name string, players []rules.Player, deadline time.Time) string {
	return fmt.Sprintf("Welcome to **%s**. The players are %s.\n\n"+
		"Your role will arrive in a separate message. Night 0 actions are due by %s.",
		name, rules.JoinNames(players), phaseclock.Format(deadline))
}

// PhaseSummary announces the end of one phase and the deadline of the next.
func PhaseSummary(ended, next rules.Phase, deadline time.Time) string {
	return fmt.Sprintf("%s is over. %s actions are due by %s.", ended, next, phaseclock.Format(deadline))
}

// Congratulations closes the game.
func Congratulations(winners []rules.Player) string {
	if len(winners) == 0 {
		return "The game is over. Nobody won."
	}
	return fmt.Sprintf("The game is over. Congratulations to %s!", rules.JoinNames(winners))
}
