// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rules

import (
	"fmt"
	"strconv"
	"strings"
)

// PhaseKind distinguishes nights from days.
type PhaseKind uint8

const (
	Night PhaseKind = iota
	Day
)

func (k PhaseKind) String() string {
	switch k {
	case Night:
		return "Night"
	case Day:
		return "Day"
	default:
		return fmt.Sprintf("PhaseKind(%d)", k)
	}
}

// Phase is one game turn. A game opens on Night 0 and alternates:
// Night 0, Day 1, Night 1, Day 2, and so on.
type Phase struct {
	Kind   PhaseKind
	Number int
}

// Next returns the phase that follows p.
func (p Phase) Next() Phase {
	if p.Kind == Night {
		return Phase{Kind: Day, Number: p.Number + 1}
	}
	return Phase{Kind: Night, Number: p.Number}
}

// ordinal positions p in the sequence Night 0, Day 1, Night 1, ...
func (p Phase) ordinal() int {
	if p.Kind == Night {
		return 2 * p.Number
	}
	return 2*p.Number - 1
}

// Before reports whether p comes strictly before other.
func (p Phase) Before(other Phase) bool {
	return p.ordinal() < other.ordinal()
}

// String returns the display form, "Night 0" or "Day 1".
func (p Phase) String() string {
	return p.Kind.String() + " " + strconv.Itoa(p.Number)
}

// Slug returns a lowercase, filename-safe form, "night-0" or "day-1".
func (p Phase) Slug() string {
	return strings.ToLower(p.Kind.String()) + "-" + strconv.Itoa(p.Number)
}

// MarshalText implements encoding.TextMarshaler using the slug form.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.Slug()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Phase) UnmarshalText(text []byte) error {
	parsed, err := ParsePhase(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParsePhase accepts either the display form ("Day 1") or the slug
// form ("day-1"), case-insensitively.
func ParsePhase(text string) (Phase, error) {
	normalized := strings.ToLower(strings.TrimSpace(text))
	kindText, numberText, found := strings.Cut(normalized, "-")
	if !found {
		kindText, numberText, found = strings.Cut(normalized, " ")
	}
	if !found {
		return Phase{}, fmt.Errorf("invalid phase %q: expected \"night-N\" or \"day-N\"", text)
	}

	var kind PhaseKind
	switch kindText {
	case "night":
		kind = Night
	case "day":
		kind = Day
	default:
		return Phase{}, fmt.Errorf("invalid phase %q: unknown kind %q", text, kindText)
	}

	number, err := strconv.Atoi(strings.TrimSpace(numberText))
	if err != nil || number < 0 {
		return Phase{}, fmt.Errorf("invalid phase %q: bad number %q", text, numberText)
	}
	if kind == Day && number == 0 {
		return Phase{}, fmt.Errorf("invalid phase %q: days start at 1", text)
	}
	return Phase{Kind: kind, Number: number}, nil
}
