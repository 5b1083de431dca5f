// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rules

import (
	"net/mail"
	"strings"
)

// Player is a participant, identified by display name and mail address.
type Player struct {
	Name    string `json:"name" yaml:"name"`
	Address string `json:"address" yaml:"address"`
}

func (p Player) String() string {
	return p.Name
}

// NormalizeAddress reduces a raw From header ("Alice <Alice@Example.org>")
// to a bare lowercase address. Unparseable input is trimmed and
// lowercased as-is.
func NormalizeAddress(raw string) string {
	if parsed, err := mail.ParseAddress(raw); err == nil {
		return strings.ToLower(parsed.Address)
	}
	return strings.ToLower(strings.TrimSpace(raw))
}

// ParseAddress returns the bare lowercase address of a From header, or
// an error when raw is not a mail address at all.
func ParseAddress(raw string) (string, error) {
	parsed, err := mail.ParseAddress(raw)
	if err != nil {
		return "", err
	}
	return strings.ToLower(parsed.Address), nil
}

// FindPlayer returns the player whose address matches raw after
// normalization.
func FindPlayer(players []Player, raw string) (Player, bool) {
	address := NormalizeAddress(raw)
	if address == "" {
		return Player{}, false
	}
	for _, player := range players {
		if NormalizeAddress(player.Address) == address {
			return player, true
		}
	}
	return Player{}, false
}

// PlayerNamed returns the player whose name matches name
// case-insensitively.
func PlayerNamed(players []Player, name string) (Player, bool) {
	name = strings.TrimSpace(name)
	for _, player := range players {
		if strings.EqualFold(player.Name, name) {
			return player, true
		}
	}
	return Player{}, false
}

// JoinNames lists player names in English: "A", "A and B",
// "A, B and C".
func JoinNames(players []Player) string {
	switch len(players) {
	case 0:
		return ""
	case 1:
		return players[0].Name
	}
	names := make([]string, len(players))
	for i, player := range players {
		names[i] = player.Name
	}
	return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
}
