// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package mafia

import (
	"slices"
	"strings"
)

// Faction names.
const (
	Town  = "Town"
	Mafia = "Mafia"
)

// ability is a night action a role may take.
type ability string

const (
	abilityKill        ability = "kill"
	abilityProtect     ability = "protect"
	abilityInvestigate ability = "investigate"
)

// Role describes one card in the role pool.
type Role struct {
	Name        string
	Faction     string
	Description string
	// Appears is the faction investigations report. Empty means the
	// real faction.
	Appears string

	abilities []ability
}

func (r Role) apparentFaction() string {
	if r.Appears != "" {
		return r.Appears
	}
	return r.Faction
}

func (r Role) can(a ability) bool {
	return slices.Contains(r.abilities, a)
}

var roles = []Role{
	{
		Name:        "Villager",
		Faction:     Town,
		Description: "You have no special abilities. Find the Mafia and vote them out.",
	},
	{
		Name:        "Cop",
		Faction:     Town,
		Description: "Each night you may investigate one player to learn which faction they belong to.",
		abilities:   []ability{abilityInvestigate},
	},
	{
		Name:        "Doctor",
		Faction:     Town,
		Description: "Each night you may protect one player from being killed.",
		abilities:   []ability{abilityProtect},
	},
	{
		Name:        "Goon",
		Faction:     Mafia,
		Description: "Each night the Mafia may kill one player.",
		abilities:   []ability{abilityKill},
	},
	{
		Name:        "Godfather",
		Faction:     Mafia,
		Description: "Each night the Mafia may kill one player. Investigations show you as Town.",
		Appears:     Town,
		abilities:   []ability{abilityKill},
	},
}

// Roles returns the names of every role, in a stable order.
func Roles() []string {
	names := make([]string, len(roles))
	for i, role := range roles {
		names[i] = role.Name
	}
	return names
}

// LookupRole finds a role by name, case-insensitively.
func LookupRole(name string) (Role, bool) {
	for _, role := range roles {
		if strings.EqualFold(role.Name, strings.TrimSpace(name)) {
			return role, true
		}
	}
	return Role{}, false
}

func objective(faction string) string {
	if faction == Mafia {
		return "You win when the Mafia outnumbers everyone else."
	}
	return "You win when every member of the Mafia is dead."
}

// commands lists the commands available to role, one per line.
func commands(role Role) string {
	var lines []string
	if role.can(abilityKill) {
		lines = append(lines, "kill <player> (at night)")
	}
	if role.can(abilityProtect) {
		lines = append(lines, "protect <player> (at night)")
	}
	if role.can(abilityInvestigate) {
		lines = append(lines, "investigate <player> (at night)")
	}
	lines = append(lines,
		"vote <player> (during the day)",
		"unvote (during the day)",
		"will <text>",
		"help",
	)
	return "- " + strings.Join(lines, "\n- ")
}
