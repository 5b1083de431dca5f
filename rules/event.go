// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rules

// EventKind names a concrete event type. The string values appear in
// persisted logs and must not change.
type EventKind string

const (
	KindRoleAnnouncement    EventKind = "role_announcement"
	KindFactionAnnouncement EventKind = "faction_announcement"
	KindDied                EventKind = "died"
	KindLynched             EventKind = "lynched"
	KindVoteTally           EventKind = "vote_tally"
	KindInvestigationResult EventKind = "investigation_result"
	KindNoLynch             EventKind = "no_lynch"
	KindVictory             EventKind = "victory"
)

// EventKinds lists every kind, in declaration order.
var EventKinds = []EventKind{
	KindRoleAnnouncement,
	KindFactionAnnouncement,
	KindDied,
	KindLynched,
	KindVoteTally,
	KindInvestigationResult,
	KindNoLynch,
	KindVictory,
}

// Audience is who an event is addressed to. Public events go to every
// player; otherwise only the listed players receive it. An empty
// audience means the event is recorded but never sent.
type Audience struct {
	Public  bool
	Players []Player
}

// Everyone addresses all players.
func Everyone() Audience { return Audience{Public: true} }

// To addresses the given players.
func To(players ...Player) Audience { return Audience{Players: players} }

// Empty reports whether nobody receives the event.
func (a Audience) Empty() bool {
	return !a.Public && len(a.Players) == 0
}

// Includes reports whether player receives events with this audience.
func (a Audience) Includes(player Player) bool {
	if a.Public {
		return true
	}
	want := NormalizeAddress(player.Address)
	for _, member := range a.Players {
		if NormalizeAddress(member.Address) == want {
			return true
		}
	}
	return false
}

// Event is an entry in a game's log. The set of implementations is
// closed; see [EventKinds].
type Event interface {
	Kind() EventKind
	// When is the phase during which the event happened.
	When() Phase
	Audience() Audience

	event()
}

// RoleAnnouncement privately tells a player their role at game start.
type RoleAnnouncement struct {
	Phase       Phase  `cbor:"phase"`
	Player      Player `cbor:"player"`
	Role        string `cbor:"role"`
	Faction     string `cbor:"faction"`
	Description string `cbor:"description"`
}

func (e RoleAnnouncement) Kind() EventKind    { return KindRoleAnnouncement }
func (e RoleAnnouncement) When() Phase        { return e.Phase }
func (e RoleAnnouncement) Audience() Audience { return To(e.Player) }
func (RoleAnnouncement) event()               {}

// FactionAnnouncement tells the members of an informed faction who
// their partners are.
type FactionAnnouncement struct {
	Phase   Phase    `cbor:"phase"`
	Faction string   `cbor:"faction"`
	Members []Player `cbor:"members"`
}

func (e FactionAnnouncement) Kind() EventKind    { return KindFactionAnnouncement }
func (e FactionAnnouncement) When() Phase        { return e.Phase }
func (e FactionAnnouncement) Audience() Audience { return To(e.Members...) }
func (FactionAnnouncement) event()               {}

// Died announces a night kill.
type Died struct {
	Phase  Phase  `cbor:"phase"`
	Player Player `cbor:"player"`
	Role   string `cbor:"role"`
	Will   string `cbor:"will,omitempty"`
}

func (e Died) Kind() EventKind    { return KindDied }
func (e Died) When() Phase        { return e.Phase }
func (e Died) Audience() Audience { return Everyone() }
func (Died) event()               {}

// Lynched announces the day's execution.
type Lynched struct {
	Phase  Phase    `cbor:"phase"`
	Player Player   `cbor:"player"`
	Role   string   `cbor:"role"`
	Will   string   `cbor:"will,omitempty"`
	Voters []Player `cbor:"voters"`
}

func (e Lynched) Kind() EventKind    { return KindLynched }
func (e Lynched) When() Phase        { return e.Phase }
func (e Lynched) Audience() Audience { return Everyone() }
func (Lynched) event()               {}

// VoteCount is the set of players currently voting for one target.
type VoteCount struct {
	Target Player   `cbor:"target"`
	Voters []Player `cbor:"voters"`
}

// VoteTally is broadcast whenever the day's votes change.
type VoteTally struct {
	Phase  Phase       `cbor:"phase"`
	Counts []VoteCount `cbor:"counts"`
}

func (e VoteTally) Kind() EventKind    { return KindVoteTally }
func (e VoteTally) When() Phase        { return e.Phase }
func (e VoteTally) Audience() Audience { return Everyone() }
func (VoteTally) event()               {}

// InvestigationResult privately tells an investigator what they learned.
type InvestigationResult struct {
	Phase        Phase  `cbor:"phase"`
	Investigator Player `cbor:"investigator"`
	Target       Player `cbor:"target"`
	Faction      string `cbor:"faction"`
}

func (e InvestigationResult) Kind() EventKind    { return KindInvestigationResult }
func (e InvestigationResult) When() Phase        { return e.Phase }
func (e InvestigationResult) Audience() Audience { return To(e.Investigator) }
func (InvestigationResult) event()               {}

// NoLynch announces that a day ended without an execution.
type NoLynch struct {
	Phase Phase `cbor:"phase"`
}

func (e NoLynch) Kind() EventKind    { return KindNoLynch }
func (e NoLynch) When() Phase        { return e.Phase }
func (e NoLynch) Audience() Audience { return Everyone() }
func (NoLynch) event()               {}

// Victory records the end of the game. It has no audience: the
// moderator announces winners itself once it observes IsOver.
type Victory struct {
	Phase   Phase    `cbor:"phase"`
	Faction string   `cbor:"faction"`
	Winners []Player `cbor:"winners"`
}

func (e Victory) Kind() EventKind    { return KindVictory }
func (e Victory) When() Phase        { return e.Phase }
func (e Victory) Audience() Audience { return Audience{} }
func (Victory) event()               {}
