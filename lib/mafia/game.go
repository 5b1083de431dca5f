// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package mafia

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/bureau-foundation/godfather/lib/codec"
	"github.com/bureau-foundation/godfather/rules"
)

// Format is the export format this engine registers under.
const Format = "mafia/v1"

func init() {
	rules.Register(Format, Import)
}

type order struct {
	Ability ability `cbor:"ability"`
	Target  string  `cbor:"target"`
}

// state is everything Export persists besides the log. Players are
// keyed by name throughout; names are unique within a game.
type state struct {
	Players []rules.Player `cbor:"players"`
	Pool    []string       `cbor:"pool"`
	Seed    uint64         `cbor:"seed"`

	Began   bool        `cbor:"began"`
	Current rules.Phase `cbor:"current"`

	Roles  map[string]string `cbor:"roles"`
	Dead   map[string]bool   `cbor:"dead"`
	Wills  map[string]string `cbor:"wills"`
	Orders map[string]order  `cbor:"orders"`
	// MafiaKill is the target of the most recent kill order tonight.
	MafiaKill string            `cbor:"mafia_kill,omitempty"`
	Votes     map[string]string `cbor:"votes"`

	Winner string `cbor:"winner,omitempty"`
}

// Game is a Mafia game. It implements [rules.Game].
type Game struct {
	state state
	log   *rules.Log
}

var _ rules.Game = (*Game)(nil)

// New validates a setup and returns a game that has not begun. pool
// holds one role name per player; Begin deals them with a shuffle
// seeded by seed.
func New(players []rules.Player, pool []string, seed uint64) (*Game, error) {
	if len(players) < 3 {
		return nil, fmt.Errorf("a game needs at least 3 players, got %d", len(players))
	}
	if len(pool) != len(players) {
		return nil, fmt.Errorf("%d roles for %d players", len(pool), len(players))
	}

	names := make(map[string]bool)
	addresses := make(map[string]bool)
	for _, player := range players {
		if strings.TrimSpace(player.Name) == "" {
			return nil, errors.New("player with empty name")
		}
		if strings.TrimSpace(player.Address) == "" {
			return nil, fmt.Errorf("player %s has no address", player.Name)
		}
		name := strings.ToLower(player.Name)
		if names[name] {
			return nil, fmt.Errorf("duplicate player name %q", player.Name)
		}
		names[name] = true
		address := rules.NormalizeAddress(player.Address)
		if addresses[address] {
			return nil, fmt.Errorf("duplicate player address %q", player.Address)
		}
		addresses[address] = true
	}

	canonical := make([]string, len(pool))
	factions := make(map[string]int)
	for i, name := range pool {
		role, ok := LookupRole(name)
		if !ok {
			return nil, fmt.Errorf("unknown role %q (known: %s)", name, strings.Join(Roles(), ", "))
		}
		canonical[i] = role.Name
		factions[role.Faction]++
	}
	if factions[Mafia] == 0 {
		return nil, errors.New("role pool has no Mafia roles")
	}
	if factions[Town] == 0 {
		return nil, errors.New("role pool has no Town roles")
	}

	return &Game{
		state: state{
			Players: slices.Clone(players),
			Pool:    canonical,
			Seed:    seed,
			Roles:   make(map[string]string),
			Dead:    make(map[string]bool),
			Wills:   make(map[string]string),
			Orders:  make(map[string]order),
			Votes:   make(map[string]string),
		},
		log: rules.NewLog(),
	}, nil
}

func (g *Game) Format() string          { return Format }
func (g *Game) Players() []rules.Player { return slices.Clone(g.state.Players) }
func (g *Game) Log() *rules.Log         { return g.log }
func (g *Game) IsOver() bool            { return g.state.Winner != "" }

// Phase returns the phase the engine expects next.
func (g *Game) Phase() rules.Phase { return g.state.Current }

// RoleOf returns the role dealt to the named player.
func (g *Game) RoleOf(name string) (Role, bool) {
	roleName, ok := g.state.Roles[name]
	if !ok {
		return Role{}, false
	}
	return LookupRole(roleName)
}

// Alive reports whether the named player is alive.
func (g *Game) Alive(name string) bool {
	return !g.state.Dead[name]
}

// Winners returns every member of the winning faction, dead or alive.
func (g *Game) Winners() []rules.Player {
	if g.state.Winner == "" {
		return nil
	}
	var winners []rules.Player
	for _, player := range g.state.Players {
		if role, _ := g.RoleOf(player.Name); role.Faction == g.state.Winner {
			winners = append(winners, player)
		}
	}
	return winners
}

// Begin deals roles and announces them.
func (g *Game) Begin() error {
	if g.state.Began {
		return errors.New("game has already begun")
	}

	dealt := slices.Clone(g.state.Pool)
	random := rand.New(rand.NewPCG(g.state.Seed, g.state.Seed^0x9e3779b97f4a7c15))
	random.Shuffle(len(dealt), func(i, j int) { dealt[i], dealt[j] = dealt[j], dealt[i] })
	for i, player := range g.state.Players {
		g.state.Roles[player.Name] = dealt[i]
	}
	g.state.Began = true
	g.state.Current = rules.Phase{Kind: rules.Night}

	var mafia []rules.Player
	for _, player := range g.state.Players {
		role, _ := g.RoleOf(player.Name)
		g.log.Append(rules.RoleAnnouncement{
			Phase:       g.state.Current,
			Player:      player,
			Role:        role.Name,
			Faction:     role.Faction,
			Description: role.Description + "\n\n" + objective(role.Faction) + "\n\nCommands:\n\n" + commands(role),
		})
		if role.Faction == Mafia {
			mafia = append(mafia, player)
		}
	}
	if len(mafia) > 1 {
		g.log.Append(rules.FactionAnnouncement{
			Phase:   g.state.Current,
			Faction: Mafia,
			Members: mafia,
		})
	}
	return nil
}

// Act applies one command from player. See the package documentation
// for the command grammar.
func (g *Game) Act(phase rules.Phase, player rules.Player, text string) error {
	if err := g.expect(phase); err != nil {
		return err
	}
	actor, ok := rules.PlayerNamed(g.state.Players, player.Name)
	if !ok {
		return fmt.Errorf("%q is not in this game", player.Name)
	}

	verb, argument := parseCommand(text, actor.Name)
	if verb == "help" {
		return rules.ErrHelpRequested
	}
	if g.IsOver() {
		return rules.Invalid("The game is over.")
	}
	if g.state.Dead[actor.Name] {
		return rules.Invalid("You are dead.")
	}

	switch verb {
	case "will":
		if argument == "" {
			delete(g.state.Wills, actor.Name)
		} else {
			g.state.Wills[actor.Name] = argument
		}
		return nil
	case string(abilityKill), string(abilityProtect), string(abilityInvestigate):
		return g.nightOrder(actor, ability(verb), argument)
	case "vote":
		return g.vote(actor, argument)
	case "unvote":
		return g.unvote(actor)
	default:
		return rules.Invalid("Invalid action.")
	}
}

func (g *Game) nightOrder(actor rules.Player, action ability, argument string) error {
	if g.state.Current.Kind != rules.Night {
		return rules.Invalid("You can only %s at night.", action)
	}
	role, _ := g.RoleOf(actor.Name)
	if !role.can(action) {
		return rules.Invalid("You can't %s.", action)
	}
	target, err := g.target(argument)
	if err != nil {
		return err
	}
	if action == abilityKill {
		if targetRole, _ := g.RoleOf(target.Name); targetRole.Faction == Mafia {
			return rules.Invalid("You can't kill a member of the Mafia.")
		}
		g.state.MafiaKill = target.Name
		return nil
	}
	g.state.Orders[actor.Name] = order{Ability: action, Target: target.Name}
	return nil
}

func (g *Game) vote(actor rules.Player, argument string) error {
	if g.state.Current.Kind != rules.Day {
		return rules.Invalid("You can only vote during the day.")
	}
	target, err := g.target(argument)
	if err != nil {
		return err
	}
	g.state.Votes[actor.Name] = target.Name
	g.log.Append(g.tally())
	return nil
}

func (g *Game) unvote(actor rules.Player) error {
	if g.state.Current.Kind != rules.Day {
		return rules.Invalid("You can only unvote during the day.")
	}
	if _, voted := g.state.Votes[actor.Name]; !voted {
		return rules.Invalid("You have not voted.")
	}
	delete(g.state.Votes, actor.Name)
	g.log.Append(g.tally())
	return nil
}

func (g *Game) target(argument string) (rules.Player, error) {
	name := strings.TrimRight(argument, ".!?")
	if name == "" {
		return rules.Player{}, rules.Invalid("Missing target.")
	}
	target, ok := rules.PlayerNamed(g.state.Players, name)
	if !ok {
		return rules.Player{}, rules.Invalid("'%s' is not a player.", name)
	}
	if g.state.Dead[target.Name] {
		return rules.Player{}, rules.Invalid("%s is already dead.", target.Name)
	}
	return target, nil
}

// tally lists current votes, most-voted target first, ties in roster
// order.
func (g *Game) tally() rules.VoteTally {
	var counts []rules.VoteCount
	for _, target := range g.state.Players {
		var voters []rules.Player
		for _, voter := range g.state.Players {
			if g.state.Votes[voter.Name] == target.Name {
				voters = append(voters, voter)
			}
		}
		if len(voters) > 0 {
			counts = append(counts, rules.VoteCount{Target: target, Voters: voters})
		}
	}
	slices.SortStableFunc(counts, func(a, b rules.VoteCount) int {
		return len(b.Voters) - len(a.Voters)
	})
	return rules.VoteTally{Phase: g.state.Current, Counts: counts}
}

// Resolve ends phase and advances the engine to the next one.
func (g *Game) Resolve(phase rules.Phase) error {
	if err := g.expect(phase); err != nil {
		return err
	}
	if g.IsOver() {
		return fmt.Errorf("resolving %v after the game ended", phase)
	}

	if phase.Kind == rules.Night {
		g.resolveNight(phase)
	} else {
		g.resolveDay(phase)
	}
	g.state.Current = phase.Next()
	g.checkVictory(phase)
	return nil
}

func (g *Game) resolveNight(phase rules.Phase) {
	protected := make(map[string]bool)
	for _, player := range g.state.Players {
		issued, ok := g.state.Orders[player.Name]
		if !ok || g.state.Dead[player.Name] {
			continue
		}
		switch issued.Ability {
		case abilityProtect:
			protected[issued.Target] = true
		case abilityInvestigate:
			target, _ := rules.PlayerNamed(g.state.Players, issued.Target)
			role, _ := g.RoleOf(target.Name)
			g.log.Append(rules.InvestigationResult{
				Phase:        phase,
				Investigator: player,
				Target:       target,
				Faction:      role.apparentFaction(),
			})
		}
	}

	if victim := g.state.MafiaKill; victim != "" && !protected[victim] && !g.state.Dead[victim] {
		g.kill(victim)
		player, _ := rules.PlayerNamed(g.state.Players, victim)
		role, _ := g.RoleOf(victim)
		g.log.Append(rules.Died{
			Phase:  phase,
			Player: player,
			Role:   role.Name,
			Will:   g.state.Wills[victim],
		})
	}

	clear(g.state.Orders)
	g.state.MafiaKill = ""
}

func (g *Game) resolveDay(phase rules.Phase) {
	tally := g.tally()
	clear(g.state.Votes)

	if len(tally.Counts) == 0 || (len(tally.Counts) > 1 && len(tally.Counts[0].Voters) == len(tally.Counts[1].Voters)) {
		g.log.Append(rules.NoLynch{Phase: phase})
		return
	}

	lynched := tally.Counts[0]
	g.kill(lynched.Target.Name)
	role, _ := g.RoleOf(lynched.Target.Name)
	g.log.Append(rules.Lynched{
		Phase:  phase,
		Player: lynched.Target,
		Role:   role.Name,
		Will:   g.state.Wills[lynched.Target.Name],
		Voters: lynched.Voters,
	})
}

func (g *Game) kill(name string) {
	g.state.Dead[name] = true
	delete(g.state.Votes, name)
	for voter, target := range g.state.Votes {
		if target == name {
			delete(g.state.Votes, voter)
		}
	}
}

func (g *Game) checkVictory(phase rules.Phase) {
	alive := make(map[string]int)
	others := 0
	for _, player := range g.state.Players {
		if g.state.Dead[player.Name] {
			continue
		}
		role, _ := g.RoleOf(player.Name)
		alive[role.Faction]++
		if role.Faction != Mafia {
			others++
		}
	}

	switch {
	case alive[Mafia] == 0:
		g.state.Winner = Town
	case alive[Mafia] > others:
		g.state.Winner = Mafia
	default:
		return
	}
	g.log.Append(rules.Victory{
		Phase:   phase,
		Faction: g.state.Winner,
		Winners: g.Winners(),
	})
}

func (g *Game) expect(phase rules.Phase) error {
	if !g.state.Began {
		return errors.New("game has not begun")
	}
	if phase != g.state.Current {
		return fmt.Errorf("action for %v but the game is in %v", phase, g.state.Current)
	}
	return nil
}

// parseCommand reads the command on the first non-blank line of text.
// A leading "<actor>:" is ignored, so "Alice: kill Bob" works. The verb
// is lowercased; argument keeps its case and runs to the end of the
// line. "set will:" is accepted as "will", and a will may continue on
// the lines that follow.
func parseCommand(text, actor string) (verb, argument string) {
	lines := slices.Collect(strings.Lines(text))
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if prefix, rest, found := strings.Cut(line, ":"); found && strings.EqualFold(strings.TrimSpace(prefix), actor) {
			line = strings.TrimSpace(rest)
		}
		verb, argument, _ = strings.Cut(line, " ")
		verb = strings.ToLower(strings.TrimRight(verb, ":"))
		argument = strings.TrimSpace(argument)

		if verb == "set" {
			next, remainder, _ := strings.Cut(argument, " ")
			if strings.EqualFold(strings.TrimRight(next, ":"), "will") {
				verb, argument = "will", strings.TrimSpace(remainder)
			}
		}
		if verb == "will" {
			following := strings.TrimSpace(strings.Join(lines[i+1:], ""))
			argument = strings.TrimSpace(argument + "\n\n" + following)
		}
		return verb, argument
	}
	return "", ""
}

type export struct {
	State state      `cbor:"state"`
	Log   *rules.Log `cbor:"log"`
}

// Export encodes the game as CBOR in the Format layout.
func (g *Game) Export() ([]byte, error) {
	return codec.Marshal(export{State: g.state, Log: g.log})
}

// Import decodes a game produced by Export.
func Import(data []byte) (rules.Game, error) {
	decoded := export{Log: rules.NewLog()}
	if err := codec.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("decoding %s export: %w", Format, err)
	}
	if len(decoded.State.Players) == 0 {
		return nil, fmt.Errorf("%s export has no players", Format)
	}
	restored := decoded.State
	for _, table := range []*map[string]string{&restored.Roles, &restored.Wills, &restored.Votes} {
		if *table == nil {
			*table = make(map[string]string)
		}
	}
	if restored.Dead == nil {
		restored.Dead = make(map[string]bool)
	}
	if restored.Orders == nil {
		restored.Orders = make(map[string]order)
	}
	return &Game{state: restored, log: decoded.Log}, nil
}
