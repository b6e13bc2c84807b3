package combat

import (
	"slices"
	"strconv"

	"github.com/louisbranch/skirmish/internal/combat/resource"
	"github.com/louisbranch/skirmish/internal/core/dice"
)

// Concentration is a caster's single sustained effect slot.
type Concentration struct {
	Action    string
	EffectIDs []int
}

// Combatant is one creature bound to a team for a single encounter.
type Combatant struct {
	ID         string
	Creature   *Creature
	Team       Team
	Index      int
	Initiative float64
	HP         int
	MaxHP      int
	TempHP     int
	Resources  *resource.Ledger
	// Buffs maps a buff identity to the effect carrying it.
	Buffs         map[string]int
	Concentration *Concentration
	Used          map[string]int
	Surprised     bool

	// DamageTaken and DamageDealt accumulate over the encounter at every
	// capture level.
	DamageTaken int
	DamageDealt int
	HealingDone int
	DeathRound  int

	actions    []Action
	acBonus    int
	conditions map[Condition]int
	dpr        float64
}

// Name returns the creature name.
func (c *Combatant) Name() string { return c.Creature.Name }

// Alive reports whether the combatant is above 0 HP.
func (c *Combatant) Alive() bool { return c.HP > 0 }

// AC is the creature's armor class plus active effect bonuses.
func (c *Combatant) AC() int { return c.Creature.AC + c.acBonus }

// Concentrating reports whether the combatant sustains an effect.
func (c *Combatant) Concentrating() bool { return c.Concentration != nil }

// Has reports whether the combatant currently carries condition.
func (c *Combatant) Has(condition Condition) bool { return c.conditions[condition] > 0 }

// Incapacitated reports whether a condition skips the combatant's turn.
func (c *Combatant) Incapacitated() bool { return c.Has(Stunned) || c.Has(Paralyzed) }

// Actions returns the combatant's actions with templates expanded.
func (c *Combatant) Actions() []Action { return c.actions }

// EstimatedDPR is cached from the creature template.
func (c *Combatant) EstimatedDPR() float64 { return c.dpr }

// HPPercent is current HP as a share of max HP in 0..100.
func (c *Combatant) HPPercent() float64 {
	if c.MaxHP <= 0 {
		return 0
	}
	return 100 * float64(max(0, c.HP)) / float64(c.MaxHP)
}

// Wounded reports HP at or below half.
func (c *Combatant) Wounded() bool {
	return c.Alive() && c.HP*2 <= c.MaxHP
}

// NewCombatant binds a creature to a team with full HP and a fresh ledger.
func NewCombatant(creature *Creature, team Team) *Combatant {
	return newCombatant(creature, team, creature.HP, creature.NewLedger())
}

func newCombatant(creature *Creature, team Team, hp int, ledger *resource.Ledger) *Combatant {
	actions := make([]Action, 0, len(creature.Actions))
	for _, a := range creature.Actions {
		if expanded, ok := Expand(a); ok {
			actions = append(actions, expanded)
		}
	}
	return &Combatant{
		ID:         creature.ID,
		Creature:   creature,
		Team:       team,
		HP:         hp,
		MaxHP:      creature.HP,
		Resources:  ledger,
		Buffs:      make(map[string]int),
		Used:       make(map[string]int),
		actions:    actions,
		conditions: make(map[Condition]int),
		dpr:        creature.EstimatedDPR(),
	}
}

// TurnContext is the mutable state of one encounter. It is the only owner
// allowed to change HP, resources and effects, and it is never shared
// between goroutines.
type TurnContext struct {
	Roller     *dice.Roller
	Combatants []*Combatant
	Round      int
	Turn       int
	Capture    Capture

	effects      []*ActiveEffect
	nextEffectID int
	byID         map[string]*Combatant

	pending   []Event
	history   []Event
	summaries []RoundSummary
	round     []roundStat
	deaths    []string

	queued []queuedReaction
}

// NewTurnContext binds combatants to a roller. Duplicate IDs get a "#n"
// suffix so every combatant is addressable.
func NewTurnContext(r *dice.Roller, capture Capture, combatants ...*Combatant) *TurnContext {
	tc := &TurnContext{
		Roller:     r,
		Capture:    capture,
		byID:       make(map[string]*Combatant, len(combatants)),
		Combatants: make([]*Combatant, 0, len(combatants)),
	}
	for _, c := range combatants {
		tc.Add(c)
	}
	return tc
}

// Add registers a combatant before the encounter starts.
func (tc *TurnContext) Add(c *Combatant) {
	if _, dup := tc.byID[c.ID]; dup {
		base := c.ID
		for n := 2; ; n++ {
			id := base + "#" + strconv.Itoa(n)
			if _, taken := tc.byID[id]; !taken {
				c.ID = id
				break
			}
		}
	}
	c.Index = len(tc.Combatants)
	tc.Combatants = append(tc.Combatants, c)
	tc.byID[c.ID] = c
}

// Combatant looks up a combatant by ID.
func (tc *TurnContext) Combatant(id string) (*Combatant, bool) {
	c, ok := tc.byID[id]
	return c, ok
}

// RollInitiative rolls d20 plus bonus for every combatant and sorts them into
// turn order. Initiative draws from the seeded stream, never from forced
// d20 faces. Ties go to the higher bonus, then the party, then insertion
// order.
func (tc *TurnContext) RollInitiative() {
	for _, c := range tc.Combatants {
		c.Initiative = float64(tc.Roller.Die(20)) + c.Creature.InitiativeBonus
	}
	slices.SortStableFunc(tc.Combatants, func(a, b *Combatant) int {
		switch {
		case a.Initiative != b.Initiative:
			return cmpDesc(a.Initiative, b.Initiative)
		case a.Creature.InitiativeBonus != b.Creature.InitiativeBonus:
			return cmpDesc(a.Creature.InitiativeBonus, b.Creature.InitiativeBonus)
		case a.Team != b.Team:
			return int(a.Team) - int(b.Team)
		}
		return a.Index - b.Index
	})
	for i, c := range tc.Combatants {
		c.Index = i
	}
	tc.round = make([]roundStat, len(tc.Combatants))
}

func cmpDesc(a, b float64) int {
	switch {
	case a > b:
		return -1
	case a < b:
		return 1
	}
	return 0
}

// Team returns the combatants on team in turn order.
func (tc *TurnContext) Team(team Team) []*Combatant {
	out := make([]*Combatant, 0, len(tc.Combatants))
	for _, c := range tc.Combatants {
		if c.Team == team {
			out = append(out, c)
		}
	}
	return out
}

// Living counts combatants on team above 0 HP.
func (tc *TurnContext) Living(team Team) int {
	n := 0
	for _, c := range tc.Combatants {
		if c.Team == team && c.Alive() {
			n++
		}
	}
	return n
}

// Complete reports whether either team has no living members.
func (tc *TurnContext) Complete() bool {
	return tc.Living(TeamParty) == 0 || tc.Living(TeamMonsters) == 0
}

// Outcome reports the result of the encounter as it stands.
func (tc *TurnContext) Outcome() Outcome {
	party, monsters := tc.Living(TeamParty), tc.Living(TeamMonsters)
	switch {
	case party > 0 && monsters == 0:
		return Team0Wins
	case monsters > 0 && party == 0:
		return Team1Wins
	}
	return Draw
}

// toHitBonus rolls every to-hit modifier on c in effect ID order.
func (tc *TurnContext) toHitBonus(c *Combatant) int {
	total := 0
	for _, e := range tc.effects {
		if e.TargetID == c.ID && !e.Modifier.ToHit.IsZero() {
			total += e.Modifier.ToHit.Roll(tc.Roller, false)
		}
	}
	return total
}

// damageBonus rolls every damage modifier on attacker plus vulnerability
// effects the attacker placed on target, in effect ID order.
func (tc *TurnContext) damageBonus(attacker, target *Combatant, crit bool) int {
	total := 0
	for _, e := range tc.effects {
		if e.TargetID == attacker.ID && !e.Modifier.Damage.IsZero() {
			total += e.Modifier.Damage.Roll(tc.Roller, crit)
		}
		if e.TargetID == target.ID && e.SourceID == attacker.ID && !e.Modifier.Vulnerable.IsZero() {
			total += e.Modifier.Vulnerable.Roll(tc.Roller, crit)
		}
	}
	return total
}

func (tc *TurnContext) saveBonus(c *Combatant) int {
	total := 0
	for _, e := range tc.effects {
		if e.TargetID == c.ID && !e.Modifier.Save.IsZero() {
			total += e.Modifier.Save.Roll(tc.Roller, false)
		}
	}
	return total
}

// attackMode folds attacker and target conditions into one d20 mode.
func (tc *TurnContext) attackMode(attacker, target *Combatant) dice.Mode {
	var modes []dice.Mode
	if attacker.Has(Poisoned) {
		modes = append(modes, dice.Disadvantage)
	}
	if target.Incapacitated() {
		modes = append(modes, dice.Advantage)
	}
	return dice.CombineModes(modes...)
}

// savingThrow rolls c's save against dc and reports success.
func (tc *TurnContext) savingThrow(c *Combatant, ability Ability, dc int, source string) bool {
	roll := tc.Roller.RollD20(dice.Normal)
	total := roll.Natural + c.Creature.Saves[ability] + tc.saveBonus(c)
	ok := total >= dc
	tc.emit(Event{
		Kind:    EventSave,
		Actor:   c.ID,
		Target:  source,
		Amount:  total,
		Success: ok,
		Detail:  ability.String() + " DC " + strconv.Itoa(dc),
		Roll:    &RollDetail{Natural: roll.Natural, Rolls: roll.Rolls, Total: total, AC: dc, Mode: roll.Mode},
	})
	return ok
}
