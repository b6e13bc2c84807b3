package combat

import (
	"slices"

	"github.com/louisbranch/skirmish/internal/combat/resource"
	"github.com/louisbranch/skirmish/internal/core/dice"
)

// Member is a party member's state carried between encounters.
type Member struct {
	Creature       *Creature
	HP             int
	Resources      *resource.Ledger
	Dead           bool
	DeathEncounter int
	DeathRound     int
	DamageTaken    int
}

// NewParty returns members at full HP and resources.
func NewParty(creatures []Creature) []*Member {
	party := make([]*Member, len(creatures))
	for i := range creatures {
		c := &creatures[i]
		party[i] = &Member{
			Creature:       c,
			HP:             c.HP,
			Resources:      c.NewLedger(),
			DeathEncounter: -1,
		}
	}
	return party
}

// Alive reports whether the member is still standing.
func (m *Member) Alive() bool { return !m.Dead && m.HP > 0 }

// Standing counts living members.
func Standing(party []*Member) int {
	n := 0
	for _, m := range party {
		if m.Alive() {
			n++
		}
	}
	return n
}

// BeginEncounter builds the turn context for enc from the party's carried
// state, rolls initiative and applies every creature's initial buffs.
func BeginEncounter(r *dice.Roller, party []*Member, enc *Encounter, capture Capture) *TurnContext {
	tc := NewTurnContext(r, capture)
	for _, m := range party {
		c := newCombatant(m.Creature, TeamParty, m.HP, m.Resources.Clone())
		c.Surprised = enc.PartySurprised
		tc.Add(c)
	}
	for i := range enc.Monsters {
		c := NewCombatant(&enc.Monsters[i], TeamMonsters)
		c.Surprised = enc.MonstersSurprised
		tc.Add(c)
	}
	tc.RollInitiative()

	for _, c := range tc.Combatants {
		if !c.Alive() {
			continue
		}
		for _, b := range c.Creature.InitialBuffs {
			tc.applyEffect(ActiveEffect{
				Name:      b.Name,
				SourceID:  c.ID,
				TargetID:  c.ID,
				Modifier:  b.Modifier,
				Remaining: b.Duration,
			})
		}
	}
	return tc
}

// EndEncounter writes HP and resources back to the party. Temp HP and
// encounter effects are dropped, and turn, round and encounter resources
// reset. Members at 0 HP are marked dead for the rest of the run.
func EndEncounter(tc *TurnContext, party []*Member, encounterIndex int) {
	for _, m := range party {
		c, ok := tc.byID[m.Creature.ID]
		if !ok {
			continue
		}
		m.HP = max(0, c.HP)
		m.DamageTaken += c.DamageTaken
		m.Resources = c.Resources
		for _, rule := range []resource.Reset{resource.ResetTurn, resource.ResetRound, resource.ResetEncounter} {
			m.Resources.ResetByType(rule)
		}
		if m.HP == 0 && !m.Dead {
			m.Dead = true
			m.DeathEncounter = encounterIndex
			m.DeathRound = c.DeathRound
		}
	}
}

// ShortRest refills short rest resources. Members below half HP spend hit
// dice, largest first, until healed to full or out of dice.
func ShortRest(r *dice.Roller, party []*Member) {
	for _, m := range party {
		if !m.Alive() {
			continue
		}
		m.Resources.ResetByType(resource.ResetShortRest)
		if m.HP*2 >= m.Creature.HP {
			continue
		}
		for _, size := range hitDieSizes(m.Creature) {
			for m.HP < m.Creature.HP && m.Resources.Consume(resource.HitDie(size), 1) == nil {
				m.HP = min(m.Creature.HP, m.HP+max(1, r.Die(size)+m.Creature.HitDieBonus))
			}
		}
	}
}

// LongRest refills every resource, restores HP, and returns half the
// member's total hit dice (at least one), largest first.
func LongRest(party []*Member) {
	rules := []resource.Reset{
		resource.ResetTurn, resource.ResetRound, resource.ResetShortRest,
		resource.ResetLongRest, resource.ResetEncounter,
	}
	for _, m := range party {
		if !m.Alive() {
			continue
		}
		for _, rule := range rules {
			m.Resources.ResetByType(rule)
		}
		m.HP = m.Creature.HP

		total := 0
		for _, hd := range m.Creature.HitDice {
			total += hd.Count
		}
		budget := max(1, total/2)
		for _, size := range hitDieSizes(m.Creature) {
			budget -= m.Resources.Restore(resource.HitDie(size), budget)
			if budget <= 0 {
				break
			}
		}
	}
}

func hitDieSizes(c *Creature) []int {
	sizes := make([]int, 0, len(c.HitDice))
	for _, hd := range c.HitDice {
		if !slices.Contains(sizes, hd.Size) {
			sizes = append(sizes, hd.Size)
		}
	}
	slices.Sort(sizes)
	slices.Reverse(sizes)
	return sizes
}
