package combat

import (
	"testing"

	"github.com/louisbranch/skirmish/internal/combat/resource"
	"github.com/louisbranch/skirmish/internal/core/dice"
)

func fighter(id string) Creature {
	return Creature{
		ID:              id,
		Name:            "Fighter " + id,
		HP:              30,
		AC:              16,
		InitiativeBonus: 1,
		Saves:           [6]int{Str: 5, Con: 4},
		Actions: []Action{
			{Name: "Longsword", Effect: Attack{ToHit: 5, Damage: dice.MustParse("1d8+3")}},
			{Name: "Second Wind", Effect: Template{Name: "second_wind"}},
		},
		HitDice:     []HitDice{{Size: 10, Count: 3}},
		HitDieBonus: 2,
	}
}

func cleric(id string) Creature {
	return Creature{
		ID:    id,
		Name:  "Cleric " + id,
		HP:    24,
		AC:    16,
		Saves: [6]int{Wis: 5, Cha: 3},
		Actions: []Action{
			{Name: "Bless", Effect: Template{Name: "bless"}},
			{Name: "Mace", Effect: Attack{ToHit: 4, Damage: dice.MustParse("1d6+2")}},
			{Name: "Healing Word", Effect: Template{Name: "healing_word"}},
		},
		SpellSlots: []SpellSlot{{Level: 1, Count: 3}, {Level: 2, Count: 2}},
		HitDice:    []HitDice{{Size: 8, Count: 3}},
	}
}

func goblin(id string) Creature {
	return Creature{
		ID:              id,
		Name:            "Goblin",
		HP:              7,
		AC:              15,
		InitiativeBonus: 2,
		Actions: []Action{
			{Name: "Scimitar", Effect: Attack{ToHit: 4, Damage: dice.MustParse("1d6+2")}},
		},
	}
}

func ogre(id string) Creature {
	return Creature{
		ID:   id,
		Name: "Ogre",
		HP:   59,
		AC:   11,
		Actions: []Action{
			{Name: "Greatclub", Effect: Attack{ToHit: 6, Damage: dice.MustParse("2d8+4")}},
		},
	}
}

// dummy is a creature with a single fixed-damage attack.
func dummy(id string, hp, ac, toHit, damage int) Creature {
	c := Creature{ID: id, Name: id, HP: hp, AC: ac}
	if damage > 0 {
		c.Actions = []Action{{Name: "Strike", Effect: Attack{ToHit: toHit, Damage: dice.Fixed(damage)}}}
	}
	return c
}

// duel returns a context with a on the party and b on the monsters.
func duel(t *testing.T, a, b Creature) (*TurnContext, *Combatant, *Combatant) {
	t.Helper()
	ca := NewCombatant(&a, TeamParty)
	cb := NewCombatant(&b, TeamMonsters)
	tc := NewTurnContext(dice.NewRoller(1), CaptureFull, ca, cb)
	return tc, ca, cb
}

func newTurn(c *Combatant) {
	c.Resources.ResetByType(resource.ResetTurn)
}

func kinds(events []Event) []EventKind {
	out := make([]EventKind, len(events))
	for i, e := range events {
		out[i] = e.Kind
	}
	return out
}

func countKind(events []Event, kind EventKind) int {
	n := 0
	for _, e := range events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}
