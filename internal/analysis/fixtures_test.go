package analysis

import (
	"testing"

	"github.com/louisbranch/skirmish/internal/combat"
	"github.com/louisbranch/skirmish/internal/core/dice"
)

func testScenario() *combat.Scenario {
	fighter := combat.Creature{
		ID: "fighter", Name: "Fighter", HP: 30, AC: 16, InitiativeBonus: 1,
		Saves: [6]int{combat.Str: 5, combat.Con: 4},
		Actions: []combat.Action{
			{Name: "Longsword", Effect: combat.Attack{ToHit: 5, Damage: dice.MustParse("1d8+3")}},
			{Name: "Second Wind", Effect: combat.Template{Name: "second_wind"}},
		},
		HitDice:     []combat.HitDice{{Size: 10, Count: 3}},
		HitDieBonus: 2,
	}
	cleric := combat.Creature{
		ID: "cleric", Name: "Cleric", HP: 24, AC: 16,
		Saves: [6]int{combat.Wis: 5, combat.Cha: 3},
		Actions: []combat.Action{
			{Name: "Bless", Effect: combat.Template{Name: "bless"}},
			{Name: "Mace", Effect: combat.Attack{ToHit: 4, Damage: dice.MustParse("1d6+2")}},
			{Name: "Healing Word", Effect: combat.Template{Name: "healing_word"}},
		},
		SpellSlots: []combat.SpellSlot{{Level: 1, Count: 3}},
		HitDice:    []combat.HitDice{{Size: 8, Count: 3}},
	}
	goblin := func(id string) combat.Creature {
		return combat.Creature{
			ID: id, Name: "Goblin", HP: 7, AC: 15, InitiativeBonus: 2,
			Actions: []combat.Action{{Name: "Scimitar", Effect: combat.Attack{ToHit: 4, Damage: dice.MustParse("1d6+2")}}},
		}
	}
	ogre := combat.Creature{
		ID: "ogre", Name: "Ogre", HP: 59, AC: 11,
		Actions: []combat.Action{{Name: "Greatclub", Effect: combat.Attack{ToHit: 6, Damage: dice.MustParse("2d8+4")}}},
	}
	return &combat.Scenario{
		Name:  "road ambush",
		Party: []combat.Creature{fighter, cleric},
		Timeline: []combat.Step{
			combat.Combat(combat.Encounter{Name: "Goblins", Role: "skirmish", Monsters: []combat.Creature{goblin("g1"), goblin("g2"), goblin("g3")}}),
			combat.ShortRestStep(),
			combat.Combat(combat.Encounter{Name: "Ogre", Role: "boss", Monsters: []combat.Creature{ogre}}),
		},
	}
}

func newTestPipeline(t *testing.T, cfg Config, opts ...Option) *Pipeline {
	t.Helper()
	p, err := New(testScenario(), cfg, opts...)
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	return p
}

func seedPtr(v uint64) *uint64 { return &v }

// syntheticRuns returns n runs over two encounters whose final scores are a
// permutation of 0..n-1 so sorted positions equal scores.
func syntheticRuns(n int) []combat.LightweightRun {
	runs := make([]combat.LightweightRun, n)
	for i := range n {
		score := float64((i * 7919) % n)
		runs[i] = combat.LightweightRun{
			Seed:              uint64(1000 + i),
			EncounterScores:   []float64{score / 2, score},
			EncounterOutcomes: []combat.Outcome{combat.Team0Wins, combat.Team0Wins},
			FinalScore:        score,
			Survivors:         2,
		}
	}
	return runs
}
