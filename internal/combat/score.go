package combat

// SurvivorWeight is the score awarded per standing party member. It
// dominates HP so any extra survivor outranks any HP difference.
const SurvivorWeight = 10000

// EncounterScore is 10000 per living party member, plus party HP remaining,
// minus monster HP remaining.
func EncounterScore(tc *TurnContext) float64 {
	score := 0
	for _, c := range tc.Combatants {
		hp := max(0, c.HP)
		switch c.Team {
		case TeamParty:
			if c.Alive() {
				score += SurvivorWeight
			}
			score += hp
		case TeamMonsters:
			score -= hp
		}
	}
	return float64(score)
}

// forfeitScore scores a combat the party could not attend: no survivors and
// every monster at full HP.
func forfeitScore(enc *Encounter) float64 {
	score := 0
	for _, m := range enc.Monsters {
		score -= m.HP
	}
	return float64(score)
}
