package combat

import (
	"github.com/louisbranch/skirmish/internal/combat/resource"
)

const (
	// MaxRounds caps an encounter's rounds.
	MaxRounds = 50
	// MaxTurns caps an encounter's individual turns.
	MaxTurns = 200
)

// Outcome is the terminal state of an encounter.
type Outcome int

const (
	Team0Wins Outcome = iota
	Team1Wins
	Draw
)

func (o Outcome) String() string {
	switch o {
	case Team0Wins:
		return "party_wins"
	case Team1Wins:
		return "monsters_win"
	}
	return "draw"
}

// RunEncounter advances tc until one team is down or a cap is reached.
// Initiative must already be rolled.
func RunEncounter(tc *TurnContext) Outcome {
	for !tc.Complete() && tc.Round < MaxRounds && tc.Turn < MaxTurns {
		tc.Round++
		tc.emit(Event{Kind: EventRoundStart})
		for _, c := range tc.Combatants {
			c.Resources.ResetByType(resource.ResetRound)
		}

		for _, c := range tc.Combatants {
			if tc.Complete() || tc.Turn >= MaxTurns {
				break
			}
			if !c.Alive() {
				continue
			}
			if tc.Round == 1 && c.Surprised {
				tc.emit(Event{Kind: EventTurnSkipped, Actor: c.ID, Detail: "surprised"})
				continue
			}
			tc.Turn++
			tc.takeTurn(c)
			tc.processReactions()
			if c.Alive() {
				tc.endOfTurn(c)
			}
		}

		tc.closeRound()
		tc.DrainPending()
	}
	return tc.Outcome()
}

func (tc *TurnContext) takeTurn(c *Combatant) {
	c.Resources.ResetByType(resource.ResetTurn)
	tc.startOfTurn(c)
	tc.emit(Event{Kind: EventTurnStart, Actor: c.ID})

	if c.Incapacitated() {
		detail := Stunned.String()
		if c.Has(Paralyzed) {
			detail = Paralyzed.String()
		}
		tc.emit(Event{Kind: EventTurnSkipped, Actor: c.ID, Detail: detail})
		return
	}

	if a, ok := tc.ChooseAction(c, CostAction); ok {
		tc.Resolve(c, a)
	}
	if c.Alive() && !tc.Complete() {
		if a, ok := tc.ChooseAction(c, CostBonusAction); ok {
			tc.Resolve(c, a)
		}
	}
}

// ChooseAction picks c's action for the cost slot: a heal when an ally is at
// or below half HP, then a buff or debuff c is not already concentrating
// against, then the attack with the highest expected damage.
func (tc *TurnContext) ChooseAction(c *Combatant, cost Cost) (Action, bool) {
	var (
		heal, support, attack Action
		haveHeal, haveSupport bool
		bestHeal, bestAttack  float64
	)
	for _, a := range c.actions {
		if a.Cost != cost || !tc.Available(c, a) {
			continue
		}
		switch effect := a.Effect.(type) {
		case Heal:
			if avg := effect.Amount.Average(); tc.hasTarget(c, a, true) && (!haveHeal || avg > bestHeal) {
				heal, bestHeal, haveHeal = a, avg, true
			}
		case Buff, Debuff:
			if haveSupport || (a.Concentration && c.Concentrating()) {
				continue
			}
			if tc.hasTarget(c, a, false) {
				support, haveSupport = a, true
			}
		case Attack:
			if exp := tc.expectedDamage(c, a, effect); exp > bestAttack {
				attack, bestAttack = a, exp
			}
		}
	}
	switch {
	case haveHeal:
		return heal, true
	case haveSupport:
		return support, true
	case bestAttack > 0:
		return attack, true
	}
	return Action{}, false
}

// expectedDamage estimates a's damage against the target its strategy would
// pick now.
func (tc *TurnContext) expectedDamage(c *Combatant, a Action, atk Attack) float64 {
	idx, ok := SelectEnemyTarget(a.Strategy, c, tc.Combatants, nil)
	if !ok {
		return 0
	}
	target := tc.Combatants[idx]
	avg := max(0, atk.Damage.Average())
	if atk.Save != nil {
		success := chance(atk.Save.DC - target.Creature.Saves[atk.Save.Ability])
		fail := 1 - success
		if atk.Save.Half {
			fail += success / 2
		}
		return avg * fail * float64(a.TargetCount())
	}
	hit := min(0.95, max(0.05, chance(target.AC()-atk.ToHit)))
	return avg * hit * float64(a.TargetCount())
}

// chance is the probability that d20 meets need.
func chance(need int) float64 {
	p := float64(21-need) / 20
	return min(1, max(0, p))
}
