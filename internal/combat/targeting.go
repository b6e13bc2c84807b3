package combat

import (
	"cmp"
	"strings"
)

// SelectEnemyTarget picks the index of the best candidate on the opposing
// team for strategy. Candidates at 0 HP, on actor's team, or matched by
// excluded are skipped. The second result is false when nothing is legal.
func SelectEnemyTarget(strategy Strategy, actor *Combatant, candidates []*Combatant, excluded func(*Combatant) bool) (int, bool) {
	if strategy == StrategyDefault {
		strategy = LowestHP
	}
	return selectTarget(strategy, actor, candidates, func(c *Combatant) bool {
		return c.Team != actor.Team && (excluded == nil || !excluded(c))
	})
}

// SelectAllyTarget picks the index of the best candidate on actor's own team,
// actor included.
func SelectAllyTarget(strategy Strategy, actor *Combatant, candidates []*Combatant, excluded func(*Combatant) bool) (int, bool) {
	if strategy == StrategyDefault {
		strategy = LowestHP
	}
	return selectTarget(strategy, actor, candidates, func(c *Combatant) bool {
		return c.Team == actor.Team && (excluded == nil || !excluded(c))
	})
}

func selectTarget(strategy Strategy, actor *Combatant, candidates []*Combatant, legal func(*Combatant) bool) (int, bool) {
	best := -1
	for i, c := range candidates {
		if c == nil || !c.Alive() || !legal(c) {
			continue
		}
		if strategy == Self {
			if c == actor {
				return i, true
			}
			continue
		}
		if best < 0 || compareTargets(strategy, c, candidates[best]) < 0 {
			best = i
		}
	}
	return best, best >= 0
}

// compareTargets orders a before b when a is the preferred target. The chain
// is the strategy metric, concentrating first, higher initiative, lower AC,
// name and finally ID, so the order is total.
func compareTargets(strategy Strategy, a, b *Combatant) int {
	if c := compareMetric(strategy, a, b); c != 0 {
		return c
	}
	if a.Concentrating() != b.Concentrating() {
		if a.Concentrating() {
			return -1
		}
		return 1
	}
	if c := cmp.Compare(b.Initiative, a.Initiative); c != 0 {
		return c
	}
	if c := cmp.Compare(a.AC(), b.AC()); c != 0 {
		return c
	}
	if c := strings.Compare(a.Name(), b.Name()); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}

func compareMetric(strategy Strategy, a, b *Combatant) int {
	switch strategy {
	case LowestHP:
		return cmp.Compare(a.HP, b.HP)
	case HighestHP:
		return cmp.Compare(b.HP, a.HP)
	case HighestDPR:
		return cmp.Compare(b.EstimatedDPR(), a.EstimatedDPR())
	case LowestAC:
		return cmp.Compare(a.AC(), b.AC())
	case HighestAC:
		return cmp.Compare(b.AC(), a.AC())
	}
	return 0
}
