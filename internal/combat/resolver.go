package combat

import (
	"github.com/louisbranch/skirmish/internal/combat/resource"
)

// costKey maps an action's economy slot to its ledger key.
func costKey(c Cost) resource.Key {
	if c == CostBonusAction {
		return resource.BonusAction
	}
	return resource.Action
}

// Available reports whether actor can pay for a right now.
func (tc *TurnContext) Available(actor *Combatant, a Action) bool {
	l := actor.Resources
	if !l.Has(costKey(a.Cost), 1) {
		return false
	}
	if a.SpellLevel > 0 && !l.Has(resource.SpellSlot(a.SpellLevel), 1) {
		return false
	}
	if a.ClassResource != "" && !l.Has(resource.Class(a.ClassResource), 1) {
		return false
	}
	if a.Uses > 0 && !l.Has(resource.Usage(a.Name), 1) {
		return false
	}
	return true
}

// pay spends every resource a costs. Callers check Available first.
func (tc *TurnContext) pay(actor *Combatant, a Action) {
	spend := func(key resource.Key) {
		if err := actor.Resources.Consume(key, 1); err != nil {
			return
		}
		if key.Kind != resource.KindAction && key.Kind != resource.KindBonusAction {
			tc.emit(Event{Kind: EventResourceConsumed, Actor: actor.ID, Action: a.Name, Amount: 1, Detail: key.String()})
		}
	}
	spend(costKey(a.Cost))
	if a.SpellLevel > 0 {
		spend(resource.SpellSlot(a.SpellLevel))
	}
	if a.ClassResource != "" {
		spend(resource.Class(a.ClassResource))
	}
	if a.Uses > 0 {
		spend(resource.Usage(a.Name))
	}
	actor.Used[a.Name]++
}

// Resolve runs one action for actor. It reports false when the action could
// not be taken because actor is down, cannot pay, or has no legal target.
// None of those cases emit events or spend resources.
func (tc *TurnContext) Resolve(actor *Combatant, a Action) bool {
	if !actor.Alive() {
		return false
	}
	a, ok := Expand(a)
	if !ok || !tc.Available(actor, a) || !tc.hasTarget(actor, a, false) {
		return false
	}
	tc.pay(actor, a)

	switch effect := a.Effect.(type) {
	case Attack:
		tc.resolveAttack(actor, a, effect)
	case Heal:
		tc.resolveHeal(actor, a, effect)
	case Buff:
		tc.resolveBuff(actor, a, effect)
	case Debuff:
		tc.resolveDebuff(actor, a, effect)
	}
	return true
}

// hasTarget reports whether a has at least one legal target. woundedOnly
// narrows heals to allies at or below half HP.
func (tc *TurnContext) hasTarget(actor *Combatant, a Action, woundedOnly bool) bool {
	switch effect := a.Effect.(type) {
	case Attack:
		_, ok := SelectEnemyTarget(a.Strategy, actor, tc.Combatants, nil)
		return ok
	case Heal:
		_, ok := SelectAllyTarget(a.Strategy, actor, tc.Combatants, healExclusion(woundedOnly, nil))
		return ok
	case Buff:
		_, ok := SelectAllyTarget(allyStrategy(a.Strategy), actor, tc.Combatants, carries(buffName(effect.Name, a)))
		return ok
	case Debuff:
		_, ok := SelectEnemyTarget(enemyStrategy(a.Strategy), actor, tc.Combatants, carries(buffName(effect.Name, a)))
		return ok
	}
	return false
}

func buffName(name string, a Action) string {
	if name != "" {
		return name
	}
	return a.Name
}

func allyStrategy(s Strategy) Strategy {
	if s == StrategyDefault {
		return HighestDPR
	}
	return s
}

func enemyStrategy(s Strategy) Strategy {
	if s == StrategyDefault {
		return HighestDPR
	}
	return s
}

func carries(name string) func(*Combatant) bool {
	return func(c *Combatant) bool {
		_, ok := c.Buffs[name]
		return ok
	}
}

func healExclusion(woundedOnly bool, done map[*Combatant]bool) func(*Combatant) bool {
	return func(c *Combatant) bool {
		if done[c] || c.HP >= c.MaxHP {
			return true
		}
		return woundedOnly && !c.Wounded()
	}
}
