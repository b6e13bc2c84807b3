package combat

import (
	"slices"

	"github.com/louisbranch/skirmish/internal/combat/resource"
	"github.com/louisbranch/skirmish/internal/core/check"
)

type queuedReaction struct {
	reactorID string
	targetID  string
	reaction  Reaction
}

// readyReaction returns c's first declared reaction for trigger that c can
// pay for now and that fits, when fits is set.
func (tc *TurnContext) readyReaction(c *Combatant, trigger Trigger, fits func(Reaction) bool) (Reaction, bool) {
	if !c.Alive() || c.Incapacitated() || !c.Resources.Has(resource.Reaction, 1) {
		return Reaction{}, false
	}
	for _, r := range c.Creature.Reactions {
		if r.Trigger != trigger {
			continue
		}
		if r.SpellLevel > 0 && !c.Resources.Has(resource.SpellSlot(r.SpellLevel), 1) {
			continue
		}
		if r.ClassResource != "" && !c.Resources.Has(resource.Class(r.ClassResource), 1) {
			continue
		}
		if fits != nil && !fits(r) {
			continue
		}
		return r, true
	}
	return Reaction{}, false
}

func (tc *TurnContext) spendReaction(c *Combatant, r Reaction, target string) {
	_ = c.Resources.Consume(resource.Reaction, 1)
	if r.SpellLevel > 0 {
		_ = c.Resources.Consume(resource.SpellSlot(r.SpellLevel), 1)
		tc.emit(Event{Kind: EventResourceConsumed, Actor: c.ID, Action: r.Name, Amount: 1, Detail: resource.SpellSlot(r.SpellLevel).String()})
	}
	if r.ClassResource != "" {
		_ = c.Resources.Consume(resource.Class(r.ClassResource), 1)
		tc.emit(Event{Kind: EventResourceConsumed, Actor: c.ID, Action: r.Name, Amount: 1, Detail: resource.Class(r.ClassResource).String()})
	}
	tc.emit(Event{Kind: EventReaction, Actor: c.ID, Target: target, Action: r.Name, Detail: r.Trigger.String()})
}

// intercept lets the first ally of target in turn order with a ready
// intercept reaction take the attack instead.
func (tc *TurnContext) intercept(attacker, target *Combatant) *Combatant {
	for _, ally := range tc.Combatants {
		if ally == target || ally.Team != target.Team {
			continue
		}
		r, ok := tc.readyReaction(ally, OnAllyAttacked, nil)
		if !ok {
			continue
		}
		tc.spendReaction(ally, r, attacker.ID)
		return ally
	}
	return target
}

// defend spends an AC-raising reaction when it would turn res into a miss.
// The bonus lasts until the start of the defender's next turn.
func (tc *TurnContext) defend(defender, attacker *Combatant, res check.Attack) bool {
	r, ok := tc.readyReaction(defender, OnAttacked, func(r Reaction) bool {
		return r.ACBonus > 0 && res.Total < res.AC+r.ACBonus
	})
	if !ok {
		return false
	}
	tc.spendReaction(defender, r, attacker.ID)
	tc.applyEffect(ActiveEffect{
		Name:                r.Name,
		SourceID:            defender.ID,
		TargetID:            defender.ID,
		Modifier:            Modifier{AC: r.ACBonus},
		ExpiresAtSourceTurn: true,
	})
	return true
}

// boostAccuracy spends an on-miss reaction when its flat bonus clears AC.
func (tc *TurnContext) boostAccuracy(attacker *Combatant, res check.Attack) bool {
	r, ok := tc.readyReaction(attacker, OnMiss, func(r Reaction) bool {
		return r.RollBonus > 0 && res.Shortfall() <= r.RollBonus
	})
	if !ok {
		return false
	}
	tc.spendReaction(attacker, r, "")
	return true
}

// queueRetaliation records that reactor will strike back at attacker once the
// current turn ends. A reactor queues at most one retaliation at a time.
func (tc *TurnContext) queueRetaliation(reactor, attacker *Combatant) {
	if reactor.Team == attacker.Team {
		return
	}
	r, ok := tc.readyReaction(reactor, OnDamaged, strikes)
	if !ok {
		return
	}
	if slices.ContainsFunc(tc.queued, func(q queuedReaction) bool { return q.reactorID == reactor.ID }) {
		return
	}
	tc.queued = append(tc.queued, queuedReaction{reactorID: reactor.ID, targetID: attacker.ID, reaction: r})
}

func strikes(r Reaction) bool { return !r.Damage.IsZero() }

// dropQueued removes queued reactions from or against c.
func (tc *TurnContext) dropQueued(c *Combatant) {
	tc.queued = slices.DeleteFunc(tc.queued, func(q queuedReaction) bool {
		return q.reactorID == c.ID || q.targetID == c.ID
	})
}

// Queued reports how many reactions wait to be processed.
func (tc *TurnContext) Queued() int { return len(tc.queued) }

// processReactions resolves queued retaliations in queue order.
// Retaliation strikes do not queue further retaliation.
func (tc *TurnContext) processReactions() {
	for len(tc.queued) > 0 {
		q := tc.queued[0]
		tc.queued = tc.queued[1:]

		reactor, ok := tc.byID[q.reactorID]
		if !ok {
			continue
		}
		target, ok := tc.byID[q.targetID]
		if !ok || !target.Alive() {
			continue
		}
		if _, ready := tc.readyReaction(reactor, OnDamaged, strikes); !ready {
			continue
		}
		tc.spendReaction(reactor, q.reaction, target.ID)

		roll := tc.Roller.RollD20(tc.attackMode(reactor, target))
		res := check.AttackRoll(roll.Natural, q.reaction.ToHit+tc.toHitBonus(reactor), target.AC())
		detail := &RollDetail{Natural: roll.Natural, Rolls: roll.Rolls, Total: res.Total, AC: res.AC, Crit: res.Crit, Mode: roll.Mode}
		if !res.Hit {
			tc.emit(Event{Kind: EventAttackMiss, Actor: reactor.ID, Target: target.ID, Action: q.reaction.Name, Roll: detail})
			continue
		}
		tc.emit(Event{Kind: EventAttackHit, Actor: reactor.ID, Target: target.ID, Action: q.reaction.Name, Roll: detail})
		damage := q.reaction.Damage.Roll(tc.Roller, res.Crit) + tc.damageBonus(reactor, target, res.Crit)
		tc.applyDamage(reactor, target, max(0, damage), q.reaction.Name, false)
	}
	tc.queued = nil
}
