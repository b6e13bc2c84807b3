package combat

import (
	"github.com/louisbranch/skirmish/internal/core/check"
)

// resolveAttack runs each sub-hit with fresh targeting so a kill made by one
// sub-hit is visible to the next.
func (tc *TurnContext) resolveAttack(actor *Combatant, a Action, atk Attack) {
	for i := 0; i < a.TargetCount(); i++ {
		if !actor.Alive() {
			return
		}
		idx, ok := SelectEnemyTarget(a.Strategy, actor, tc.Combatants, nil)
		if !ok {
			return
		}
		target := tc.Combatants[idx]
		if atk.Save != nil {
			tc.resolveSaveAttack(actor, target, a, atk)
			continue
		}
		tc.resolveWeaponAttack(actor, target, a, atk)
	}
}

func (tc *TurnContext) resolveWeaponAttack(actor, target *Combatant, a Action, atk Attack) {
	target = tc.intercept(actor, target)

	roll := tc.Roller.RollD20(tc.attackMode(actor, target))
	bonus := atk.ToHit + tc.toHitBonus(actor)
	res := check.AttackRoll(roll.Natural, bonus, target.AC())

	if res.Hit && !res.Crit && tc.defend(target, actor, res) {
		res = check.AttackRoll(roll.Natural, bonus, target.AC())
	}
	if !res.Hit && !roll.Fumble() && tc.boostAccuracy(actor, res) {
		res.Hit = true
	}

	detail := &RollDetail{
		Natural: roll.Natural,
		Rolls:   roll.Rolls,
		Total:   res.Total,
		AC:      res.AC,
		Crit:    res.Crit,
		Mode:    roll.Mode,
	}
	if !res.Hit {
		tc.emit(Event{Kind: EventAttackMiss, Actor: actor.ID, Target: target.ID, Action: a.Name, Roll: detail})
		return
	}
	tc.emit(Event{Kind: EventAttackHit, Actor: actor.ID, Target: target.ID, Action: a.Name, Roll: detail})

	damage := atk.Damage.Roll(tc.Roller, res.Crit) + tc.damageBonus(actor, target, res.Crit)
	tc.applyDamage(actor, target, max(0, damage), a.Name, true)
	if atk.Rider != nil && target.Alive() {
		tc.placeDebuff(actor, target, *atk.Rider, a, nil)
	}
}

func (tc *TurnContext) resolveSaveAttack(actor, target *Combatant, a Action, atk Attack) {
	saved := tc.savingThrow(target, atk.Save.Ability, atk.Save.DC, actor.ID)
	damage := max(0, atk.Damage.Roll(tc.Roller, false)+tc.damageBonus(actor, target, false))
	switch {
	case saved && atk.Save.Half:
		damage /= 2
	case saved:
		damage = 0
	}

	kind := EventAttackHit
	if saved {
		kind = EventAttackMiss
	}
	tc.emit(Event{Kind: kind, Actor: actor.ID, Target: target.ID, Action: a.Name, Detail: "save"})
	tc.applyDamage(actor, target, damage, a.Name, false)
	if !saved && atk.Rider != nil && target.Alive() {
		tc.placeDebuff(actor, target, *atk.Rider, a, nil)
	}
}

// applyDamage lowers target HP, temp HP first. It then runs the post-damage
// triggers: death cleanup, the concentration save and queued retaliation.
// Retaliation only triggers on weapon hits.
func (tc *TurnContext) applyDamage(source, target *Combatant, amount int, action string, weaponHit bool) {
	if amount <= 0 || !target.Alive() {
		return
	}
	absorbed := min(target.TempHP, amount)
	target.TempHP -= absorbed
	lost := min(target.HP, amount-absorbed)
	target.HP -= lost

	sourceID := ""
	if source != nil {
		sourceID = source.ID
	}
	tc.emit(Event{Kind: EventDamage, Actor: sourceID, Target: target.ID, Action: action, Amount: amount})
	tc.recordDamage(source, target, amount, lost)

	if !target.Alive() {
		tc.kill(target, sourceID)
		return
	}
	if target.Concentrating() && !tc.savingThrow(target, Con, check.ConcentrationDC(amount), sourceID) {
		tc.breakConcentration(target)
	}
	if weaponHit && source != nil && source.Alive() {
		tc.queueRetaliation(target, source)
	}
}

// kill runs death cleanup in one pass: concentration, sourced and carried
// effects, and queued reactions from or against the dead combatant.
func (tc *TurnContext) kill(c *Combatant, killer string) {
	c.HP = 0
	c.TempHP = 0
	tc.emit(Event{Kind: EventDeath, Actor: killer, Target: c.ID})
	tc.recordDeath(c)
	tc.breakConcentration(c)
	tc.stripSourced(c)
	tc.dropQueued(c)
}
