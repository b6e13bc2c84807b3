package combat

import "slices"

// EffectKind classifies an ActiveEffect payload.
type EffectKind int

const (
	EffectBuff EffectKind = iota
	EffectDamageOverTime
	EffectHealOverTime
	EffectCondition
	EffectCustom
)

// ActiveEffect is a modifier one combatant placed on another.
type ActiveEffect struct {
	ID       int
	Name     string
	SourceID string
	TargetID string
	Kind     EffectKind
	Modifier Modifier
	// Remaining counts the source's turns left. Zero lasts until removed.
	Remaining int
	// ExpiresAtSourceTurn removes the effect when the source's next turn
	// starts.
	ExpiresAtSourceTurn bool
	RepeatSave          *Save
	Debuff              bool

	// appliedTurn is the turn counter when the effect landed. The source's
	// countdown skips that turn.
	appliedTurn int
}

func kindOf(m Modifier) EffectKind {
	switch {
	case m.Condition != ConditionNone:
		return EffectCondition
	case !m.PerTurnDamage.IsZero():
		return EffectDamageOverTime
	case !m.PerTurnHeal.IsZero():
		return EffectHealOverTime
	case !m.ToHit.IsZero() || !m.Damage.IsZero() || m.AC != 0 || !m.Save.IsZero():
		return EffectBuff
	}
	return EffectCustom
}

// Effects returns the active effects in ID order.
func (tc *TurnContext) Effects() []*ActiveEffect { return tc.effects }

// EffectsOn returns the effects carried by target in ID order.
func (tc *TurnContext) EffectsOn(target *Combatant) []*ActiveEffect {
	var out []*ActiveEffect
	for _, e := range tc.effects {
		if e.TargetID == target.ID {
			out = append(out, e)
		}
	}
	return out
}

// applyEffect attaches e to its target. An effect with the same name already
// on the target is replaced so buff identities stay unique.
func (tc *TurnContext) applyEffect(e ActiveEffect) *ActiveEffect {
	target, ok := tc.byID[e.TargetID]
	if !ok || !target.Alive() {
		return nil
	}
	if existing, ok := target.Buffs[e.Name]; ok {
		tc.removeEffect(existing, false)
	}
	tc.nextEffectID++
	e.ID = tc.nextEffectID
	e.Kind = kindOf(e.Modifier)
	e.appliedTurn = tc.Turn
	effect := &e
	tc.effects = append(tc.effects, effect)
	target.Buffs[e.Name] = e.ID
	target.acBonus += e.Modifier.AC
	if e.Modifier.Condition != ConditionNone {
		target.conditions[e.Modifier.Condition]++
	}
	tc.emit(Event{Kind: EventBuffApplied, Actor: e.SourceID, Target: e.TargetID, Detail: e.Name})
	return effect
}

// removeEffect detaches the effect with id and drops it from its source's
// concentration. When that empties the concentration it ends.
func (tc *TurnContext) removeEffect(id int, announce bool) {
	i := slices.IndexFunc(tc.effects, func(e *ActiveEffect) bool { return e.ID == id })
	if i < 0 {
		return
	}
	e := tc.effects[i]
	tc.effects = slices.Delete(tc.effects, i, i+1)

	if target, ok := tc.byID[e.TargetID]; ok {
		if target.Buffs[e.Name] == e.ID {
			delete(target.Buffs, e.Name)
		}
		target.acBonus -= e.Modifier.AC
		if e.Modifier.Condition != ConditionNone {
			target.conditions[e.Modifier.Condition]--
		}
	}
	if announce {
		tc.emit(Event{Kind: EventBuffExpired, Actor: e.SourceID, Target: e.TargetID, Detail: e.Name})
	}

	source, ok := tc.byID[e.SourceID]
	if !ok || source.Concentration == nil {
		return
	}
	conc := source.Concentration
	if j := slices.Index(conc.EffectIDs, id); j >= 0 {
		conc.EffectIDs = slices.Delete(conc.EffectIDs, j, j+1)
		if len(conc.EffectIDs) == 0 {
			source.Concentration = nil
		}
	}
}

// breakConcentration ends c's concentration and every effect it sustains.
func (tc *TurnContext) breakConcentration(c *Combatant) {
	conc := c.Concentration
	if conc == nil {
		return
	}
	c.Concentration = nil
	tc.emit(Event{Kind: EventConcentrationBroken, Actor: c.ID, Detail: conc.Action})
	for _, id := range conc.EffectIDs {
		tc.removeEffect(id, true)
	}
}

// startConcentration replaces c's concentration with a new one for action.
func (tc *TurnContext) startConcentration(c *Combatant, action string) *Concentration {
	tc.breakConcentration(c)
	c.Concentration = &Concentration{Action: action}
	return c.Concentration
}

// stripSourced removes every effect sourced by or carried by c.
func (tc *TurnContext) stripSourced(c *Combatant) {
	var ids []int
	for _, e := range tc.effects {
		if e.SourceID == c.ID || e.TargetID == c.ID {
			ids = append(ids, e.ID)
		}
	}
	for _, id := range ids {
		tc.removeEffect(id, true)
	}
}

// startOfTurn expires the effects c placed that last until its next turn.
func (tc *TurnContext) startOfTurn(c *Combatant) {
	var ids []int
	for _, e := range tc.effects {
		if e.SourceID == c.ID && e.ExpiresAtSourceTurn {
			ids = append(ids, e.ID)
		}
	}
	for _, id := range ids {
		tc.removeEffect(id, true)
	}
}

// endOfTurn ticks effects on c, lets c repeat saves, then counts down the
// durations of effects c sourced.
func (tc *TurnContext) endOfTurn(c *Combatant) {
	carried := tc.EffectsOn(c)
	for _, e := range carried {
		if !c.Alive() {
			return
		}
		if !tc.hasEffect(e.ID) {
			continue
		}
		source := tc.byID[e.SourceID]
		if !e.Modifier.PerTurnDamage.IsZero() {
			tc.applyDamage(source, c, e.Modifier.PerTurnDamage.Roll(tc.Roller, false), e.Name, false)
		}
		if !c.Alive() {
			return
		}
		if !e.Modifier.PerTurnHeal.IsZero() && source != nil {
			tc.heal(source, c, e.Modifier.PerTurnHeal.Roll(tc.Roller, false), e.Name)
		}
		if e.RepeatSave != nil && tc.hasEffect(e.ID) && tc.savingThrow(c, e.RepeatSave.Ability, e.RepeatSave.DC, e.SourceID) {
			tc.removeEffect(e.ID, true)
		}
	}

	var expired []int
	for _, e := range tc.effects {
		if e.SourceID != c.ID || e.Remaining <= 0 || e.appliedTurn == tc.Turn {
			continue
		}
		e.Remaining--
		if e.Remaining == 0 {
			expired = append(expired, e.ID)
		}
	}
	for _, id := range expired {
		tc.removeEffect(id, true)
	}
}

func (tc *TurnContext) hasEffect(id int) bool {
	return slices.ContainsFunc(tc.effects, func(e *ActiveEffect) bool { return e.ID == id })
}
