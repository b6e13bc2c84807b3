package combat

func (tc *TurnContext) resolveHeal(actor *Combatant, a Action, h Heal) {
	done := make(map[*Combatant]bool, a.TargetCount())
	for i := 0; i < a.TargetCount(); i++ {
		idx, ok := SelectAllyTarget(a.Strategy, actor, tc.Combatants, healExclusion(false, done))
		if !ok {
			return
		}
		target := tc.Combatants[idx]
		done[target] = true
		tc.heal(actor, target, max(0, h.Amount.Roll(tc.Roller, false)), a.Name)
	}
}

// heal restores up to amount HP, never past max and never to a combatant at
// 0 HP. It returns the HP gained.
func (tc *TurnContext) heal(source, target *Combatant, amount int, action string) int {
	if !target.Alive() || amount <= 0 {
		return 0
	}
	gained := min(target.MaxHP-target.HP, amount)
	if gained <= 0 {
		return 0
	}
	target.HP += gained
	tc.emit(Event{Kind: EventHeal, Actor: source.ID, Target: target.ID, Action: action, Amount: gained})
	tc.recordHeal(source, gained)
	return gained
}

func (tc *TurnContext) resolveBuff(actor *Combatant, a Action, b Buff) {
	name := buffName(b.Name, a)
	var conc *Concentration
	if a.Concentration {
		conc = tc.startConcentration(actor, a.Name)
	}
	for i := 0; i < a.TargetCount(); i++ {
		idx, ok := SelectAllyTarget(allyStrategy(a.Strategy), actor, tc.Combatants, carries(name))
		if !ok {
			break
		}
		e := tc.applyEffect(ActiveEffect{
			Name:      name,
			SourceID:  actor.ID,
			TargetID:  tc.Combatants[idx].ID,
			Modifier:  b.Modifier,
			Remaining: b.Duration,
		})
		if conc != nil && e != nil {
			conc.EffectIDs = append(conc.EffectIDs, e.ID)
		}
	}
	tc.settleConcentration(actor, conc)
}

func (tc *TurnContext) resolveDebuff(actor *Combatant, a Action, d Debuff) {
	name := buffName(d.Name, a)
	var conc *Concentration
	if a.Concentration {
		conc = tc.startConcentration(actor, a.Name)
	}
	tried := make(map[*Combatant]bool, a.TargetCount())
	for i := 0; i < a.TargetCount(); i++ {
		idx, ok := SelectEnemyTarget(enemyStrategy(a.Strategy), actor, tc.Combatants, func(c *Combatant) bool {
			return tried[c] || carries(name)(c)
		})
		if !ok {
			break
		}
		target := tc.Combatants[idx]
		tried[target] = true
		if d.Save != nil && tc.savingThrow(target, d.Save.Ability, d.Save.DC, actor.ID) {
			continue
		}
		tc.placeDebuff(actor, target, d, a, conc)
	}
	tc.settleConcentration(actor, conc)
}

// placeDebuff attaches d to target without a save.
func (tc *TurnContext) placeDebuff(actor, target *Combatant, d Debuff, a Action, conc *Concentration) {
	var repeat *Save
	if d.RepeatSave && d.Save != nil {
		s := *d.Save
		repeat = &s
	}
	e := tc.applyEffect(ActiveEffect{
		Name:       buffName(d.Name, a),
		SourceID:   actor.ID,
		TargetID:   target.ID,
		Modifier:   d.Modifier,
		Remaining:  d.Duration,
		RepeatSave: repeat,
		Debuff:     true,
	})
	if conc != nil && e != nil {
		conc.EffectIDs = append(conc.EffectIDs, e.ID)
	}
}

// settleConcentration drops a concentration that ended up sustaining
// nothing, for example when every target saved.
func (tc *TurnContext) settleConcentration(actor *Combatant, conc *Concentration) {
	if conc != nil && len(conc.EffectIDs) == 0 && actor.Concentration == conc {
		actor.Concentration = nil
	}
}
