package combat

import (
	"strings"

	"github.com/louisbranch/skirmish/internal/core/dice"
)

// Cost is the action economy slot an action spends.
type Cost int

const (
	CostAction Cost = iota
	CostBonusAction
)

// Strategy selects a target among candidates.
type Strategy int

const (
	StrategyDefault Strategy = iota
	LowestHP
	HighestHP
	HighestDPR
	LowestAC
	HighestAC
	Self
)

var strategyNames = map[Strategy]string{
	StrategyDefault: "default",
	LowestHP:        "lowest_hp",
	HighestHP:       "highest_hp",
	HighestDPR:      "highest_dpr",
	LowestAC:        "lowest_ac",
	HighestAC:       "highest_ac",
	Self:            "self",
}

func (s Strategy) String() string { return strategyNames[s] }

// ParseStrategy maps a snake_case name to a Strategy. The empty string is
// StrategyDefault.
func ParseStrategy(name string) (Strategy, error) {
	if name == "" {
		return StrategyDefault, nil
	}
	for s, n := range strategyNames {
		if n == strings.ToLower(name) {
			return s, nil
		}
	}
	return 0, invalid("unknown targeting strategy %q", name)
}

// Condition is a status that changes how a combatant acts or is attacked.
type Condition int

const (
	ConditionNone Condition = iota
	// Poisoned combatants attack with disadvantage.
	Poisoned
	// Stunned combatants lose their turn and are attacked with advantage.
	Stunned
	// Paralyzed behaves as Stunned.
	Paralyzed
)

var conditionNames = map[Condition]string{
	ConditionNone: "",
	Poisoned:      "poisoned",
	Stunned:       "stunned",
	Paralyzed:     "paralyzed",
}

func (c Condition) String() string { return conditionNames[c] }

// Incapacitating reports whether the condition skips the combatant's turn.
func (c Condition) Incapacitating() bool {
	return c == Stunned || c == Paralyzed
}

// ParseCondition maps a name to a Condition. The empty string is
// ConditionNone.
func ParseCondition(name string) (Condition, error) {
	for c, n := range conditionNames {
		if n == strings.ToLower(name) {
			return c, nil
		}
	}
	return 0, invalid("unknown condition %q", name)
}

// Save describes a saving throw the target makes against DC.
type Save struct {
	Ability Ability
	DC      int
	// Half applies half damage on a successful save instead of none.
	Half bool
}

// Modifier is the payload carried by buffs and debuffs. Formula fields are
// rolled each time they apply.
type Modifier struct {
	ToHit  dice.Formula
	Damage dice.Formula
	AC     int
	Save   dice.Formula
	// Vulnerable is extra damage the carrier takes from its source's hits.
	Vulnerable dice.Formula
	// PerTurnDamage and PerTurnHeal tick at the end of the carrier's turn.
	PerTurnDamage dice.Formula
	PerTurnHeal   dice.Formula
	Condition     Condition
}

// Effect is the closed set of action payloads: Attack, Heal, Buff, Debuff and
// Template.
type Effect interface {
	effect()
}

// Attack rolls to hit against AC, or forces a save when Save is set.
type Attack struct {
	ToHit  int
	Damage dice.Formula
	Save   *Save
	// Rider is applied to the target on a hit or a failed save.
	Rider *Debuff
}

// Heal restores HP to allies.
type Heal struct {
	Amount dice.Formula
}

// Buff applies a Modifier to allies.
type Buff struct {
	Name     string
	Modifier Modifier
	// Duration is measured in the source's turns. Zero lasts until removed.
	Duration int
}

// Debuff applies a Modifier to enemies, optionally gated by a save.
type Debuff struct {
	Name     string
	Modifier Modifier
	Duration int
	Save     *Save
	// RepeatSave lets the carrier repeat the save at the end of each of its
	// turns to end the effect.
	RepeatSave bool
}

// Template refers to an entry of the shared template table by name.
type Template struct {
	Name string
}

func (Attack) effect()   {}
func (Heal) effect()     {}
func (Buff) effect()     {}
func (Debuff) effect()   {}
func (Template) effect() {}

// Action is one thing a creature can do on its turn.
type Action struct {
	Name     string
	Cost     Cost
	Targets  int
	Strategy Strategy
	// SpellLevel consumes one slot of that level when positive.
	SpellLevel int
	// ClassResource consumes one charge of the named pool when set.
	ClassResource string
	// Uses limits the action per encounter when positive.
	Uses          int
	Concentration bool
	Effect        Effect
}

// TargetCount is Targets with a floor of one.
func (a Action) TargetCount() int {
	return max(1, a.Targets)
}

// AverageDamage is the expected damage of the action assuming every target
// is hit or fails its save. Non-attacks return 0.
func (a Action) AverageDamage() float64 {
	atk, ok := a.Effect.(Attack)
	if !ok {
		return 0
	}
	return max(0, atk.Damage.Average()) * float64(a.TargetCount())
}

// Trigger selects when a reaction fires.
type Trigger int

const (
	// OnAttacked fires on the reactor when an attack would hit it.
	OnAttacked Trigger = iota
	// OnAllyAttacked fires on an ally of the target before the roll and
	// redirects the attack to the reactor.
	OnAllyAttacked
	// OnMiss fires on the attacker after a near miss.
	OnMiss
	// OnDamaged fires on the reactor after it takes damage from a hit and
	// queues a retaliation against the attacker.
	OnDamaged
)

var triggerNames = map[Trigger]string{
	OnAttacked:     "on_attacked",
	OnAllyAttacked: "on_ally_attacked",
	OnMiss:         "on_miss",
	OnDamaged:      "on_damaged",
}

func (t Trigger) String() string { return triggerNames[t] }

// ParseTrigger maps a snake_case name to a Trigger.
func ParseTrigger(name string) (Trigger, error) {
	for t, n := range triggerNames {
		if n == strings.ToLower(name) {
			return t, nil
		}
	}
	return 0, invalid("unknown reaction trigger %q", name)
}

// Reaction is an interrupt a creature can spend its reaction on.
type Reaction struct {
	Name    string
	Trigger Trigger
	// ACBonus raises the reactor's AC until the start of its next turn.
	ACBonus int
	// RollBonus is added to a missed attack roll.
	RollBonus int
	// ToHit and Damage describe the retaliation strike.
	ToHit         int
	Damage        dice.Formula
	SpellLevel    int
	ClassResource string
}
