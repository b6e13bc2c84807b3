package combat

import (
	"fmt"
	"strings"

	"github.com/louisbranch/skirmish/internal/combat/resource"
	apperrors "github.com/louisbranch/skirmish/internal/platform/errors"
)

// Ability indexes a creature's saving throw bonuses.
type Ability int

const (
	Str Ability = iota
	Dex
	Con
	Int
	Wis
	Cha
)

var abilityNames = [...]string{"str", "dex", "con", "int", "wis", "cha"}

// String returns the three-letter ability name.
func (a Ability) String() string {
	if a < 0 || int(a) >= len(abilityNames) {
		return fmt.Sprintf("ability(%d)", int(a))
	}
	return abilityNames[a]
}

// ParseAbility maps a three-letter name to an Ability.
func ParseAbility(name string) (Ability, error) {
	for i, n := range abilityNames {
		if strings.EqualFold(n, name) {
			return Ability(i), nil
		}
	}
	return 0, invalid("unknown ability %q", name)
}

// Team is the side a combatant fights on.
type Team int

const (
	TeamParty    Team = 0
	TeamMonsters Team = 1
)

// Opponent returns the other team.
func (t Team) Opponent() Team {
	if t == TeamParty {
		return TeamMonsters
	}
	return TeamParty
}

// SpellSlot declares Count slots of the given spell level.
type SpellSlot struct {
	Level int
	Count int
}

// ClassResource declares a named pool such as "ki" or "second_wind".
type ClassResource struct {
	Name  string
	Max   int
	Reset resource.Reset
}

// HitDice declares Count hit dice of the given size.
type HitDice struct {
	Size  int
	Count int
}

// Creature is an immutable combat template. Combatants reference a Creature
// and never modify it.
type Creature struct {
	ID              string
	Name            string
	HP              int
	AC              int
	InitiativeBonus float64
	Saves           [6]int
	Actions         []Action
	Reactions       []Reaction
	SpellSlots      []SpellSlot
	ClassResources  []ClassResource
	HitDice         []HitDice
	HitDieBonus     int
	InitialBuffs    []Buff
}

func invalid(format string, args ...any) error {
	reason := fmt.Sprintf(format, args...)
	return apperrors.WithMetadata(apperrors.CodeInvalidCombatant, reason, map[string]string{"Reason": reason})
}

// Validate checks the creature can take part in an encounter.
func (c *Creature) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return invalid("creature id is required")
	}
	if strings.TrimSpace(c.Name) == "" {
		return invalid("creature %s: name is required", c.ID)
	}
	if c.HP <= 0 {
		return invalid("creature %s: hp must be positive", c.ID)
	}
	if c.AC < 0 {
		return invalid("creature %s: ac must not be negative", c.ID)
	}
	seen := make(map[string]bool, len(c.Actions))
	for i := range c.Actions {
		a := &c.Actions[i]
		if a.Name == "" {
			return invalid("creature %s: action %d has no name", c.ID, i)
		}
		if seen[a.Name] {
			return invalid("creature %s: duplicate action %q", c.ID, a.Name)
		}
		seen[a.Name] = true
		if a.Effect == nil {
			return invalid("creature %s: action %q has no effect", c.ID, a.Name)
		}
		if _, ok := Expand(*a); !ok {
			return invalid("creature %s: unknown template for action %q", c.ID, a.Name)
		}
		if a.Targets < 0 {
			return invalid("creature %s: action %q has negative targets", c.ID, a.Name)
		}
	}
	for _, slot := range c.SpellSlots {
		if slot.Level < 1 || slot.Level > 9 || slot.Count < 0 {
			return invalid("creature %s: invalid spell slot level %d", c.ID, slot.Level)
		}
	}
	for _, hd := range c.HitDice {
		if hd.Size <= 0 || hd.Count < 0 {
			return invalid("creature %s: invalid hit dice d%d", c.ID, hd.Size)
		}
	}
	for _, b := range c.InitialBuffs {
		if b.Name == "" {
			return invalid("creature %s: initial buff has no name", c.ID)
		}
	}
	for _, reaction := range c.Reactions {
		if reaction.Name == "" {
			return invalid("creature %s: reaction has no name", c.ID)
		}
	}
	return nil
}

// NewLedger builds a fully charged resource ledger for the creature.
func (c *Creature) NewLedger() *resource.Ledger {
	l := resource.New()
	l.Register(resource.Action, 1, resource.ResetTurn)
	l.Register(resource.BonusAction, 1, resource.ResetTurn)
	l.Register(resource.Reaction, 1, resource.ResetRound)
	for _, slot := range c.SpellSlots {
		l.Register(resource.SpellSlot(slot.Level), slot.Count, resource.ResetLongRest)
	}
	for _, cr := range c.ClassResources {
		l.Register(resource.Class(cr.Name), cr.Max, cr.Reset)
	}
	for _, hd := range c.HitDice {
		l.Register(resource.HitDie(hd.Size), hd.Count, resource.ResetNever)
	}
	for _, a := range c.Actions {
		expanded, _ := Expand(a)
		if expanded.Uses > 0 {
			l.Register(resource.Usage(expanded.Name), expanded.Uses, resource.ResetEncounter)
		}
		// Undeclared class pools default to one charge per short rest.
		if expanded.ClassResource != "" && !l.Tracked(resource.Class(expanded.ClassResource)) {
			l.Register(resource.Class(expanded.ClassResource), 1, resource.ResetShortRest)
		}
	}
	return l
}

// EstimatedDPR is the average damage of the creature's best action plus its
// best bonus action, assuming every attack lands.
func (c *Creature) EstimatedDPR() float64 {
	var best, bestBonus float64
	for _, a := range c.Actions {
		expanded, ok := Expand(a)
		if !ok {
			continue
		}
		avg := expanded.AverageDamage()
		if expanded.Cost == CostBonusAction {
			bestBonus = max(bestBonus, avg)
		} else {
			best = max(best, avg)
		}
	}
	return best + bestBonus
}
