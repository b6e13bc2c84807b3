// Package scenario loads combat scenarios from YAML files and Lua scripts.
//
// Both formats decode into a Document, which Build validates and converts
// into a combat.Scenario. Build reports every problem it finds rather than
// stopping at the first.
package scenario

import (
	"fmt"
	"sort"
	"strings"

	"github.com/louisbranch/skirmish/internal/combat"
	"github.com/louisbranch/skirmish/internal/combat/resource"
	"github.com/louisbranch/skirmish/internal/core/dice"
	apperrors "github.com/louisbranch/skirmish/internal/platform/errors"
	"gopkg.in/yaml.v3"
)

// Document is the file representation of a scenario.
type Document struct {
	Name     string                 `yaml:"name"`
	Party    []CreatureDoc          `yaml:"party"`
	Bestiary map[string]CreatureDoc `yaml:"bestiary,omitempty"`
	Timeline []StepDoc              `yaml:"timeline"`
}

// CreatureDoc describes a party member or monster.
type CreatureDoc struct {
	ID             string             `yaml:"id,omitempty"`
	Name           string             `yaml:"name"`
	HP             int                `yaml:"hp"`
	AC             int                `yaml:"ac"`
	Initiative     float64            `yaml:"initiative,omitempty"`
	Saves          map[string]int     `yaml:"saves,omitempty"`
	Actions        []ActionDoc        `yaml:"actions,omitempty"`
	Reactions      []ReactionDoc      `yaml:"reactions,omitempty"`
	SpellSlots     Counts             `yaml:"spell_slots,omitempty"`
	ClassResources []ClassResourceDoc `yaml:"class_resources,omitempty"`
	HitDice        Counts             `yaml:"hit_dice,omitempty"`
	HitDieBonus    int                `yaml:"hit_die_bonus,omitempty"`
	InitialBuffs   []BuffDoc          `yaml:"initial_buffs,omitempty"`
}

// ActionDoc sets exactly one of Attack, Heal, Buff, Debuff or Template.
type ActionDoc struct {
	Name          string     `yaml:"name"`
	Cost          string     `yaml:"cost,omitempty"`
	Targets       int        `yaml:"targets,omitempty"`
	Strategy      string     `yaml:"strategy,omitempty"`
	SpellLevel    int        `yaml:"spell_level,omitempty"`
	ClassResource string     `yaml:"class_resource,omitempty"`
	Uses          int        `yaml:"uses,omitempty"`
	Concentration bool       `yaml:"concentration,omitempty"`
	Attack        *AttackDoc `yaml:"attack,omitempty"`
	Heal          *HealDoc   `yaml:"heal,omitempty"`
	Buff          *BuffDoc   `yaml:"buff,omitempty"`
	Debuff        *DebuffDoc `yaml:"debuff,omitempty"`
	Template      string     `yaml:"template,omitempty"`
}

type AttackDoc struct {
	ToHit  int          `yaml:"to_hit"`
	Damage dice.Formula `yaml:"damage"`
	Save   *SaveDoc     `yaml:"save,omitempty"`
	Rider  *DebuffDoc   `yaml:"rider,omitempty"`
}

type HealDoc struct {
	Amount dice.Formula `yaml:"amount"`
}

type SaveDoc struct {
	Ability string `yaml:"ability"`
	DC      int    `yaml:"dc"`
	Half    bool   `yaml:"half,omitempty"`
}

type ModifierDoc struct {
	ToHit         dice.Formula `yaml:"to_hit,omitempty"`
	Damage        dice.Formula `yaml:"damage,omitempty"`
	AC            int          `yaml:"ac,omitempty"`
	Save          dice.Formula `yaml:"save,omitempty"`
	Vulnerable    dice.Formula `yaml:"vulnerable,omitempty"`
	PerTurnDamage dice.Formula `yaml:"per_turn_damage,omitempty"`
	PerTurnHeal   dice.Formula `yaml:"per_turn_heal,omitempty"`
	Condition     string       `yaml:"condition,omitempty"`
}

type BuffDoc struct {
	Name     string      `yaml:"name"`
	Duration int         `yaml:"duration,omitempty"`
	Modifier ModifierDoc `yaml:"modifier"`
}

type DebuffDoc struct {
	Name       string      `yaml:"name"`
	Duration   int         `yaml:"duration,omitempty"`
	Save       *SaveDoc    `yaml:"save,omitempty"`
	RepeatSave bool        `yaml:"repeat_save,omitempty"`
	Modifier   ModifierDoc `yaml:"modifier"`
}

type ReactionDoc struct {
	Name          string       `yaml:"name"`
	Trigger       string       `yaml:"trigger"`
	ACBonus       int          `yaml:"ac_bonus,omitempty"`
	RollBonus     int          `yaml:"roll_bonus,omitempty"`
	ToHit         int          `yaml:"to_hit,omitempty"`
	Damage        dice.Formula `yaml:"damage,omitempty"`
	SpellLevel    int          `yaml:"spell_level,omitempty"`
	ClassResource string       `yaml:"class_resource,omitempty"`
}

type ClassResourceDoc struct {
	Name  string `yaml:"name"`
	Max   int    `yaml:"max"`
	Reset string `yaml:"reset"`
}

// StepDoc sets Combat or Rest ("short" or "long").
type StepDoc struct {
	Combat *EncounterDoc `yaml:"combat,omitempty"`
	Rest   string        `yaml:"rest,omitempty"`
}

type EncounterDoc struct {
	Name              string       `yaml:"name"`
	Role              string       `yaml:"role,omitempty"`
	PartySurprised    bool         `yaml:"party_surprised,omitempty"`
	MonstersSurprised bool         `yaml:"monsters_surprised,omitempty"`
	Monsters          []MonsterDoc `yaml:"monsters"`
}

// MonsterDoc is either an inline creature or Count copies of a bestiary
// entry named by Use.
type MonsterDoc struct {
	Use         string `yaml:"use,omitempty"`
	Count       int    `yaml:"count,omitempty"`
	CreatureDoc `yaml:",inline"`
}

// problems collects validation messages with their location.
type problems []string

func (p *problems) addf(format string, args ...any) {
	*p = append(*p, fmt.Sprintf(format, args...))
}

func (p problems) err(name string) error {
	if len(p) == 0 {
		return nil
	}
	return apperrors.WithMetadata(apperrors.CodeValidationFailed,
		fmt.Sprintf("scenario %q is invalid", name),
		map[string]string{"Reason": strings.Join(p, "; ")})
}

// Build converts and validates the document.
func (d *Document) Build() (*combat.Scenario, error) {
	var probs problems
	s := &combat.Scenario{Name: d.Name}
	if strings.TrimSpace(d.Name) == "" {
		probs.addf("name is required")
	}
	if len(d.Party) == 0 {
		probs.addf("party is empty")
	}
	for i, cd := range d.Party {
		c := cd.build(fmt.Sprintf("party[%d]", i), &probs)
		if c.ID == "" {
			c.ID = slug(c.Name)
		}
		s.Party = append(s.Party, c)
	}

	combats := 0
	for i, sd := range d.Timeline {
		where := fmt.Sprintf("timeline[%d]", i)
		switch {
		case sd.Combat != nil && sd.Rest != "":
			probs.addf("%s: sets both combat and rest", where)
		case sd.Combat != nil:
			combats++
			s.Timeline = append(s.Timeline, combat.Combat(d.buildEncounter(where, sd.Combat, &probs)))
		case sd.Rest == "short":
			s.Timeline = append(s.Timeline, combat.ShortRestStep())
		case sd.Rest == "long":
			s.Timeline = append(s.Timeline, combat.LongRestStep())
		default:
			probs.addf("%s: unknown step (rest %q)", where, sd.Rest)
		}
	}
	if combats == 0 {
		probs.addf("timeline has no combat")
	}
	if err := probs.err(d.Name); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (d *Document) buildEncounter(where string, ed *EncounterDoc, probs *problems) combat.Encounter {
	enc := combat.Encounter{
		Name:              ed.Name,
		Role:              ed.Role,
		PartySurprised:    ed.PartySurprised,
		MonstersSurprised: ed.MonstersSurprised,
	}
	if enc.Name == "" {
		probs.addf("%s: encounter name is required", where)
	}
	if len(ed.Monsters) == 0 {
		probs.addf("%s: encounter %q has no monsters", where, ed.Name)
	}
	for j, md := range ed.Monsters {
		mwhere := fmt.Sprintf("%s.monsters[%d]", where, j)
		cd := md.CreatureDoc
		base := md.Use
		if md.Use != "" {
			entry, ok := d.Bestiary[md.Use]
			if !ok {
				probs.addf("%s: unknown bestiary entry %q", mwhere, md.Use)
				continue
			}
			cd = entry
		} else {
			base = slug(cd.Name)
		}
		count := max(1, md.Count)
		for k := range count {
			c := cd.build(mwhere, probs)
			switch {
			case cd.ID != "" && count == 1:
				c.ID = cd.ID
			case count == 1:
				c.ID = base
			default:
				c.ID = fmt.Sprintf("%s_%d", base, k+1)
			}
			enc.Monsters = append(enc.Monsters, c)
		}
	}
	return enc
}

func (cd CreatureDoc) build(where string, probs *problems) combat.Creature {
	c := combat.Creature{
		ID:              cd.ID,
		Name:            cd.Name,
		HP:              cd.HP,
		AC:              cd.AC,
		InitiativeBonus: cd.Initiative,
		HitDieBonus:     cd.HitDieBonus,
	}
	if cd.Name == "" {
		probs.addf("%s: name is required", where)
	}
	if cd.HP <= 0 {
		probs.addf("%s: hp must be positive", where)
	}
	for name, bonus := range cd.Saves {
		ab, err := combat.ParseAbility(name)
		if err != nil {
			probs.addf("%s: unknown save %q", where, name)
			continue
		}
		c.Saves[ab] = bonus
	}
	for i, ad := range cd.Actions {
		if a, ok := ad.build(fmt.Sprintf("%s.actions[%d]", where, i), probs); ok {
			c.Actions = append(c.Actions, a)
		}
	}
	for i, rd := range cd.Reactions {
		t, err := combat.ParseTrigger(rd.Trigger)
		if err != nil {
			probs.addf("%s.reactions[%d]: unknown trigger %q", where, i, rd.Trigger)
			continue
		}
		c.Reactions = append(c.Reactions, combat.Reaction{
			Name:          rd.Name,
			Trigger:       t,
			ACBonus:       rd.ACBonus,
			RollBonus:     rd.RollBonus,
			ToHit:         rd.ToHit,
			Damage:        rd.Damage,
			SpellLevel:    rd.SpellLevel,
			ClassResource: rd.ClassResource,
		})
	}
	for _, level := range sortedKeys(cd.SpellSlots) {
		c.SpellSlots = append(c.SpellSlots, combat.SpellSlot{Level: level, Count: cd.SpellSlots[level]})
	}
	for _, size := range sortedKeys(cd.HitDice) {
		c.HitDice = append(c.HitDice, combat.HitDice{Size: size, Count: cd.HitDice[size]})
	}
	for i, crd := range cd.ClassResources {
		reset, err := resource.ParseReset(crd.Reset)
		if err != nil {
			probs.addf("%s.class_resources[%d]: unknown reset %q", where, i, crd.Reset)
			continue
		}
		c.ClassResources = append(c.ClassResources, combat.ClassResource{Name: crd.Name, Max: crd.Max, Reset: reset})
	}
	for i, bd := range cd.InitialBuffs {
		c.InitialBuffs = append(c.InitialBuffs, bd.build(fmt.Sprintf("%s.initial_buffs[%d]", where, i), probs))
	}
	return c
}

func (ad ActionDoc) build(where string, probs *problems) (combat.Action, bool) {
	a := combat.Action{
		Name:          ad.Name,
		Targets:       ad.Targets,
		SpellLevel:    ad.SpellLevel,
		ClassResource: ad.ClassResource,
		Uses:          ad.Uses,
		Concentration: ad.Concentration,
	}
	if ad.Name == "" {
		probs.addf("%s: name is required", where)
	}
	switch ad.Cost {
	case "", "action":
	case "bonus_action":
		a.Cost = combat.CostBonusAction
	default:
		probs.addf("%s: unknown cost %q", where, ad.Cost)
	}
	strategy, err := combat.ParseStrategy(ad.Strategy)
	if err != nil {
		probs.addf("%s: unknown strategy %q", where, ad.Strategy)
	}
	a.Strategy = strategy

	set := 0
	if ad.Attack != nil {
		set++
		atk := combat.Attack{ToHit: ad.Attack.ToHit, Damage: ad.Attack.Damage}
		if ad.Attack.Save != nil {
			atk.Save = ad.Attack.Save.build(where, probs)
		}
		if ad.Attack.Rider != nil {
			rider := ad.Attack.Rider.build(where+".rider", probs)
			atk.Rider = &rider
		}
		a.Effect = atk
	}
	if ad.Heal != nil {
		set++
		a.Effect = combat.Heal{Amount: ad.Heal.Amount}
	}
	if ad.Buff != nil {
		set++
		a.Effect = ad.Buff.build(where, probs)
	}
	if ad.Debuff != nil {
		set++
		a.Effect = ad.Debuff.build(where, probs)
	}
	if ad.Template != "" {
		set++
		a.Effect = combat.Template{Name: ad.Template}
		if _, ok := combat.Expand(a); !ok {
			probs.addf("%s: unknown template %q (known: %s)", where, ad.Template, strings.Join(combat.TemplateNames(), ", "))
			return a, false
		}
	}
	if set != 1 {
		probs.addf("%s: action %q must set exactly one of attack, heal, buff, debuff, template", where, ad.Name)
		return a, false
	}
	return a, true
}

func (sd *SaveDoc) build(where string, probs *problems) *combat.Save {
	ab, err := combat.ParseAbility(sd.Ability)
	if err != nil {
		probs.addf("%s: unknown save ability %q", where, sd.Ability)
	}
	return &combat.Save{Ability: ab, DC: sd.DC, Half: sd.Half}
}

func (md ModifierDoc) build(where string, probs *problems) combat.Modifier {
	cond, err := combat.ParseCondition(md.Condition)
	if err != nil {
		probs.addf("%s: unknown condition %q", where, md.Condition)
	}
	return combat.Modifier{
		ToHit:         md.ToHit,
		Damage:        md.Damage,
		AC:            md.AC,
		Save:          md.Save,
		Vulnerable:    md.Vulnerable,
		PerTurnDamage: md.PerTurnDamage,
		PerTurnHeal:   md.PerTurnHeal,
		Condition:     cond,
	}
}

func (bd BuffDoc) build(where string, probs *problems) combat.Buff {
	if bd.Name == "" {
		probs.addf("%s: buff name is required", where)
	}
	return combat.Buff{Name: bd.Name, Duration: bd.Duration, Modifier: bd.Modifier.build(where, probs)}
}

func (dd DebuffDoc) build(where string, probs *problems) combat.Debuff {
	if dd.Name == "" {
		probs.addf("%s: debuff name is required", where)
	}
	out := combat.Debuff{
		Name:       dd.Name,
		Duration:   dd.Duration,
		RepeatSave: dd.RepeatSave,
		Modifier:   dd.Modifier.build(where, probs),
	}
	if dd.Save != nil {
		out.Save = dd.Save.build(where, probs)
	}
	return out
}

// Counts maps a spell level or hit die size to a count. A YAML sequence is
// read positionally from 1, so [4, 2] is four first-level slots and two
// second-level ones.
type Counts map[int]int

func (c *Counts) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.SequenceNode {
		var xs []int
		if err := node.Decode(&xs); err != nil {
			return err
		}
		*c = make(Counts, len(xs))
		for i, x := range xs {
			(*c)[i+1] = x
		}
		return nil
	}
	var m map[int]int
	if err := node.Decode(&m); err != nil {
		return err
	}
	*c = m
	return nil
}

func sortedKeys(m Counts) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func slug(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}
