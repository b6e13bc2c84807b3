package combat

import "github.com/louisbranch/skirmish/internal/core/dice"

// templates holds the canned actions a Template effect can name.
var templates = map[string]Action{
	"bless": {
		Name:          "Bless",
		Cost:          CostAction,
		Targets:       3,
		Strategy:      HighestDPR,
		SpellLevel:    1,
		Concentration: true,
		Effect: Buff{
			Name:     "bless",
			Modifier: Modifier{ToHit: dice.MustParse("1d4"), Save: dice.MustParse("1d4")},
			Duration: 10,
		},
	},
	"bane": {
		Name:          "Bane",
		Cost:          CostAction,
		Targets:       3,
		Strategy:      HighestDPR,
		SpellLevel:    1,
		Concentration: true,
		Effect: Debuff{
			Name:     "bane",
			Modifier: Modifier{ToHit: dice.MustParse("-1d4"), Save: dice.MustParse("-1d4")},
			Duration: 10,
			Save:     &Save{Ability: Cha, DC: 13},
		},
	},
	"hunters_mark": {
		Name:          "Hunter's Mark",
		Cost:          CostBonusAction,
		Targets:       1,
		Strategy:      HighestDPR,
		SpellLevel:    1,
		Concentration: true,
		Effect: Debuff{
			Name:     "hunters_mark",
			Modifier: Modifier{Vulnerable: dice.MustParse("1d6")},
		},
	},
	"second_wind": {
		Name:          "Second Wind",
		Cost:          CostBonusAction,
		Targets:       1,
		Strategy:      Self,
		ClassResource: "second_wind",
		Effect:        Heal{Amount: dice.MustParse("1d10+1")},
	},
	"healing_word": {
		Name:       "Healing Word",
		Cost:       CostBonusAction,
		Targets:    1,
		Strategy:   LowestHP,
		SpellLevel: 1,
		Effect:     Heal{Amount: dice.MustParse("1d4+3")},
	},
	"hold_person": {
		Name:          "Hold Person",
		Cost:          CostAction,
		Targets:       1,
		Strategy:      HighestDPR,
		SpellLevel:    2,
		Concentration: true,
		Effect: Debuff{
			Name:       "hold_person",
			Modifier:   Modifier{Condition: Paralyzed},
			Duration:   10,
			Save:       &Save{Ability: Wis, DC: 13},
			RepeatSave: true,
		},
	},
	"poison_spray": {
		Name:     "Poison Spray",
		Cost:     CostAction,
		Targets:  1,
		Strategy: LowestHP,
		Effect: Attack{
			Damage: dice.MustParse("1d12"),
			Save:   &Save{Ability: Con, DC: 12},
			Rider: &Debuff{
				Name:     "poison_spray",
				Modifier: Modifier{Condition: Poisoned},
				Duration: 1,
			},
		},
	},
}

// TemplateNames lists the template table keys in a stable order.
func TemplateNames() []string {
	return []string{"bane", "bless", "healing_word", "hold_person", "hunters_mark", "poison_spray", "second_wind"}
}

// Expand replaces a Template effect with its table entry. The caller's
// action name wins when set. Non-template actions are returned unchanged.
// The second result is false for unknown template names.
func Expand(a Action) (Action, bool) {
	tmpl, ok := a.Effect.(Template)
	if !ok {
		return a, true
	}
	entry, ok := templates[tmpl.Name]
	if !ok {
		return a, false
	}
	if a.Name != "" {
		entry.Name = a.Name
	}
	if a.Uses > 0 {
		entry.Uses = a.Uses
	}
	return entry, true
}
