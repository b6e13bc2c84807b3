package scenario

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/louisbranch/skirmish/internal/combat"
	apperrors "github.com/louisbranch/skirmish/internal/platform/errors"
)

func writeScenarioFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

const ambushYAML = `
name: road ambush
bestiary:
  goblin:
    name: Goblin
    hp: 7
    ac: 15
    initiative: 2
    actions:
      - name: Scimitar
        attack: {to_hit: 4, damage: 1d6+2}
party:
  - name: Fighter
    hp: 30
    ac: 16
    saves: {str: 5, con: 4}
    hit_dice: {10: 3}
    hit_die_bonus: 2
    actions:
      - name: Longsword
        attack: {to_hit: 5, damage: 1d8+3}
      - name: Second Wind
        template: second_wind
  - id: cleric
    name: Cleric
    hp: 24
    ac: 16
    spell_slots: [3, 2]
    reactions:
      - name: Shield
        trigger: on_attacked
        ac_bonus: 5
        spell_level: 1
    actions:
      - name: Sacred Flame
        attack:
          damage: 1d8
          save: {ability: dex, dc: 13}
      - name: Hold
        spell_level: 2
        concentration: true
        debuff:
          name: held
          duration: 10
          repeat_save: true
          save: {ability: wis, dc: 13}
          modifier: {condition: paralyzed}
timeline:
  - combat:
      name: Goblins
      role: skirmish
      monsters_surprised: true
      monsters:
        - {use: goblin, count: 3}
  - rest: short
  - combat:
      name: Captain
      monsters:
        - name: Hobgoblin Captain
          hp: 39
          ac: 17
          actions:
            - name: Greatsword
              attack: {to_hit: 6, damage: 2d6+4}
  - rest: long
`

func TestLoadYAML(t *testing.T) {
	s, err := Load(writeScenarioFixture(t, "ambush.yaml", ambushYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Name != "road ambush" || len(s.Party) != 2 || len(s.Timeline) != 4 {
		t.Fatalf("scenario = %q, %d party, %d steps", s.Name, len(s.Party), len(s.Timeline))
	}
	fighter := s.Party[0]
	if fighter.ID != "fighter" || fighter.Saves[combat.Con] != 4 || fighter.HitDice[0] != (combat.HitDice{Size: 10, Count: 3}) {
		t.Fatalf("fighter = %+v", fighter)
	}
	cleric := s.Party[1]
	if len(cleric.SpellSlots) != 2 || cleric.SpellSlots[1] != (combat.SpellSlot{Level: 2, Count: 2}) {
		t.Fatalf("cleric slots = %+v", cleric.SpellSlots)
	}
	if cleric.Reactions[0].Trigger != combat.OnAttacked || cleric.Reactions[0].ACBonus != 5 {
		t.Fatalf("cleric reaction = %+v", cleric.Reactions[0])
	}
	hold, ok := cleric.Actions[1].Effect.(combat.Debuff)
	if !ok || hold.Modifier.Condition != combat.Paralyzed || !hold.RepeatSave || hold.Save.Ability != combat.Wis {
		t.Fatalf("hold = %+v", cleric.Actions[1].Effect)
	}
	goblins := s.Timeline[0].Encounter
	if len(goblins.Monsters) != 3 || goblins.Monsters[2].ID != "goblin_3" || !goblins.MonstersSurprised {
		t.Fatalf("goblins = %+v", goblins)
	}
	if s.Timeline[1].Kind != combat.StepShortRest || s.Timeline[3].Kind != combat.StepLongRest {
		t.Fatalf("rest steps = %v, %v", s.Timeline[1].Kind, s.Timeline[3].Kind)
	}
	if got := s.Timeline[2].Encounter.Monsters[0].ID; got != "hobgoblin_captain" {
		t.Fatalf("captain id = %q", got)
	}
}

func TestLoadYAMLCollectsProblems(t *testing.T) {
	content := `
name: broken
party:
  - name: Fighter
    hp: 0
    actions:
      - name: Smash
      - name: Wish
        template: wish
timeline:
  - rest: nap
  - combat:
      name: Nobody
      monsters:
        - use: dragon
`
	_, err := LoadYAML(writeScenarioFixture(t, "broken.yaml", content))
	if apperrors.CodeOf(err) != apperrors.CodeValidationFailed {
		t.Fatalf("err = %v, want VALIDATION_FAILED", err)
	}
	reason := apperrors.MetadataOf(err)["Reason"]
	for _, want := range []string{"hp must be positive", "exactly one of", "unknown template", "rest \"nap\"", "unknown bestiary entry"} {
		if !strings.Contains(reason, want) {
			t.Fatalf("reason %q missing %q", reason, want)
		}
	}
}

func TestLoadYAMLRejectsUnknownFields(t *testing.T) {
	_, err := LoadYAML(writeScenarioFixture(t, "typo.yaml", "name: x\nparty:\n  - name: A\n    hitpoints: 3\n"))
	if apperrors.CodeOf(err) != apperrors.CodeSerializationError {
		t.Fatalf("err = %v, want SERIALIZATION_ERROR", err)
	}
}

func TestLoadYAMLBadFormula(t *testing.T) {
	content := strings.Replace(ambushYAML, "1d8+3", "1d+x", 1)
	_, err := LoadYAML(writeScenarioFixture(t, "formula.yaml", content))
	if !errors.Is(err, apperrors.New(apperrors.CodeDiceInvalidFormula, "")) {
		t.Fatalf("err = %v, want DICE_INVALID_FORMULA in chain", err)
	}
}

const ambushLua = `
local s = Scenario.new("lua ambush")

s:creature("goblin", {
  name = "Goblin", hp = 7, ac = 15, initiative = 2,
  actions = { Attack{ name = "Scimitar", to_hit = 4, damage = "1d6+2" } },
})

s:party(
  {
    name = "Fighter", hp = 30, ac = 16, hit_dice = { [10] = 3 },
    saves = { str = 5, con = 4 },
    actions = {
      Attack{ name = "Longsword", to_hit = 5, damage = "1d8+3" },
      Template{ name = "Second Wind", template = "second_wind" },
    },
  },
  {
    id = "cleric", name = "Cleric", hp = 24, ac = 16, spell_slots = { 3 },
    actions = {
      Template("bless"),
      Heal{ name = "Cure Wounds", spell_level = 1, strategy = "lowest_hp", amount = "1d8+3" },
      Buff{ name = "Shield of Faith", spell_level = 1, concentration = true, modifier = { ac = 2 } },
      Debuff{ name = "Bane", spell_level = 1, targets = 3, save = { ability = "cha", dc = 13 },
              modifier = { to_hit = "-1d4" } },
    },
    reactions = { Reaction{ name = "Riposte", trigger = "on_damaged", to_hit = 4, damage = 5 } },
  }
)

s:combat({ name = "Goblins", role = "skirmish", monsters = { { use = "goblin", count = 2 } } })
s:short_rest()
s:combat({ name = "Reinforcements", monsters = { { use = "goblin" } } })
s:long_rest()
return s
`

func TestLoadLua(t *testing.T) {
	s, err := Load(writeScenarioFixture(t, "ambush.lua", ambushLua))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Name != "lua ambush" || len(s.Party) != 2 || len(s.Timeline) != 4 {
		t.Fatalf("scenario = %q, %d party, %d steps", s.Name, len(s.Party), len(s.Timeline))
	}
	fighter := s.Party[0]
	if fighter.ID != "fighter" || fighter.HitDice[0] != (combat.HitDice{Size: 10, Count: 3}) {
		t.Fatalf("fighter = %+v", fighter)
	}
	if _, ok := fighter.Actions[1].Effect.(combat.Template); !ok {
		t.Fatalf("second wind effect = %T", fighter.Actions[1].Effect)
	}
	cleric := s.Party[1]
	if len(cleric.Actions) != 4 {
		t.Fatalf("cleric actions = %d", len(cleric.Actions))
	}
	if tmpl, ok := cleric.Actions[0].Effect.(combat.Template); !ok || tmpl.Name != "bless" {
		t.Fatalf("bless = %+v", cleric.Actions[0].Effect)
	}
	if cleric.Actions[1].Strategy != combat.LowestHP || cleric.Actions[1].SpellLevel != 1 {
		t.Fatalf("cure = %+v", cleric.Actions[1])
	}
	buff, ok := cleric.Actions[2].Effect.(combat.Buff)
	if !ok || buff.Name != "Shield of Faith" || buff.Modifier.AC != 2 || !cleric.Actions[2].Concentration {
		t.Fatalf("shield of faith = %+v", cleric.Actions[2])
	}
	bane, ok := cleric.Actions[3].Effect.(combat.Debuff)
	if !ok || bane.Save == nil || bane.Save.DC != 13 || cleric.Actions[3].Targets != 3 {
		t.Fatalf("bane = %+v", cleric.Actions[3])
	}
	if cleric.Reactions[0].Trigger != combat.OnDamaged || cleric.Reactions[0].Damage.Average() != 5 {
		t.Fatalf("riposte = %+v", cleric.Reactions[0])
	}
	if got := s.Timeline[2].Encounter.Monsters[0].ID; got != "goblin" {
		t.Fatalf("single goblin id = %q, want goblin", got)
	}
}

func TestParseLuaErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{name: "syntax", source: "local s = "},
		{name: "no return", source: "local s = Scenario.new('x')"},
		{name: "bad field", source: "local s = Scenario.new('x')\ns:party({ name = 'A', hp = 'lots' })\nreturn s"},
		{name: "runtime", source: "error('boom')"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLua(tt.name, tt.source)
			if apperrors.CodeOf(err) != apperrors.CodeSerializationError {
				t.Fatalf("err = %v, want SERIALIZATION_ERROR", err)
			}
		})
	}
}

func TestParseLuaDefaultsName(t *testing.T) {
	doc, err := ParseLua("fallback", "return Scenario.new()")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.Name != "fallback" {
		t.Fatalf("name = %q, want fallback", doc.Name)
	}
}

func TestLoadUnsupportedExtension(t *testing.T) {
	_, err := Load("scenario.json")
	if apperrors.CodeOf(err) != apperrors.CodeValidationFailed {
		t.Fatalf("err = %v, want VALIDATION_FAILED", err)
	}
}

func TestDocumentMarshalRoundTrip(t *testing.T) {
	doc, err := ParseYAML([]byte(ambushYAML))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	data, err := doc.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	again, err := ParseYAML(data)
	if err != nil {
		t.Fatalf("reparse: %v\n%s", err, data)
	}
	if _, err := again.Build(); err != nil {
		t.Fatalf("build reparsed: %v", err)
	}
}
