package scenario

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/Shopify/go-lua"
	"github.com/louisbranch/skirmish/internal/combat"
	apperrors "github.com/louisbranch/skirmish/internal/platform/errors"
	"gopkg.in/yaml.v3"
)

const documentTypeName = "scenario"

// LoadLua runs the script at path and builds the scenario it returns.
//
//	local s = Scenario.new("road ambush")
//	s:creature("goblin", { name = "Goblin", hp = 7, ac = 15,
//	  actions = { Attack{ name = "Scimitar", to_hit = 4, damage = "1d6+2" } } })
//	s:party({ name = "Fighter", hp = 30, ac = 16, hit_dice = { [10] = 3 },
//	  actions = { Attack{ name = "Longsword", to_hit = 5, damage = "1d8+3" },
//	              Template{ name = "Second Wind", template = "second_wind" } } })
//	s:combat({ name = "Goblins", monsters = { { use = "goblin", count = 3 } } })
//	s:short_rest()
//	return s
func LoadLua(path string) (*combat.Scenario, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	doc, err := runLua(func(state *lua.State) error { return lua.LoadFile(state, path, "") })
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if strings.TrimSpace(doc.Name) == "" {
		doc.Name = baseName(path)
	}
	s, err := doc.Build()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// ParseLua runs a script held in memory and returns its document. name is
// used when the script does not name its scenario.
func ParseLua(name, source string) (*Document, error) {
	doc, err := runLua(func(state *lua.State) error { return lua.LoadString(state, source) })
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(doc.Name) == "" {
		doc.Name = name
	}
	return doc, nil
}

func runLua(load func(*lua.State) error) (*Document, error) {
	state := lua.NewState()
	lua.OpenLibraries(state)
	registerLuaTypes(state)

	if err := load(state); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeSerializationError, "load lua", err)
	}
	if err := state.ProtectedCall(0, 1, 0); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeSerializationError, "run lua", err)
	}
	if state.TypeOf(-1) != lua.TypeUserData {
		state.Pop(1)
		return nil, apperrors.New(apperrors.CodeSerializationError, "scenario script must return Scenario")
	}
	ud := state.ToUserData(-1)
	state.Pop(1)
	doc, ok := ud.(*Document)
	if !ok || doc == nil {
		return nil, apperrors.New(apperrors.CodeSerializationError, "scenario script returned invalid Scenario")
	}
	return doc, nil
}

func registerLuaTypes(state *lua.State) {
	lua.NewMetaTable(state, documentTypeName)
	state.NewTable()
	lua.SetFunctions(state, documentMethods, 0)
	state.SetField(-2, "__index")
	state.Pop(1)

	state.NewTable()
	lua.SetFunctions(state, []lua.RegistryFunction{{Name: "new", Function: scenarioNew}}, 0)
	state.SetGlobal("Scenario")

	for _, h := range actionHelpers {
		state.PushGoFunction(h.Function)
		state.SetGlobal(h.Name)
	}
}

func scenarioNew(state *lua.State) int {
	doc := &Document{Name: lua.OptString(state, 1, "")}
	state.PushUserData(doc)
	lua.SetMetaTableNamed(state, documentTypeName)
	return 1
}

var documentMethods = []lua.RegistryFunction{
	{Name: "creature", Function: scenarioCreature},
	{Name: "party", Function: scenarioParty},
	{Name: "combat", Function: scenarioCombat},
	{Name: "short_rest", Function: scenarioShortRest},
	{Name: "long_rest", Function: scenarioLongRest},
}

// scenarioCreature registers a bestiary entry: s:creature(key, table).
func scenarioCreature(state *lua.State) int {
	doc := checkDocument(state)
	key := lua.CheckString(state, 2)
	lua.CheckType(state, 3, lua.TypeTable)
	var cd CreatureDoc
	decodeArg(state, 3, &cd)
	if doc.Bestiary == nil {
		doc.Bestiary = make(map[string]CreatureDoc)
	}
	doc.Bestiary[key] = cd
	return 0
}

// scenarioParty adds one or more party members: s:party(a, b, ...).
func scenarioParty(state *lua.State) int {
	doc := checkDocument(state)
	for i := 2; i <= state.Top(); i++ {
		lua.CheckType(state, i, lua.TypeTable)
		var cd CreatureDoc
		decodeArg(state, i, &cd)
		doc.Party = append(doc.Party, cd)
	}
	return 0
}

func scenarioCombat(state *lua.State) int {
	doc := checkDocument(state)
	lua.CheckType(state, 2, lua.TypeTable)
	var ed EncounterDoc
	decodeArg(state, 2, &ed)
	doc.Timeline = append(doc.Timeline, StepDoc{Combat: &ed})
	return 0
}

func scenarioShortRest(state *lua.State) int {
	doc := checkDocument(state)
	doc.Timeline = append(doc.Timeline, StepDoc{Rest: "short"})
	return 0
}

func scenarioLongRest(state *lua.State) int {
	doc := checkDocument(state)
	doc.Timeline = append(doc.Timeline, StepDoc{Rest: "long"})
	return 0
}

// actionKeys are the fields shared by every action helper. Everything else
// in a helper's table belongs to its effect.
var actionKeys = map[string]bool{
	"name": true, "cost": true, "targets": true, "strategy": true,
	"spell_level": true, "class_resource": true, "uses": true, "concentration": true,
}

var actionHelpers = []lua.RegistryFunction{
	{Name: "Attack", Function: effectHelper("attack")},
	{Name: "Heal", Function: effectHelper("heal")},
	{Name: "Buff", Function: effectHelper("buff")},
	{Name: "Debuff", Function: effectHelper("debuff")},
	{Name: "Template", Function: templateHelper},
	{Name: "Reaction", Function: reactionHelper},
}

// effectHelper splits a helper's table into action fields and the effect
// body. Buffs and debuffs take the action name unless they set their own.
func effectHelper(kind string) lua.Function {
	return func(state *lua.State) int {
		lua.CheckType(state, 1, lua.TypeTable)
		action := map[any]any{}
		body := map[any]any{}
		for k, v := range tableToMap(state, 1) {
			if name, ok := k.(string); ok && actionKeys[name] {
				action[k] = v
				continue
			}
			body[k] = v
		}
		if kind == "buff" || kind == "debuff" {
			if _, ok := body["name"]; !ok {
				body["name"] = action["name"]
			}
		}
		action[kind] = body
		return pushAction(state, action)
	}
}

// templateHelper accepts Template("bless") or Template{ name = ..., template = ... }.
func templateHelper(state *lua.State) int {
	if state.TypeOf(1) == lua.TypeString {
		id, _ := state.ToString(1)
		return pushAction(state, map[any]any{"name": id, "template": id})
	}
	lua.CheckType(state, 1, lua.TypeTable)
	action := tableToMap(state, 1)
	if _, ok := action["template"]; !ok {
		action["template"] = action["name"]
	}
	return pushAction(state, action)
}

// reactionHelper builds a reaction: Reaction{ name = "Shield", trigger = "on_attacked", ac_bonus = 5 }.
func reactionHelper(state *lua.State) int {
	lua.CheckType(state, 1, lua.TypeTable)
	rd := &ReactionDoc{}
	decodeArg(state, 1, rd)
	state.PushUserData(rd)
	return 1
}

func pushAction(state *lua.State, m map[any]any) int {
	ad := &ActionDoc{}
	if err := decodeValue(m, ad); err != nil {
		lua.Errorf(state, "%s", err.Error())
		return 0
	}
	state.PushUserData(ad)
	return 1
}

func checkDocument(state *lua.State) *Document {
	ud := lua.CheckUserData(state, 1, documentTypeName)
	if doc, ok := ud.(*Document); ok && doc != nil {
		return doc
	}
	lua.ArgumentError(state, 1, "scenario expected")
	return nil
}

// decodeArg converts the table at index into out or raises a Lua error.
func decodeArg(state *lua.State, index int, out any) {
	if err := decodeValue(tableToMap(state, index), out); err != nil {
		lua.ArgumentError(state, index, err.Error())
	}
}

// decodeValue moves a converted Lua value into a document type through
// YAML so both formats share one set of field names and scalar parsers.
func decodeValue(in any, out any) error {
	data, err := yaml.Marshal(in)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, out)
}

func tableToMap(state *lua.State, index int) map[any]any {
	output := map[any]any{}
	if state.TypeOf(index) != lua.TypeTable {
		return output
	}
	index = state.AbsIndex(index)
	state.PushNil()
	for state.Next(index) {
		switch state.TypeOf(-2) {
		case lua.TypeString:
			key, _ := state.ToString(-2)
			output[key] = luaToGo(state, -1)
		case lua.TypeNumber:
			key, _ := state.ToNumber(-2)
			output[normalizeNumber(key)] = luaToGo(state, -1)
		}
		state.Pop(1)
	}
	return output
}

func luaToGo(state *lua.State, index int) any {
	switch state.TypeOf(index) {
	case lua.TypeString:
		value, _ := state.ToString(index)
		return value
	case lua.TypeNumber:
		value, _ := state.ToNumber(index)
		return normalizeNumber(value)
	case lua.TypeBoolean:
		return state.ToBoolean(index)
	case lua.TypeTable:
		return tableToGo(state, index)
	case lua.TypeUserData:
		return state.ToUserData(index)
	default:
		return nil
	}
}

// tableToGo returns a slice for sequences and a map otherwise.
func tableToGo(state *lua.State, index int) any {
	index = state.AbsIndex(index)
	isArray := true
	maxIndex := 0
	count := 0
	state.PushNil()
	for state.Next(index) {
		if isArray {
			if state.TypeOf(-2) != lua.TypeNumber {
				isArray = false
			} else if idx, ok := state.ToInteger(-2); ok && idx > 0 {
				count++
				maxIndex = max(maxIndex, idx)
			} else {
				isArray = false
			}
		}
		state.Pop(1)
	}

	if isArray && count > 0 && maxIndex == count {
		result := make([]any, 0, maxIndex)
		for i := 1; i <= maxIndex; i++ {
			state.RawGetInt(index, i)
			result = append(result, luaToGo(state, -1))
			state.Pop(1)
		}
		return result
	}
	return tableToMap(state, index)
}

func normalizeNumber(value float64) any {
	if math.Mod(value, 1) == 0 {
		return int(value)
	}
	return value
}

func baseName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}
