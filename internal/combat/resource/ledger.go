// Package resource tracks per-combatant consumables with explicit reset rules.
package resource

import (
	"fmt"
	"slices"
	"strconv"

	apperrors "github.com/louisbranch/skirmish/internal/platform/errors"
)

// Reset names the boundary that replenishes a resource.
type Reset int

const (
	ResetTurn Reset = iota
	ResetRound
	ResetShortRest
	ResetLongRest
	ResetEncounter
	// ResetNever marks resources that only an explicit Restore refills.
	ResetNever
)

var resetNames = map[Reset]string{
	ResetTurn:      "turn",
	ResetRound:     "round",
	ResetShortRest: "short_rest",
	ResetLongRest:  "long_rest",
	ResetEncounter: "encounter",
	ResetNever:     "never",
}

// String returns the snake_case rule name.
func (r Reset) String() string {
	if name, ok := resetNames[r]; ok {
		return name
	}
	return "reset(" + strconv.Itoa(int(r)) + ")"
}

// ParseReset maps a rule name back to its value.
func ParseReset(name string) (Reset, error) {
	for rule, n := range resetNames {
		if n == name {
			return rule, nil
		}
	}
	return 0, apperrors.WithMetadata(apperrors.CodeValidationFailed, "unknown reset rule",
		map[string]string{"Reason": fmt.Sprintf("unknown reset rule %q", name)})
}

// Kind classifies a ledger key.
type Kind int

const (
	KindAction Kind = iota
	KindBonusAction
	KindReaction
	KindSpellSlot
	KindHitDie
	KindClass
	KindUsage
)

// Key identifies one resource. Level carries the spell-slot level or the
// hit-die size; Name carries class resource and per-action usage names.
type Key struct {
	Kind  Kind
	Level int
	Name  string
}

var (
	Action      = Key{Kind: KindAction}
	BonusAction = Key{Kind: KindBonusAction}
	Reaction    = Key{Kind: KindReaction}
)

// SpellSlot returns the key for spell slots of the given level.
func SpellSlot(level int) Key { return Key{Kind: KindSpellSlot, Level: level} }

// HitDie returns the key for hit dice of the given size.
func HitDie(size int) Key { return Key{Kind: KindHitDie, Level: size} }

// Class returns the key for a named class resource.
func Class(name string) Key { return Key{Kind: KindClass, Name: name} }

// Usage returns the per-action usage counter key.
func Usage(action string) Key { return Key{Kind: KindUsage, Name: action} }

// String renders the key for reports, for example "spell_slot:3".
func (k Key) String() string {
	switch k.Kind {
	case KindAction:
		return "action"
	case KindBonusAction:
		return "bonus_action"
	case KindReaction:
		return "reaction"
	case KindSpellSlot:
		return "spell_slot:" + strconv.Itoa(k.Level)
	case KindHitDie:
		return "hit_die:d" + strconv.Itoa(k.Level)
	case KindClass:
		return "class:" + k.Name
	default:
		return "usage:" + k.Name
	}
}

func compareKeys(a, b Key) int {
	if a.Kind != b.Kind {
		return int(a.Kind) - int(b.Kind)
	}
	if a.Level != b.Level {
		return a.Level - b.Level
	}
	switch {
	case a.Name < b.Name:
		return -1
	case a.Name > b.Name:
		return 1
	}
	return 0
}

// Entry is one tracked resource. Current never exceeds Max.
type Entry struct {
	Current int
	Max     int
	Reset   Reset
}

// Ledger is a consumable map keyed by resource identity. The zero value is
// ready to use. A Ledger is owned by a single combatant and is not safe for
// concurrent use.
type Ledger struct {
	entries map[Key]*Entry
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{entries: make(map[Key]*Entry)}
}

// Register adds or replaces a resource at full charge.
func (l *Ledger) Register(key Key, maxValue int, reset Reset) {
	if l.entries == nil {
		l.entries = make(map[Key]*Entry)
	}
	maxValue = max(0, maxValue)
	l.entries[key] = &Entry{Current: maxValue, Max: maxValue, Reset: reset}
}

// Has reports whether at least amount of key is available.
func (l *Ledger) Has(key Key, amount int) bool {
	e, ok := l.entries[key]
	return ok && e.Current >= amount
}

// Consume spends amount of key. It fails without changing the ledger when the
// resource is unknown or short.
func (l *Ledger) Consume(key Key, amount int) error {
	if amount < 0 {
		return apperrors.WithMetadata(apperrors.CodeValidationFailed, "negative consume",
			map[string]string{"Reason": "amount must not be negative"})
	}
	e, ok := l.entries[key]
	if !ok || e.Current < amount {
		have := 0
		if ok {
			have = e.Current
		}
		return apperrors.WithMetadata(apperrors.CodeResourceExhausted, "resource exhausted", map[string]string{
			"Resource":  key.String(),
			"Requested": strconv.Itoa(amount),
			"Available": strconv.Itoa(have),
		})
	}
	e.Current -= amount
	return nil
}

// Restore adds amount back to key, clamped to its maximum. It returns the
// amount actually restored.
func (l *Ledger) Restore(key Key, amount int) int {
	e, ok := l.entries[key]
	if !ok || amount <= 0 {
		return 0
	}
	before := e.Current
	e.Current = min(e.Max, e.Current+amount)
	return e.Current - before
}

// ResetByType refills every entry whose rule is exactly rule and returns how
// many entries changed. Calling it twice is the same as calling it once.
func (l *Ledger) ResetByType(rule Reset) int {
	changed := 0
	for _, e := range l.entries {
		if e.Reset == rule && e.Current != e.Max {
			e.Current = e.Max
			changed++
		}
	}
	return changed
}

// Current returns the available amount of key, or 0 when untracked.
func (l *Ledger) Current(key Key) int {
	if e, ok := l.entries[key]; ok {
		return e.Current
	}
	return 0
}

// Max returns the maximum of key, or 0 when untracked.
func (l *Ledger) Max(key Key) int {
	if e, ok := l.entries[key]; ok {
		return e.Max
	}
	return 0
}

// Entry returns a copy of the entry for key.
func (l *Ledger) Entry(key Key) (Entry, bool) {
	e, ok := l.entries[key]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Tracked reports whether key is registered.
func (l *Ledger) Tracked(key Key) bool {
	_, ok := l.entries[key]
	return ok
}

// Keys returns every registered key in a stable order.
func (l *Ledger) Keys() []Key {
	keys := make([]Key, 0, len(l.entries))
	for k := range l.entries {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeys)
	return keys
}

// Clone returns an independent copy.
func (l *Ledger) Clone() *Ledger {
	out := &Ledger{entries: make(map[Key]*Entry, len(l.entries))}
	for k, e := range l.entries {
		cp := *e
		out.entries[k] = &cp
	}
	return out
}

// Validate reports the first entry whose current value is outside 0..max.
func (l *Ledger) Validate() error {
	for _, k := range l.Keys() {
		e := l.entries[k]
		if e.Current > e.Max || e.Current < 0 {
			return apperrors.WithMetadata(apperrors.CodeUnexpectedState, "ledger entry out of range", map[string]string{
				"Resource": k.String(),
				"Current":  strconv.Itoa(e.Current),
				"Max":      strconv.Itoa(e.Max),
			})
		}
	}
	return nil
}

// Percent returns the share of remaining charges across entries accepted by
// filter, in 0..100. It returns 100 when nothing matches or every matching
// maximum is zero.
func (l *Ledger) Percent(filter func(Key, Entry) bool) float64 {
	current, total := 0, 0
	for k, e := range l.entries {
		if filter != nil && !filter(k, *e) {
			continue
		}
		current += e.Current
		total += e.Max
	}
	if total == 0 {
		return 100
	}
	return 100 * float64(current) / float64(total)
}

// Spendable accepts the resources that persist across encounters: spell
// slots, hit dice and class resources.
func Spendable(k Key, _ Entry) bool {
	switch k.Kind {
	case KindSpellSlot, KindHitDie, KindClass:
		return true
	}
	return false
}
