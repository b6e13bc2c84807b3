package resource

import (
	"errors"
	"testing"

	apperrors "github.com/louisbranch/skirmish/internal/platform/errors"
	"pgregory.net/rapid"
)

func TestConsumeAndHas(t *testing.T) {
	l := New()
	l.Register(SpellSlot(1), 2, ResetLongRest)

	if !l.Has(SpellSlot(1), 2) {
		t.Fatal("expected two level-1 slots")
	}
	if err := l.Consume(SpellSlot(1), 1); err != nil {
		t.Fatalf("Consume() error = %v", err)
	}
	if got := l.Current(SpellSlot(1)); got != 1 {
		t.Fatalf("Current() = %d, want 1", got)
	}

	err := l.Consume(SpellSlot(1), 2)
	if !errors.Is(err, apperrors.New(apperrors.CodeResourceExhausted, "")) {
		t.Fatalf("Consume() error = %v, want resource exhausted", err)
	}
	if got := l.Current(SpellSlot(1)); got != 1 {
		t.Fatalf("failed consume changed Current to %d", got)
	}
	if md := apperrors.MetadataOf(err); md["Resource"] != "spell_slot:1" || md["Available"] != "1" {
		t.Fatalf("metadata = %v", md)
	}

	if err := l.Consume(SpellSlot(9), 1); err == nil {
		t.Fatal("expected error for untracked key")
	}
}

func TestResetByTypeExactMatch(t *testing.T) {
	l := New()
	l.Register(Action, 1, ResetTurn)
	l.Register(Class("second_wind"), 1, ResetShortRest)
	l.Register(SpellSlot(2), 1, ResetLongRest)
	for _, k := range l.Keys() {
		if err := l.Consume(k, 1); err != nil {
			t.Fatalf("Consume(%v) error = %v", k, err)
		}
	}

	if got := l.ResetByType(ResetShortRest); got != 1 {
		t.Fatalf("ResetByType(short) changed %d, want 1", got)
	}
	if got := l.ResetByType(ResetShortRest); got != 0 {
		t.Fatalf("second ResetByType(short) changed %d, want 0", got)
	}
	if l.Current(Class("second_wind")) != 1 {
		t.Fatal("expected short rest resource restored")
	}
	if l.Current(SpellSlot(2)) != 0 {
		t.Fatal("short rest must not restore long rest slots")
	}
	if l.Current(Action) != 0 {
		t.Fatal("short rest must not restore turn resources")
	}
}

func TestRestoreClamps(t *testing.T) {
	l := New()
	l.Register(HitDie(8), 3, ResetNever)
	_ = l.Consume(HitDie(8), 3)
	if got := l.Restore(HitDie(8), 10); got != 3 {
		t.Fatalf("Restore() = %d, want 3", got)
	}
	if got := l.Current(HitDie(8)); got != 3 {
		t.Fatalf("Current() = %d, want 3", got)
	}
	if got := l.Restore(Usage("missing"), 1); got != 0 {
		t.Fatalf("Restore() on untracked = %d, want 0", got)
	}
}

func TestKeysSortedAndClone(t *testing.T) {
	l := New()
	l.Register(Class("ki"), 2, ResetShortRest)
	l.Register(SpellSlot(3), 1, ResetLongRest)
	l.Register(Action, 1, ResetTurn)
	l.Register(SpellSlot(1), 4, ResetLongRest)

	keys := l.Keys()
	want := []Key{Action, SpellSlot(1), SpellSlot(3), Class("ki")}
	if len(keys) != len(want) {
		t.Fatalf("Keys() = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("Keys()[%d] = %v, want %v", i, keys[i], want[i])
		}
	}

	cp := l.Clone()
	_ = cp.Consume(SpellSlot(1), 4)
	if l.Current(SpellSlot(1)) != 4 {
		t.Fatal("clone shares state with original")
	}
}

func TestPercent(t *testing.T) {
	l := New()
	l.Register(Action, 1, ResetTurn)
	l.Register(SpellSlot(1), 4, ResetLongRest)
	_ = l.Consume(SpellSlot(1), 3)
	_ = l.Consume(Action, 1)

	if got := l.Percent(Spendable); got != 25 {
		t.Fatalf("Percent(Spendable) = %v, want 25", got)
	}
	if got := New().Percent(nil); got != 100 {
		t.Fatalf("Percent on empty = %v, want 100", got)
	}
}

func TestParseReset(t *testing.T) {
	for rule, name := range resetNames {
		got, err := ParseReset(name)
		if err != nil || got != rule {
			t.Fatalf("ParseReset(%q) = %v, %v", name, got, err)
		}
	}
	if _, err := ParseReset("weekly"); err == nil {
		t.Fatal("expected error for unknown rule")
	}
}

func TestLedgerConservation(t *testing.T) {
	keys := []Key{Action, BonusAction, Reaction, SpellSlot(1), SpellSlot(2), HitDie(10), Class("rage"), Usage("breath")}
	rules := []Reset{ResetTurn, ResetRound, ResetShortRest, ResetLongRest, ResetEncounter}

	rapid.Check(t, func(t *rapid.T) {
		l := New()
		for _, k := range keys {
			l.Register(k, rapid.IntRange(0, 5).Draw(t, "max"), rapid.SampledFrom(rules).Draw(t, "rule"))
		}

		steps := rapid.IntRange(1, 100).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			k := rapid.SampledFrom(keys).Draw(t, "key")
			before := l.Current(k)
			switch rapid.IntRange(0, 2).Draw(t, "op") {
			case 0:
				amount := rapid.IntRange(0, 6).Draw(t, "amount")
				had := l.Has(k, amount)
				err := l.Consume(k, amount)
				if had != (err == nil) {
					t.Fatalf("Has(%v, %d) = %v but Consume error = %v", k, amount, had, err)
				}
				if err != nil && l.Current(k) != before {
					t.Fatalf("failed consume changed %v from %d to %d", k, before, l.Current(k))
				}
			case 1:
				l.ResetByType(rapid.SampledFrom(rules).Draw(t, "reset"))
			case 2:
				l.Restore(k, rapid.IntRange(0, 6).Draw(t, "restore"))
			}
			if err := l.Validate(); err != nil {
				t.Fatalf("step %d: %v", i, err)
			}
		}
	})
}
