package dice

import (
	"errors"
	"testing"
)

func TestRollSpecs_Basic(t *testing.T) {
	tests := []struct {
		name    string
		specs   []Spec
		wantErr error
	}{
		{name: "single d6", specs: []Spec{{Sides: 6, Count: 1}}},
		{name: "2d6 + 1d8", specs: []Spec{{Sides: 6, Count: 2}, {Sides: 8, Count: 1}}},
		{name: "no dice", specs: []Spec{}, wantErr: ErrMissingDice},
		{name: "invalid sides", specs: []Spec{{Sides: 0, Count: 1}}, wantErr: ErrInvalidDiceSpec},
		{name: "invalid count", specs: []Spec{{Sides: 6, Count: 0}}, wantErr: ErrInvalidDiceSpec},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := NewRoller(42).RollSpecs(tt.specs)
			if !errors.Is(err, tt.wantErr) || (err == nil) != (tt.wantErr == nil) {
				t.Fatalf("RollSpecs() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if len(result.Rolls) != len(tt.specs) {
				t.Fatalf("RollSpecs() got %d rolls, want %d", len(result.Rolls), len(tt.specs))
			}
			sum := 0
			for i, roll := range result.Rolls {
				if len(roll.Results) != tt.specs[i].Count {
					t.Errorf("Roll[%d] got %d results, want %d", i, len(roll.Results), tt.specs[i].Count)
				}
				for _, v := range roll.Results {
					if v < 1 || v > roll.Sides {
						t.Errorf("Roll[%d] value %d out of range 1..%d", i, v, roll.Sides)
					}
				}
				sum += roll.Total
			}
			if sum != result.Total {
				t.Errorf("Total = %d, want %d", result.Total, sum)
			}
		})
	}
}

func TestRollerDeterminism(t *testing.T) {
	a := NewRoller(7)
	b := NewRoller(7)
	for i := 0; i < 200; i++ {
		if x, y := a.Die(20), b.Die(20); x != y {
			t.Fatalf("roll %d diverged: %d != %d", i, x, y)
		}
	}

	a.Seed(99)
	first := []int{a.Die(6), a.Die(6), a.Die(6)}
	a.Seed(99)
	second := []int{a.Die(6), a.Die(6), a.Die(6)}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("reseed roll %d = %d, want %d", i, second[i], first[i])
		}
	}
}

func TestRollerForceQueue(t *testing.T) {
	r := NewRoller(1)
	r.Force(20, 1, 25)
	if got := r.Forced(); got != 3 {
		t.Fatalf("Forced() = %d, want 3", got)
	}

	// Damage dice never consume forced faces.
	_ = r.Die(6)
	if got := r.Forced(); got != 3 {
		t.Fatalf("Forced() after Die = %d, want 3", got)
	}

	for i, want := range []int{20, 1, 20} {
		if got := r.D20(); got != want {
			t.Fatalf("D20() #%d = %d, want %d", i, got, want)
		}
	}
	if got := r.Forced(); got != 0 {
		t.Fatalf("Forced() = %d, want 0", got)
	}
	if got := r.D20(); got < 1 || got > 20 {
		t.Fatalf("fallback D20() = %d, want 1..20", got)
	}
}

func TestRollerSeedKeepsForcedClearDrops(t *testing.T) {
	r := NewRoller(1)
	r.Force(13)
	r.Seed(5)
	if got := r.D20(); got != 13 {
		t.Fatalf("D20() after Seed = %d, want forced 13", got)
	}

	r.Force(13)
	r.Clear()
	if got := r.Forced(); got != 0 {
		t.Fatalf("Forced() after Clear = %d, want 0", got)
	}
	zero := NewRoller(0)
	if got, want := r.Die(100), zero.Die(100); got != want {
		t.Fatalf("Clear stream = %d, want zero-seed %d", got, want)
	}
}
