package dice

import "testing"

func TestRollD20Modes(t *testing.T) {
	tests := []struct {
		name   string
		mode   Mode
		forced []int
		want   int
		rolls  int
	}{
		{"normal", Normal, []int{12}, 12, 1},
		{"advantage keeps high", Advantage, []int{4, 17}, 17, 2},
		{"disadvantage keeps low", Disadvantage, []int{4, 17}, 4, 2},
		{"triple keeps high", TripleAdvantage, []int{3, 19, 8}, 19, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRoller(1)
			r.Force(tt.forced...)
			got := r.RollD20(tt.mode)
			if got.Natural != tt.want {
				t.Fatalf("Natural = %d, want %d", got.Natural, tt.want)
			}
			if len(got.Rolls) != tt.rolls {
				t.Fatalf("len(Rolls) = %d, want %d", len(got.Rolls), tt.rolls)
			}
			if got.Mode != tt.mode {
				t.Fatalf("Mode = %v, want %v", got.Mode, tt.mode)
			}
		})
	}
}

func TestD20CritFumble(t *testing.T) {
	if !(D20Roll{Natural: 20}).Crit() {
		t.Fatal("expected natural 20 to crit")
	}
	if !(D20Roll{Natural: 1}).Fumble() {
		t.Fatal("expected natural 1 to fumble")
	}
	if (D20Roll{Natural: 19}).Crit() {
		t.Fatal("expected 19 not to crit")
	}
}

func TestCombineModes(t *testing.T) {
	tests := []struct {
		name  string
		modes []Mode
		want  Mode
	}{
		{"none", nil, Normal},
		{"advantage", []Mode{Advantage}, Advantage},
		{"stacked advantage", []Mode{Advantage, Advantage}, Advantage},
		{"disadvantage", []Mode{Normal, Disadvantage}, Disadvantage},
		{"cancel", []Mode{Advantage, Disadvantage}, Normal},
		{"triple cancels too", []Mode{TripleAdvantage, Disadvantage}, Normal},
		{"triple wins", []Mode{Advantage, TripleAdvantage}, TripleAdvantage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CombineModes(tt.modes...); got != tt.want {
				t.Fatalf("CombineModes(%v) = %v, want %v", tt.modes, got, tt.want)
			}
		})
	}
}
