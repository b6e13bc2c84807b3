package check

import "testing"

func TestMeetsDifficulty(t *testing.T) {
	tests := []struct {
		name       string
		total      int
		difficulty int
		want       bool
	}{
		{"exact match", 10, 10, true},
		{"above difficulty", 15, 10, true},
		{"below difficulty", 5, 10, false},
		{"zero total zero difficulty", 0, 0, true},
		{"negative total", -5, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MeetsDifficulty(tt.total, tt.difficulty)
			if got != tt.want {
				t.Errorf("MeetsDifficulty(%d, %d) = %v, want %v", tt.total, tt.difficulty, got, tt.want)
			}
		})
	}
}

func TestAttackRoll(t *testing.T) {
	tests := []struct {
		name     string
		natural  int
		bonus    int
		ac       int
		wantHit  bool
		wantCrit bool
	}{
		{"natural 20 hits any AC", 20, 0, 30, true, true},
		{"natural 1 misses with huge bonus", 1, 50, 10, false, false},
		{"meets AC", 10, 2, 12, true, false},
		{"below AC", 9, 2, 12, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AttackRoll(tt.natural, tt.bonus, tt.ac)
			if got.Hit != tt.wantHit || got.Crit != tt.wantCrit {
				t.Errorf("AttackRoll(%d, %d, %d) = hit %v crit %v, want %v %v",
					tt.natural, tt.bonus, tt.ac, got.Hit, got.Crit, tt.wantHit, tt.wantCrit)
			}
		})
	}
}

func TestShortfall(t *testing.T) {
	if got := AttackRoll(9, 2, 13).Shortfall(); got != 2 {
		t.Errorf("Shortfall() = %d, want 2", got)
	}
	if got := AttackRoll(15, 2, 13).Shortfall(); got != 0 {
		t.Errorf("Shortfall() on hit = %d, want 0", got)
	}
}

func TestConcentrationDC(t *testing.T) {
	tests := []struct {
		damage, want int
	}{
		{0, 10}, {9, 10}, {21, 10}, {22, 11}, {40, 20},
	}
	for _, tt := range tests {
		if got := ConcentrationDC(tt.damage); got != tt.want {
			t.Errorf("ConcentrationDC(%d) = %d, want %d", tt.damage, got, tt.want)
		}
	}
}
