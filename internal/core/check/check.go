package check

// MeetsDifficulty returns true if total >= difficulty.
// This is the most common difficulty check in tabletop RPGs.
func MeetsDifficulty(total, difficulty int) bool {
	return total >= difficulty
}

// Attack is the outcome of an attack roll against an armor class.
type Attack struct {
	Natural int
	Total   int
	AC      int
	Hit     bool
	Crit    bool
}

// AttackRoll compares natural+bonus against ac. A natural 20 always hits as
// a critical and a natural 1 always misses.
func AttackRoll(natural, bonus, ac int) Attack {
	total := natural + bonus
	out := Attack{Natural: natural, Total: total, AC: ac}
	switch natural {
	case 20:
		out.Hit = true
		out.Crit = true
	case 1:
	default:
		out.Hit = MeetsDifficulty(total, ac)
	}
	return out
}

// Shortfall is how far a missed total fell below the armor class. It is zero
// for hits.
func (a Attack) Shortfall() int {
	if a.Hit {
		return 0
	}
	return a.AC - a.Total
}

// ConcentrationDC is the save difficulty to keep concentration after taking
// damage: half the damage, but never below 10.
func ConcentrationDC(damage int) int {
	return max(10, damage/2)
}
