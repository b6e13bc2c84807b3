package dice

// Mode selects how many d20s are rolled and which one is kept.
type Mode int

const (
	Normal Mode = iota
	Advantage
	Disadvantage
	TripleAdvantage
)

// String returns the lowercase mode name.
func (m Mode) String() string {
	switch m {
	case Advantage:
		return "advantage"
	case Disadvantage:
		return "disadvantage"
	case TripleAdvantage:
		return "triple_advantage"
	default:
		return "normal"
	}
}

// D20Roll is one d20 test roll. Rolls holds every face rolled in order.
type D20Roll struct {
	Natural int
	Mode    Mode
	Rolls   []int
}

// Crit reports a natural 20.
func (d D20Roll) Crit() bool { return d.Natural == 20 }

// Fumble reports a natural 1.
func (d D20Roll) Fumble() bool { return d.Natural == 1 }

// RollD20 rolls a d20 test in the given mode. Advantage keeps the highest of
// two, triple advantage the highest of three and disadvantage the lowest of
// two.
func (r *Roller) RollD20(mode Mode) D20Roll {
	count := 1
	switch mode {
	case Advantage, Disadvantage:
		count = 2
	case TripleAdvantage:
		count = 3
	}

	rolls := make([]int, count)
	natural := 0
	for i := range rolls {
		v := r.D20()
		rolls[i] = v
		switch {
		case i == 0:
			natural = v
		case mode == Disadvantage && v < natural:
			natural = v
		case mode != Disadvantage && v > natural:
			natural = v
		}
	}
	return D20Roll{Natural: natural, Mode: mode, Rolls: rolls}
}

// CombineModes folds several sources of advantage and disadvantage into one
// mode. Any advantage together with any disadvantage cancels to Normal.
// Triple advantage wins over plain advantage.
func CombineModes(modes ...Mode) Mode {
	var adv, dis, triple bool
	for _, m := range modes {
		switch m {
		case Advantage:
			adv = true
		case TripleAdvantage:
			adv = true
			triple = true
		case Disadvantage:
			dis = true
		}
	}
	switch {
	case adv && dis:
		return Normal
	case triple:
		return TripleAdvantage
	case adv:
		return Advantage
	case dis:
		return Disadvantage
	default:
		return Normal
	}
}
