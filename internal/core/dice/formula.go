package dice

import (
	"strconv"
	"strings"

	apperrors "github.com/louisbranch/skirmish/internal/platform/errors"
)

const (
	maxDiceCount = 1000
	maxDiceSides = 1000
)

var (
	// ErrInvalidFormula is returned when a dice expression cannot be parsed.
	ErrInvalidFormula = apperrors.New(apperrors.CodeDiceInvalidFormula, "invalid dice formula")
	// ErrInvalidMultiplier is returned when Evaluate receives a multiplier
	// other than 1 or 2.
	ErrInvalidMultiplier = apperrors.New(apperrors.CodeDiceInvalidMultiplier, "multiplier must be 1 or 2")
)

// Term is one additive piece of a formula. A term with Sides == 0 is a flat
// modifier worth Sign*Count.
type Term struct {
	Count int
	Sides int
	Sign  int
}

// Formula is either a fixed value or an additive dice expression such as
// "2d6+3" or "1d8+1d4-1". The zero value is the fixed value 0.
type Formula struct {
	terms []Term
}

// Fixed returns a formula that always evaluates to n.
func Fixed(n int) Formula {
	if n == 0 {
		return Formula{}
	}
	sign := 1
	if n < 0 {
		sign, n = -1, -n
	}
	return Formula{terms: []Term{{Count: n, Sign: sign}}}
}

// MustParse is Parse that panics on error. Intended for tables and tests.
func MustParse(expr string) Formula {
	f, err := Parse(expr)
	if err != nil {
		panic(err)
	}
	return f
}

// Parse reads an additive dice expression. Whitespace is ignored and "d20"
// is shorthand for "1d20".
func Parse(expr string) (Formula, error) {
	s := strings.ToLower(strings.Join(strings.Fields(expr), ""))
	if s == "" {
		return Formula{}, invalidFormula(expr, "empty expression")
	}

	var terms []Term
	sign := 1
	start := 0
	if s[0] == '+' || s[0] == '-' {
		if s[0] == '-' {
			sign = -1
		}
		start = 1
	}
	for i := start; i <= len(s); i++ {
		if i < len(s) && s[i] != '+' && s[i] != '-' {
			continue
		}
		term, err := parseTerm(s[start:i], sign)
		if err != nil {
			return Formula{}, invalidFormula(expr, err.Error())
		}
		if term.Count > 0 {
			terms = append(terms, term)
		}
		if i < len(s) {
			sign = 1
			if s[i] == '-' {
				sign = -1
			}
		}
		start = i + 1
	}
	return Formula{terms: terms}, nil
}

func parseTerm(raw string, sign int) (Term, error) {
	if raw == "" {
		return Term{}, strconv.ErrSyntax
	}
	countPart, sidesPart, isDice := strings.Cut(raw, "d")
	if !isDice {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Term{}, strconv.ErrSyntax
		}
		return Term{Count: n, Sign: sign}, nil
	}

	count := 1
	if countPart != "" {
		n, err := strconv.Atoi(countPart)
		if err != nil || n <= 0 || n > maxDiceCount {
			return Term{}, strconv.ErrRange
		}
		count = n
	}
	sides, err := strconv.Atoi(sidesPart)
	if err != nil || sides <= 0 || sides > maxDiceSides {
		return Term{}, strconv.ErrRange
	}
	return Term{Count: count, Sides: sides, Sign: sign}, nil
}

func invalidFormula(expr, reason string) error {
	return apperrors.WithMetadata(apperrors.CodeDiceInvalidFormula, "invalid dice formula",
		map[string]string{"Formula": expr, "Reason": reason})
}

// IsFixed reports whether the formula contains no dice.
func (f Formula) IsFixed() bool {
	for _, t := range f.terms {
		if t.Sides > 0 {
			return false
		}
	}
	return true
}

// IsZero reports whether the formula is the fixed value 0.
func (f Formula) IsZero() bool {
	return len(f.terms) == 0
}

// Terms returns a copy of the formula's terms.
func (f Formula) Terms() []Term {
	return append([]Term(nil), f.terms...)
}

// DiceCount returns the number of dice rolled at the given multiplier.
func (f Formula) DiceCount(multiplier int) int {
	n := 0
	for _, t := range f.terms {
		if t.Sides > 0 {
			n += t.Count * multiplier
		}
	}
	return n
}

// Evaluate rolls the formula. Dice terms roll count×multiplier dice and flat
// modifiers are added once. A fixed formula is multiplied exactly.
func (f Formula) Evaluate(r *Roller, multiplier int) (int, error) {
	if multiplier != 1 && multiplier != 2 {
		return 0, ErrInvalidMultiplier
	}
	if f.IsFixed() {
		return f.flat() * multiplier, nil
	}
	return f.roll(r, multiplier)
}

// Roll evaluates the formula at multiplier 2 when crit is set and 1 otherwise.
// Parse and Fixed only build terms with positive count and sides, and Roll
// only passes valid multipliers, so Evaluate cannot fail here.
func (f Formula) Roll(r *Roller, crit bool) int {
	multiplier := 1
	if crit {
		multiplier = 2
	}
	total, _ := f.Evaluate(r, multiplier)
	return total
}

func (f Formula) roll(r *Roller, multiplier int) (int, error) {
	total := 0
	for _, t := range f.terms {
		if t.Sides == 0 {
			total += t.Sign * t.Count
			continue
		}
		result, err := r.RollSpecs([]Spec{{Sides: t.Sides, Count: t.Count * multiplier}})
		if err != nil {
			return 0, err
		}
		total += t.Sign * result.Total
	}
	return total, nil
}

func (f Formula) flat() int {
	total := 0
	for _, t := range f.terms {
		if t.Sides == 0 {
			total += t.Sign * t.Count
		}
	}
	return total
}

// Average returns the expected value of one evaluation at multiplier 1.
func (f Formula) Average() float64 {
	avg := 0.0
	for _, t := range f.terms {
		if t.Sides == 0 {
			avg += float64(t.Sign * t.Count)
			continue
		}
		avg += float64(t.Sign*t.Count) * float64(t.Sides+1) / 2
	}
	return avg
}

// String renders the formula in canonical form, for example "2d6+3".
func (f Formula) String() string {
	if len(f.terms) == 0 {
		return "0"
	}
	var b strings.Builder
	for i, t := range f.terms {
		switch {
		case t.Sign < 0:
			b.WriteByte('-')
		case i > 0:
			b.WriteByte('+')
		}
		if t.Sides == 0 {
			b.WriteString(strconv.Itoa(t.Count))
			continue
		}
		b.WriteString(strconv.Itoa(t.Count))
		b.WriteByte('d')
		b.WriteString(strconv.Itoa(t.Sides))
	}
	return b.String()
}

// MarshalText implements encoding.TextMarshaler.
func (f Formula) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler so formulas can be read
// straight from scenario files.
func (f *Formula) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
