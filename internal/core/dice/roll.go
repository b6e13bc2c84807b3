package dice

import (
	apperrors "github.com/louisbranch/skirmish/internal/platform/errors"
)

// Spec describes a homogeneous group of dice to roll.
type Spec struct {
	Sides int
	Count int
}

// Roll captures the faces rolled for one Spec.
type Roll struct {
	Sides   int
	Results []int
	Total   int
}

// Result is the outcome of rolling a slice of Specs.
type Result struct {
	Rolls []Roll
	Total int
}

var (
	// ErrMissingDice is returned when no dice specs are provided.
	ErrMissingDice = apperrors.New(apperrors.CodeDiceInvalidFormula, "at least one die must be provided")
	// ErrInvalidDiceSpec is returned when a spec has non-positive sides or count.
	ErrInvalidDiceSpec = apperrors.New(apperrors.CodeDiceInvalidFormula, "dice must have positive sides and count")
)

// RollSpecs rolls dice using the roller's stream.
//
// Specs are processed in slice order and the Rolls in the Result appear in
// the same order. Result.Total is the sum of every die rolled across the
// request. Forced values only apply to d20 rolls, never to damage dice.
func (r *Roller) RollSpecs(specs []Spec) (Result, error) {
	if len(specs) == 0 {
		return Result{}, ErrMissingDice
	}

	rolls := make([]Roll, 0, len(specs))
	total := 0

	for _, spec := range specs {
		if spec.Sides <= 0 || spec.Count <= 0 {
			return Result{}, ErrInvalidDiceSpec
		}

		results := make([]int, spec.Count)
		rollTotal := 0
		for i := 0; i < spec.Count; i++ {
			value := r.Die(spec.Sides)
			results[i] = value
			rollTotal += value
		}

		rolls = append(rolls, Roll{
			Sides:   spec.Sides,
			Results: results,
			Total:   rollTotal,
		})
		total += rollTotal
	}

	return Result{
		Rolls: rolls,
		Total: total,
	}, nil
}
