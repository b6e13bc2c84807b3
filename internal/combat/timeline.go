package combat

import (
	"fmt"

	"github.com/louisbranch/skirmish/internal/combat/resource"
	"github.com/louisbranch/skirmish/internal/core/dice"
	apperrors "github.com/louisbranch/skirmish/internal/platform/errors"
)

// StepKind tags a timeline step.
type StepKind int

const (
	StepCombat StepKind = iota
	StepShortRest
	StepLongRest
)

func (k StepKind) String() string {
	switch k {
	case StepShortRest:
		return "short_rest"
	case StepLongRest:
		return "long_rest"
	}
	return "combat"
}

// Encounter is one combat on the timeline.
type Encounter struct {
	Name              string
	Role              string
	Monsters          []Creature
	PartySurprised    bool
	MonstersSurprised bool
}

// Step is one point of the adventuring day. Encounter is set for combats.
type Step struct {
	Kind      StepKind
	Encounter *Encounter
}

// Combat returns a combat step.
func Combat(enc Encounter) Step { return Step{Kind: StepCombat, Encounter: &enc} }

// ShortRestStep returns a short rest step.
func ShortRestStep() Step { return Step{Kind: StepShortRest} }

// LongRestStep returns a long rest step.
func LongRestStep() Step { return Step{Kind: StepLongRest} }

// Scenario is a party and the timeline it plays through.
type Scenario struct {
	Name     string
	Party    []Creature
	Timeline []Step
}

// Encounters returns the combats of the timeline in order.
func (s *Scenario) Encounters() []*Encounter {
	var out []*Encounter
	for _, step := range s.Timeline {
		if step.Kind == StepCombat && step.Encounter != nil {
			out = append(out, step.Encounter)
		}
	}
	return out
}

// Validate checks the scenario can be simulated.
func (s *Scenario) Validate() error {
	if len(s.Party) == 0 {
		return validationFailed("scenario %q has no party", s.Name)
	}
	ids := make(map[string]bool, len(s.Party))
	for i := range s.Party {
		if err := s.Party[i].Validate(); err != nil {
			return err
		}
		if ids[s.Party[i].ID] {
			return validationFailed("duplicate party member %q", s.Party[i].ID)
		}
		ids[s.Party[i].ID] = true
	}
	combats := 0
	for i, step := range s.Timeline {
		if step.Kind != StepCombat {
			continue
		}
		if step.Encounter == nil {
			return validationFailed("timeline step %d is a combat without an encounter", i)
		}
		if len(step.Encounter.Monsters) == 0 {
			return validationFailed("encounter %q has no monsters", step.Encounter.Name)
		}
		for j := range step.Encounter.Monsters {
			if err := step.Encounter.Monsters[j].Validate(); err != nil {
				return err
			}
		}
		combats++
	}
	if combats == 0 {
		return validationFailed("scenario %q has no combat", s.Name)
	}
	return nil
}

func validationFailed(format string, args ...any) error {
	reason := fmt.Sprintf(format, args...)
	return apperrors.WithMetadata(apperrors.CodeValidationFailed, reason, map[string]string{"Reason": reason})
}

// EncounterResult is the record of one combat of a run.
type EncounterResult struct {
	Index      int
	Name       string
	Role       string
	Outcome    Outcome
	Rounds     int
	Turns      int
	Score      float64
	Cumulative float64
	// Simulated is false for combats skipped because the party was down.
	Simulated bool
	Events    []Event
	Summaries []RoundSummary
}

// MemberOutcome is a party member's state at the end of a run.
type MemberOutcome struct {
	ID              string
	Name            string
	HP              int
	MaxHP           int
	HPPercent       float64
	ResourcePercent float64
	Died            bool
	DeathEncounter  int
	DeathRound      int
}

// LightweightRun is the fixed-size record the survey keeps per seed.
type LightweightRun struct {
	Seed                uint64
	EncounterScores     []float64
	EncounterOutcomes   []Outcome
	FinalScore          float64
	TotalHPLost         int
	Survivors           int
	Died                bool
	FirstDeathEncounter int
	Outcome             Outcome
}

// RunResult is everything one seeded run produced at its capture level.
type RunResult struct {
	Seed       uint64
	Capture    Capture
	Encounters []EncounterResult
	Party      []MemberOutcome
	// TotalHPLost is HP the party lost across every combat, before healing.
	TotalHPLost int
}

// Check reports run-level failures: an empty result or party state outside
// its bounds.
func (rr RunResult) Check() error {
	if len(rr.Encounters) == 0 {
		return apperrors.WithMetadata(apperrors.CodeEmptyResult, "run produced no encounters",
			map[string]string{"Phase": "run"})
	}
	for _, m := range rr.Party {
		if m.HP < 0 || m.HP > m.MaxHP || m.ResourcePercent < 0 || m.ResourcePercent > 100 {
			return apperrors.WithMetadata(apperrors.CodeUnexpectedState, "party member out of bounds",
				map[string]string{"Reason": fmt.Sprintf("%s has %d/%d HP", m.ID, m.HP, m.MaxHP)})
		}
	}
	return nil
}

// Lightweight reduces the result to its survey record.
func (rr RunResult) Lightweight() LightweightRun {
	run := LightweightRun{
		Seed:                rr.Seed,
		EncounterScores:     make([]float64, len(rr.Encounters)),
		EncounterOutcomes:   make([]Outcome, len(rr.Encounters)),
		TotalHPLost:         rr.TotalHPLost,
		FirstDeathEncounter: -1,
		Outcome:             Draw,
	}
	for i, enc := range rr.Encounters {
		run.EncounterScores[i] = enc.Cumulative
		run.EncounterOutcomes[i] = enc.Outcome
		run.Outcome = enc.Outcome
	}
	if n := len(run.EncounterScores); n > 0 {
		run.FinalScore = run.EncounterScores[n-1]
	}
	for _, m := range rr.Party {
		if m.Died {
			run.Died = true
			if run.FirstDeathEncounter < 0 || m.DeathEncounter < run.FirstDeathEncounter {
				run.FirstDeathEncounter = m.DeathEncounter
			}
			continue
		}
		run.Survivors++
	}
	return run
}

// Runner plays scenarios on one roller. A Runner is not safe for concurrent
// use; parallel callers hold one each.
type Runner struct {
	Roller *dice.Roller
}

// NewRunner returns a runner with its own roller.
func NewRunner() *Runner {
	return &Runner{Roller: dice.NewRoller(0)}
}

// Run plays s from seed. The roller is seeded before and cleared after so no
// state crosses runs. The scenario must already be valid.
func (r *Runner) Run(s *Scenario, seed uint64, capture Capture) RunResult {
	r.Roller.Seed(seed)
	defer r.Roller.Clear()

	party := NewParty(s.Party)
	result := RunResult{Seed: seed, Capture: capture}
	cumulative := 0.0

	for _, step := range s.Timeline {
		switch step.Kind {
		case StepShortRest:
			ShortRest(r.Roller, party)
			continue
		case StepLongRest:
			LongRest(party)
			continue
		}
		enc := step.Encounter
		er := EncounterResult{Index: len(result.Encounters), Name: enc.Name, Role: enc.Role}

		if Standing(party) == 0 {
			er.Outcome = Team1Wins
			er.Score = forfeitScore(enc)
		} else {
			tc := BeginEncounter(r.Roller, party, enc, capture)
			er.Outcome = RunEncounter(tc)
			er.Simulated = true
			er.Rounds = tc.Round
			er.Turns = tc.Turn
			er.Score = EncounterScore(tc)
			if capture == CaptureFull {
				tc.DrainPending()
				er.Events = tc.Events()
			}
			if capture != CaptureNone {
				er.Summaries = tc.Summaries()
			}
			EndEncounter(tc, party, er.Index)
		}
		cumulative += er.Score
		er.Cumulative = cumulative
		result.Encounters = append(result.Encounters, er)
	}

	result.Party = make([]MemberOutcome, len(party))
	for i, m := range party {
		result.TotalHPLost += m.DamageTaken
		result.Party[i] = MemberOutcome{
			ID:              m.Creature.ID,
			Name:            m.Creature.Name,
			HP:              m.HP,
			MaxHP:           m.Creature.HP,
			HPPercent:       100 * float64(m.HP) / float64(max(1, m.Creature.HP)),
			ResourcePercent: m.Resources.Percent(resource.Spendable),
			Died:            m.Dead,
			DeathEncounter:  m.DeathEncounter,
			DeathRound:      m.DeathRound,
		}
	}
	return result
}
