package analysis

import (
	"time"

	"github.com/louisbranch/skirmish/internal/combat"
	apperrors "github.com/louisbranch/skirmish/internal/platform/errors"
)

// Report is the aggregated analysis of one survey.
type Report struct {
	ID         string
	Scenario   string
	BaseSeed   uint64
	Iterations int
	CreatedAt  time.Time
	Health     Health
	Stats      Stats

	Buckets          []BucketReport
	Deciles          []Exemplar
	Extremes         []Exemplar
	Encounters       []EncounterStats
	UnexpectedDeaths []UnexpectedDeath
}

// CharacterState is a party member's end-of-run state in a deep-dived run.
type CharacterState struct {
	ID              string
	Name            string
	HPPercent       float64
	ResourcePercent float64
	Died            bool
	DeathEncounter  int
	DeathRound      int
}

// BucketReport describes one score bucket through its median run.
type BucketReport struct {
	Index       int
	Runs        int
	MinScore    float64
	MaxScore    float64
	MedianSeed  uint64
	MedianScore float64
	Characters  []CharacterState
}

// Exemplar is a deep-dived run with its encounter records. Encounters carry
// the full event log for tier A selections.
type Exemplar struct {
	Label      string
	Seed       uint64
	Position   int
	Score      float64
	Encounters []combat.EncounterResult
	Characters []CharacterState
}

// EncounterStats is survey-wide performance in one combat.
type EncounterStats struct {
	Index      int
	Name       string
	Role       string
	PartyWins  int
	Losses     int
	Draws      int
	WinRate    float64
	MeanScore  float64
	ScoreStats Stats
}

// UnexpectedDeath is a top-half run in which a party member died.
type UnexpectedDeath struct {
	Seed     uint64
	Position int
	Score    float64
	Deaths   []CharacterState
}

// Aggregate builds the report from the survey, its selection and the deep
// dive. Every selected position must be present in dd.
func Aggregate(s *combat.Scenario, survey SurveyResult, sel Selection, dd DeepDiveRuns) (Report, error) {
	if len(sel.Sorted) == 0 {
		return Report{}, apperrors.WithMetadata(apperrors.CodeEmptyResult, "nothing to aggregate",
			map[string]string{"Phase": "aggregate"})
	}
	lookup := func(pos int) (combat.RunResult, error) {
		rr, ok := dd[pos]
		if !ok {
			return combat.RunResult{}, apperrors.New(apperrors.CodeIndexOutOfBounds, "selected position missing from deep dive")
		}
		return rr, nil
	}

	scores := make([]float64, len(sel.Sorted))
	for i, r := range sel.Sorted {
		scores[i] = r.FinalScore
	}
	report := Report{
		Scenario:   s.Name,
		BaseSeed:   survey.BaseSeed,
		Iterations: survey.Health.Attempted,
		Health:     survey.Health,
		Stats:      ComputeStats(scores),
		Encounters: encounterStats(s, sel.Sorted),
	}

	for _, b := range sel.Buckets {
		rr, err := lookup(b.Median.Position)
		if err != nil {
			return Report{}, err
		}
		report.Buckets = append(report.Buckets, BucketReport{
			Index:       b.Index,
			Runs:        b.Size(),
			MinScore:    sel.Sorted[b.Start].FinalScore,
			MaxScore:    sel.Sorted[b.End-1].FinalScore,
			MedianSeed:  b.Median.Seed,
			MedianScore: sel.Sorted[b.Median.Position].FinalScore,
			Characters:  characters(rr),
		})
	}

	exemplars := func(group []SelectedSeed) ([]Exemplar, error) {
		out := make([]Exemplar, 0, len(group))
		for _, sd := range group {
			rr, err := lookup(sd.Position)
			if err != nil {
				return nil, err
			}
			out = append(out, Exemplar{
				Label:      sd.Label,
				Seed:       sd.Seed,
				Position:   sd.Position,
				Score:      sel.Sorted[sd.Position].FinalScore,
				Encounters: rr.Encounters,
				Characters: characters(rr),
			})
		}
		return out, nil
	}
	var err error
	if report.Deciles, err = exemplars(sel.Deciles); err != nil {
		return Report{}, err
	}
	if report.Extremes, err = exemplars(sel.Extremes); err != nil {
		return Report{}, err
	}

	for _, sd := range sel.Unexpected {
		rr, err := lookup(sd.Position)
		if err != nil {
			return Report{}, err
		}
		ud := UnexpectedDeath{Seed: sd.Seed, Position: sd.Position, Score: sel.Sorted[sd.Position].FinalScore}
		for _, c := range characters(rr) {
			if c.Died {
				ud.Deaths = append(ud.Deaths, c)
			}
		}
		report.UnexpectedDeaths = append(report.UnexpectedDeaths, ud)
	}
	return report, nil
}

func characters(rr combat.RunResult) []CharacterState {
	out := make([]CharacterState, len(rr.Party))
	for i, m := range rr.Party {
		out[i] = CharacterState{
			ID:              m.ID,
			Name:            m.Name,
			HPPercent:       m.HPPercent,
			ResourcePercent: m.ResourcePercent,
			Died:            m.Died,
			DeathEncounter:  m.DeathEncounter,
			DeathRound:      m.DeathRound,
		}
	}
	return out
}

func encounterStats(s *combat.Scenario, runs []combat.LightweightRun) []EncounterStats {
	encs := s.Encounters()
	out := make([]EncounterStats, len(encs))
	for e, enc := range encs {
		st := EncounterStats{Index: e, Name: enc.Name, Role: enc.Role}
		var scores []float64
		for _, r := range runs {
			if e < len(r.EncounterOutcomes) {
				switch r.EncounterOutcomes[e] {
				case combat.Team0Wins:
					st.PartyWins++
				case combat.Team1Wins:
					st.Losses++
				default:
					st.Draws++
				}
			}
			if d, ok := increment(r, e); ok {
				scores = append(scores, d)
			}
		}
		if total := st.PartyWins + st.Losses + st.Draws; total > 0 {
			st.WinRate = float64(st.PartyWins) / float64(total)
		}
		st.ScoreStats = ComputeStats(scores)
		st.MeanScore = st.ScoreStats.Mean
		out[e] = st
	}
	return out
}
