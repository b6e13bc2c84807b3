package analysis

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/louisbranch/skirmish/internal/combat"
	apperrors "github.com/louisbranch/skirmish/internal/platform/errors"
)

const (
	// BucketCount is the number of score-ordered buckets.
	BucketCount = 100
	// DecileCount is the number of decile exemplars, P0 through P100.
	DecileCount = 11
)

// Tier ranks how much detail a selected seed needs. TierA is the richest.
type Tier int

const (
	// TierA seeds are decile exemplars and per-encounter extremes.
	TierA Tier = iota
	// TierB seeds are bucket medians.
	TierB
	// TierC seeds are unexpected deaths.
	TierC
)

func (t Tier) String() string {
	switch t {
	case TierA:
		return "A"
	case TierB:
		return "B"
	}
	return "C"
}

// Capture is the event capture a tier's deep dive needs.
func (t Tier) Capture() combat.Capture {
	switch t {
	case TierA:
		return combat.CaptureFull
	case TierB:
		return combat.CaptureLean
	}
	return combat.CaptureNone
}

// SelectedSeed is one survey run picked for a deep dive. Position is its
// index in the score-sorted survey.
type SelectedSeed struct {
	Seed     uint64
	Tier     Tier
	Label    string
	Position int
}

// Bucket is a half-open range [Start, End) of sorted positions.
type Bucket struct {
	Index  int
	Start  int
	End    int
	Median SelectedSeed
}

// Size is the number of runs in the bucket.
func (b Bucket) Size() int { return b.End - b.Start }

// Selection is the selector's output over one survey.
type Selection struct {
	Sorted     []combat.LightweightRun
	Buckets    []Bucket
	Deciles    []SelectedSeed
	Extremes   []SelectedSeed
	Unexpected []SelectedSeed
}

// PlannedRun is one seed to re-run and the capture it needs.
type PlannedRun struct {
	Seed     uint64
	Tier     Tier
	Position int
	Capture  combat.Capture
}

// Select sorts runs by final score (ties by seed) and picks bucket medians,
// decile positions, per-encounter extremes and unexpected deaths.
func Select(runs []combat.LightweightRun) (Selection, error) {
	n := len(runs)
	if n == 0 {
		return Selection{}, apperrors.WithMetadata(apperrors.CodeEmptyResult, "no runs to select from",
			map[string]string{"Phase": "select"})
	}
	sorted := slices.Clone(runs)
	slices.SortStableFunc(sorted, func(a, b combat.LightweightRun) int {
		if c := cmp.Compare(a.FinalScore, b.FinalScore); c != 0 {
			return c
		}
		return cmp.Compare(a.Seed, b.Seed)
	})

	sel := Selection{Sorted: sorted}
	pick := func(pos int, tier Tier, label string) SelectedSeed {
		return SelectedSeed{Seed: sorted[pos].Seed, Tier: tier, Label: label, Position: pos}
	}

	for k := range BucketCount {
		start, end := k*n/BucketCount, (k+1)*n/BucketCount
		if end <= start {
			continue
		}
		median := start + (end-start-1)/2
		sel.Buckets = append(sel.Buckets, Bucket{
			Index:  k,
			Start:  start,
			End:    end,
			Median: pick(median, TierB, fmt.Sprintf("B%02d", k)),
		})
	}

	for k := range DecileCount {
		pos := int(math.Round(float64(k) * float64(n-1) / float64(DecileCount-1)))
		sel.Deciles = append(sel.Deciles, pick(pos, TierA, fmt.Sprintf("P%d", k*10)))
	}

	sel.Extremes = extremes(sorted)

	for pos := n / 2; pos < n; pos++ {
		if sorted[pos].Died {
			sel.Unexpected = append(sel.Unexpected, pick(pos, TierC, "unexpected_death"))
		}
	}
	return sel, nil
}

// extremes finds, per encounter, the runs with the lowest and highest score
// gained in that encounter. Ties keep the lower sorted position.
func extremes(sorted []combat.LightweightRun) []SelectedSeed {
	encounters := 0
	for _, r := range sorted {
		encounters = max(encounters, len(r.EncounterScores))
	}
	var out []SelectedSeed
	for e := range encounters {
		lo, hi := -1, -1
		var loScore, hiScore float64
		for pos, r := range sorted {
			d, ok := increment(r, e)
			if !ok {
				continue
			}
			if lo < 0 || d < loScore {
				lo, loScore = pos, d
			}
			if hi < 0 || d > hiScore {
				hi, hiScore = pos, d
			}
		}
		if lo < 0 {
			continue
		}
		out = append(out,
			SelectedSeed{Seed: sorted[lo].Seed, Tier: TierA, Label: fmt.Sprintf("E%d_min", e), Position: lo},
			SelectedSeed{Seed: sorted[hi].Seed, Tier: TierA, Label: fmt.Sprintf("E%d_max", e), Position: hi},
		)
	}
	return out
}

// increment is the score a run gained in encounter e.
func increment(r combat.LightweightRun, e int) (float64, bool) {
	if e >= len(r.EncounterScores) {
		return 0, false
	}
	if e == 0 {
		return r.EncounterScores[0], true
	}
	return r.EncounterScores[e] - r.EncounterScores[e-1], true
}

// Plan lists every selected seed once, at the richest tier any of its
// selections needs, ordered by sorted position.
func (s Selection) Plan() []PlannedRun {
	best := make(map[int]Tier)
	note := func(sel SelectedSeed) {
		if t, ok := best[sel.Position]; !ok || sel.Tier < t {
			best[sel.Position] = sel.Tier
		}
	}
	for _, b := range s.Buckets {
		note(b.Median)
	}
	for _, group := range [][]SelectedSeed{s.Deciles, s.Extremes, s.Unexpected} {
		for _, sel := range group {
			note(sel)
		}
	}
	plan := make([]PlannedRun, 0, len(best))
	for pos, tier := range best {
		plan = append(plan, PlannedRun{Seed: s.Sorted[pos].Seed, Tier: tier, Position: pos, Capture: tier.Capture()})
	}
	slices.SortFunc(plan, func(a, b PlannedRun) int { return cmp.Compare(a.Position, b.Position) })
	return plan
}

// Count returns how many selections fall in tier t, counting repeats.
func (s Selection) Count(t Tier) int {
	n := 0
	for _, b := range s.Buckets {
		if b.Median.Tier == t {
			n++
		}
	}
	for _, group := range [][]SelectedSeed{s.Deciles, s.Extremes, s.Unexpected} {
		for _, sel := range group {
			if sel.Tier == t {
				n++
			}
		}
	}
	return n
}
