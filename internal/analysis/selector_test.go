package analysis

import (
	"errors"
	"testing"

	"github.com/louisbranch/skirmish/internal/combat"
	apperrors "github.com/louisbranch/skirmish/internal/platform/errors"
	"pgregory.net/rapid"
)

func TestSelectTenThousandOneHundred(t *testing.T) {
	const n = 10100
	sel, err := Select(syntheticRuns(n))
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(sel.Buckets) != BucketCount {
		t.Fatalf("buckets = %d, want %d", len(sel.Buckets), BucketCount)
	}
	for _, b := range sel.Buckets {
		if b.Size() != 101 {
			t.Fatalf("bucket %d size = %d, want 101", b.Index, b.Size())
		}
		if b.Median.Position != b.Start+50 {
			t.Fatalf("bucket %d median = %d, want %d", b.Index, b.Median.Position, b.Start+50)
		}
		if b.Median.Tier != TierB {
			t.Fatalf("bucket %d tier = %v, want B", b.Index, b.Median.Tier)
		}
	}
	if got := sel.Count(TierB); got != 100 {
		t.Fatalf("tier B count = %d, want 100", got)
	}
	if len(sel.Deciles) != DecileCount {
		t.Fatalf("deciles = %d, want %d", len(sel.Deciles), DecileCount)
	}
	worst, best := sel.Deciles[0], sel.Deciles[DecileCount-1]
	if worst.Position != 0 || sel.Sorted[worst.Position].FinalScore != 0 {
		t.Fatalf("worst = %+v, want position 0 with score 0", worst)
	}
	if best.Position != n-1 || sel.Sorted[best.Position].FinalScore != n-1 {
		t.Fatalf("best = %+v, want position %d", best, n-1)
	}
	if worst.Label != "P0" || best.Label != "P100" {
		t.Fatalf("labels = %s, %s, want P0, P100", worst.Label, best.Label)
	}
	// P50 sits at round(0.5 * 10099).
	if got := sel.Deciles[5].Position; got != 5050 {
		t.Fatalf("P50 position = %d, want 5050", got)
	}
}

func TestSelectSortsBySeedOnTies(t *testing.T) {
	runs := make([]combat.LightweightRun, 100)
	for i := range runs {
		runs[i] = combat.LightweightRun{Seed: uint64(500 - i), FinalScore: 10}
	}
	sel, err := Select(runs)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	for i := 1; i < len(sel.Sorted); i++ {
		if sel.Sorted[i-1].Seed >= sel.Sorted[i].Seed {
			t.Fatalf("sorted[%d].Seed = %d not below sorted[%d].Seed = %d", i-1, sel.Sorted[i-1].Seed, i, sel.Sorted[i].Seed)
		}
	}
}

func TestSelectEmpty(t *testing.T) {
	_, err := Select(nil)
	if !errors.Is(err, apperrors.New(apperrors.CodeEmptyResult, "")) {
		t.Fatalf("err = %v, want EMPTY_RESULT", err)
	}
}

func TestSelectCoverageProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 3000).Draw(t, "n")
		vals := rapid.SliceOfN(rapid.IntRange(-50, 50), 1, 16).Draw(t, "scores")
		runs := make([]combat.LightweightRun, n)
		for i := range runs {
			score := float64(vals[i%len(vals)])
			runs[i] = combat.LightweightRun{Seed: uint64(i), FinalScore: score, EncounterScores: []float64{score}}
		}
		sel, err := Select(runs)
		if err != nil {
			t.Fatalf("select: %v", err)
		}
		covered := 0
		next := 0
		for _, b := range sel.Buckets {
			if b.Start != next {
				t.Fatalf("bucket %d starts at %d, want %d", b.Index, b.Start, next)
			}
			if b.Median.Position < b.Start || b.Median.Position >= b.End {
				t.Fatalf("bucket %d median %d outside [%d,%d)", b.Index, b.Median.Position, b.Start, b.End)
			}
			covered += b.Size()
			next = b.End
		}
		if covered != n {
			t.Fatalf("buckets cover %d runs, want %d", covered, n)
		}
		if n >= BucketCount && len(sel.Buckets) != BucketCount {
			t.Fatalf("buckets = %d, want %d", len(sel.Buckets), BucketCount)
		}
		if len(sel.Deciles) != DecileCount {
			t.Fatalf("deciles = %d, want %d", len(sel.Deciles), DecileCount)
		}
		if sel.Deciles[0].Position != 0 || sel.Deciles[DecileCount-1].Position != n-1 {
			t.Fatalf("deciles miss the extremes: %+v", sel.Deciles)
		}
	})
}

func TestSelectExtremesUseIncrements(t *testing.T) {
	runs := syntheticRuns(100)
	// Seed 1000 loses the most in encounter 1 while finishing mid-table.
	runs[0].EncounterScores = []float64{90, 50}
	runs[0].FinalScore = 50
	sel, err := Select(runs)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	var e1min SelectedSeed
	for _, x := range sel.Extremes {
		if x.Label == "E1_min" {
			e1min = x
		}
	}
	if e1min.Seed != 1000 {
		t.Fatalf("E1_min seed = %d, want 1000", e1min.Seed)
	}
	if len(sel.Extremes) != 4 {
		t.Fatalf("extremes = %d, want 4", len(sel.Extremes))
	}
}

func TestSelectUnexpectedDeathsTopHalfOnly(t *testing.T) {
	runs := syntheticRuns(100)
	for i := range runs {
		runs[i].Died = true
	}
	sel, err := Select(runs)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(sel.Unexpected) != 50 {
		t.Fatalf("unexpected = %d, want 50", len(sel.Unexpected))
	}
	for _, u := range sel.Unexpected {
		if u.Position < 50 || u.Tier != TierC {
			t.Fatalf("unexpected %+v, want top half tier C", u)
		}
	}
}

func TestPlanKeepsRichestTier(t *testing.T) {
	runs := syntheticRuns(100)
	runs[len(runs)-1].Died = true
	sel, err := Select(runs)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	plan := sel.Plan()
	seen := make(map[int]bool)
	for i, pr := range plan {
		if seen[pr.Position] {
			t.Fatalf("position %d planned twice", pr.Position)
		}
		seen[pr.Position] = true
		if i > 0 && plan[i-1].Position >= pr.Position {
			t.Fatalf("plan not ordered at %d", i)
		}
		if pr.Capture != pr.Tier.Capture() {
			t.Fatalf("plan %+v capture mismatch", pr)
		}
	}
	// Position 0 is both the P0 decile and bucket 0's median.
	if plan[0].Position != 0 || plan[0].Tier != TierA || plan[0].Capture != combat.CaptureFull {
		t.Fatalf("plan[0] = %+v, want tier A full capture at 0", plan[0])
	}
}

func TestPlanCaptureByTier(t *testing.T) {
	runs := syntheticRuns(1000)
	for i := range runs {
		// 997 is in the top half and is neither a decile nor a bucket median.
		if runs[i].FinalScore == 997 {
			runs[i].Died = true
		}
	}
	sel, err := Select(runs)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	want := map[int]struct {
		tier    Tier
		capture combat.Capture
	}{
		0:   {TierA, combat.CaptureFull},
		994: {TierB, combat.CaptureLean},
		997: {TierC, combat.CaptureNone},
	}
	found := 0
	for _, pr := range sel.Plan() {
		w, ok := want[pr.Position]
		if !ok {
			continue
		}
		found++
		if pr.Tier != w.tier || pr.Capture != w.capture {
			t.Fatalf("plan at %d = %v/%v, want %v/%v", pr.Position, pr.Tier, pr.Capture, w.tier, w.capture)
		}
	}
	if found != len(want) {
		t.Fatalf("found %d planned positions, want %d", found, len(want))
	}
}
