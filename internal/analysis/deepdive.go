package analysis

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/louisbranch/skirmish/internal/combat"
	apperrors "github.com/louisbranch/skirmish/internal/platform/errors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// DeepDiveRuns maps a sorted survey position to its re-run at full detail.
type DeepDiveRuns map[int]combat.RunResult

// DeepDive re-runs every planned seed once at its capture level. A re-run
// whose scores differ from the survey record is an UnexpectedState error:
// capture level must never change the outcome of a seed.
func (p *Pipeline) DeepDive(ctx context.Context, sel Selection) (DeepDiveRuns, error) {
	plan := sel.Plan()
	ctx, span := p.tracer.Start(ctx, "analysis.deep_dive")
	defer span.End()
	span.SetAttributes(attribute.Int("seeds", len(plan)))

	log := p.log.WithFields(logrus.Fields{"phase": "deep_dive", "seeds": len(plan)})
	log.Info("deep dive started")

	results := make([]combat.RunResult, len(plan))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)
	for i, pr := range plan {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			runner := p.runners.Get().(*combat.Runner)
			defer p.runners.Put(runner)

			rr, err := p.run(runner, p.scenario, pr.Seed, pr.Capture)
			if err != nil {
				return fmt.Errorf("deep dive seed %d: %w", pr.Seed, err)
			}
			if err := matchSurvey(sel.Sorted[pr.Position], rr.Lightweight()); err != nil {
				return err
			}
			results[i] = rr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	dd := make(DeepDiveRuns, len(plan))
	for i, pr := range plan {
		dd[pr.Position] = results[i]
	}
	log.Info("deep dive finished")
	return dd, nil
}

func matchSurvey(want, got combat.LightweightRun) error {
	if want.FinalScore == got.FinalScore && slices.Equal(want.EncounterScores, got.EncounterScores) {
		return nil
	}
	return apperrors.WithMetadata(apperrors.CodeUnexpectedState, "deep dive diverged from survey", map[string]string{
		"Seed":   strconv.FormatUint(want.Seed, 10),
		"Reason": fmt.Sprintf("survey score %.0f, deep dive score %.0f", want.FinalScore, got.FinalScore),
	})
}
