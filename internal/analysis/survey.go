package analysis

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/louisbranch/skirmish/internal/combat"
	"github.com/louisbranch/skirmish/internal/core/random"
	apperrors "github.com/louisbranch/skirmish/internal/platform/errors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"
)

const (
	// MinIterations is the smallest survey; smaller requests are raised to it.
	MinIterations = 100
	// DefaultMaxRetries bounds re-seeded attempts for one failing iteration.
	DefaultMaxRetries = 3
)

// RunFunc plays one seeded run. A returned error marks the attempt failed.
type RunFunc func(r *combat.Runner, s *combat.Scenario, seed uint64, capture combat.Capture) (combat.RunResult, error)

// PlayRun is the default RunFunc. A panic inside the kernel becomes an
// UnexpectedState error and the result is checked before it is accepted.
func PlayRun(r *combat.Runner, s *combat.Scenario, seed uint64, capture combat.Capture) (rr combat.RunResult, err error) {
	defer func() {
		if v := recover(); v != nil {
			r.Roller.Clear()
			err = apperrors.WithMetadata(apperrors.CodeUnexpectedState, fmt.Sprintf("run panicked: %v", v),
				map[string]string{"Reason": fmt.Sprint(v)})
		}
	}()
	rr = r.Run(s, seed, capture)
	if err := rr.Check(); err != nil {
		return rr, err
	}
	return rr, nil
}

// SurveyResult is the lightweight record of every successful iteration in
// iteration order.
type SurveyResult struct {
	BaseSeed uint64
	Runs     []combat.LightweightRun
	Health   Health
	// Failures holds one RetryExhausted error per iteration that never
	// succeeded.
	Failures []error
}

type iteration struct {
	run     combat.LightweightRun
	ok      bool
	retries int
	err     error
}

// Survey plays n iterations seeded base+i at CaptureNone. Iterations run in
// parallel up to the configured worker count. Cancellation is observed
// between iterations. The batch fails with ValidationFailed when its success
// rate is below the configured minimum.
func (p *Pipeline) Survey(ctx context.Context, base uint64, n int) (SurveyResult, error) {
	n = max(n, MinIterations)
	ctx, span := p.tracer.Start(ctx, "analysis.survey")
	defer span.End()
	span.SetAttributes(attribute.Int("iterations", n), attribute.String("base_seed", strconv.FormatUint(base, 10)))

	log := p.log.WithFields(logrus.Fields{"phase": "survey", "iterations": n, "base_seed": base})
	log.Info("survey started")

	slots := make([]iteration, n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)
	for i := range n {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			runner := p.runners.Get().(*combat.Runner)
			defer p.runners.Put(runner)
			slots[i] = p.runWithRetry(gctx, runner, base+uint64(i), log)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return SurveyResult{}, fmt.Errorf("survey: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return SurveyResult{}, fmt.Errorf("survey: %w", err)
	}

	result := SurveyResult{BaseSeed: base, Runs: make([]combat.LightweightRun, 0, n)}
	for _, it := range slots {
		result.Health.Attempted++
		result.Health.Retries += it.retries
		if !it.ok {
			result.Health.Failed++
			result.Failures = append(result.Failures, it.err)
			continue
		}
		result.Health.Succeeded++
		result.Runs = append(result.Runs, it.run)
	}
	result.Health.finish()

	log.WithFields(logrus.Fields{
		"succeeded":    result.Health.Succeeded,
		"failed":       result.Health.Failed,
		"retries":      result.Health.Retries,
		"success_rate": result.Health.SuccessRate,
	}).Info("survey finished")

	if err := result.Health.Check(p.cfg.MinSuccessRate); err != nil {
		span.RecordError(err)
		return result, err
	}
	return result, nil
}

// runWithRetry plays seed, then up to MaxRetries derived seeds. The
// LightweightRun carries the seed that finally succeeded.
func (p *Pipeline) runWithRetry(ctx context.Context, runner *combat.Runner, seed uint64, log logrus.FieldLogger) iteration {
	var it iteration
	var last error
	for attempt := 0; attempt <= p.cfg.MaxRetries; attempt++ {
		s := random.Derive(seed, attempt)
		rr, err := p.run(runner, p.scenario, s, combat.CaptureNone)
		p.metrics.runs.Add(ctx, 1)
		if err == nil {
			it.run = rr.Lightweight()
			it.ok = true
			return it
		}
		last = err
		if attempt < p.cfg.MaxRetries {
			it.retries++
			p.metrics.retries.Add(ctx, 1)
			log.WithFields(logrus.Fields{"seed": seed, "attempt": attempt + 1, "error": err}).Warn("run failed, retrying")
		}
	}
	p.metrics.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("code", string(apperrors.CodeOf(last)))))
	it.err = apperrors.WrapWithMetadata(apperrors.CodeRetryExhausted, "run failed after retries", map[string]string{
		"Seed":     strconv.FormatUint(seed, 10),
		"Attempts": strconv.Itoa(p.cfg.MaxRetries + 1),
	}, last)
	return it
}

func newRunnerPool() *sync.Pool {
	return &sync.Pool{New: func() any { return combat.NewRunner() }}
}
