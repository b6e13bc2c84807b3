// Package analysis runs the survey, selection, deep dive and aggregation
// pipeline over a combat scenario.
package analysis

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/louisbranch/skirmish/internal/combat"
	"github.com/louisbranch/skirmish/internal/core/random"
	"github.com/louisbranch/skirmish/internal/platform/logging"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/louisbranch/skirmish/internal/analysis"

// Config tunes a pipeline. Zero values take the package defaults.
type Config struct {
	Iterations int
	// BaseSeed pins the survey seeds. Nil draws one from crypto/rand.
	BaseSeed       *uint64
	Workers        int
	MaxRetries     int
	MinSuccessRate float64
}

func (c Config) withDefaults() Config {
	if c.Iterations < MinIterations {
		c.Iterations = MinIterations
	}
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.MinSuccessRate <= 0 {
		c.MinSuccessRate = DefaultMinSuccessRate
	}
	return c
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger for phase and retry logs.
func WithLogger(log logrus.FieldLogger) Option {
	return func(p *Pipeline) {
		if log != nil {
			p.log = log
		}
	}
}

// WithRunFunc replaces the function that plays one run.
func WithRunFunc(fn RunFunc) Option {
	return func(p *Pipeline) {
		if fn != nil {
			p.run = fn
		}
	}
}

// WithClock sets the time source for report timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

type counters struct {
	runs     metric.Int64Counter
	retries  metric.Int64Counter
	failures metric.Int64Counter
}

// Pipeline analyses one scenario. It is safe to call Run more than once.
type Pipeline struct {
	scenario *combat.Scenario
	cfg      Config
	log      logrus.FieldLogger
	run      RunFunc
	now      func() time.Time
	runners  *sync.Pool
	tracer   trace.Tracer
	metrics  counters
}

// New validates s and returns a pipeline over it.
func New(s *combat.Scenario, cfg Config, opts ...Option) (*Pipeline, error) {
	if s == nil {
		return nil, fmt.Errorf("analysis: scenario is required")
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("analysis: %w", err)
	}
	p := &Pipeline{
		scenario: s,
		cfg:      cfg.withDefaults(),
		log:      logging.Discard(),
		run:      PlayRun,
		now:      time.Now,
		runners:  newRunnerPool(),
		tracer:   otel.Tracer(instrumentationName),
	}
	for _, opt := range opts {
		opt(p)
	}

	meter := otel.Meter(instrumentationName)
	var err error
	if p.metrics.runs, err = meter.Int64Counter("skirmish.survey.runs",
		metric.WithDescription("Seeded runs played by the survey")); err != nil {
		return nil, fmt.Errorf("analysis: runs counter: %w", err)
	}
	if p.metrics.retries, err = meter.Int64Counter("skirmish.survey.retries",
		metric.WithDescription("Runs retried on a derived seed")); err != nil {
		return nil, fmt.Errorf("analysis: retries counter: %w", err)
	}
	if p.metrics.failures, err = meter.Int64Counter("skirmish.survey.failures",
		metric.WithDescription("Iterations that exhausted their retries")); err != nil {
		return nil, fmt.Errorf("analysis: failures counter: %w", err)
	}
	return p, nil
}

// Config returns the effective configuration.
func (p *Pipeline) Config() Config { return p.cfg }

// Result is a finished report plus the survey runs it was built from, in
// score order.
type Result struct {
	Report Report
	Runs   []combat.LightweightRun
}

// Run surveys, selects, deep-dives and aggregates.
func (p *Pipeline) Run(ctx context.Context) (Report, error) {
	res, err := p.Execute(ctx)
	return res.Report, err
}

// Execute is Run but also returns the sorted survey runs.
func (p *Pipeline) Execute(ctx context.Context) (Result, error) {
	base, err := p.baseSeed()
	if err != nil {
		return Result{}, err
	}
	ctx, span := p.tracer.Start(ctx, "analysis.run")
	defer span.End()
	span.SetAttributes(attribute.String("scenario", p.scenario.Name))

	start := p.now()
	survey, err := p.Survey(ctx, base, p.cfg.Iterations)
	if err != nil {
		return Result{}, err
	}

	sel, err := Select(survey.Runs)
	if err != nil {
		return Result{}, err
	}
	p.log.WithFields(logrus.Fields{
		"phase":      "select",
		"buckets":    len(sel.Buckets),
		"tier_a":     sel.Count(TierA),
		"tier_b":     sel.Count(TierB),
		"tier_c":     sel.Count(TierC),
		"unexpected": len(sel.Unexpected),
	}).Info("selection done")

	dd, err := p.DeepDive(ctx, sel)
	if err != nil {
		return Result{}, err
	}

	report, err := Aggregate(p.scenario, survey, sel, dd)
	if err != nil {
		return Result{}, err
	}
	report.ID = uuid.NewString()
	report.CreatedAt = p.now().UTC()
	p.log.WithFields(logrus.Fields{
		"phase":     "aggregate",
		"report_id": report.ID,
		"median":    report.Stats.Median,
		"elapsed":   p.now().Sub(start).String(),
	}).Info("report ready")
	return Result{Report: report, Runs: sel.Sorted}, nil
}

func (p *Pipeline) baseSeed() (uint64, error) {
	if p.cfg.BaseSeed != nil {
		return *p.cfg.BaseSeed, nil
	}
	seed, err := random.NewSeed()
	if err != nil {
		return 0, fmt.Errorf("analysis: %w", err)
	}
	return seed, nil
}
