// Package simulate implements the simulate command: survey a scenario, build
// its percentile report, render it and optionally archive it.
package simulate

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/louisbranch/skirmish/internal/analysis"
	"github.com/louisbranch/skirmish/internal/core/random"
	platformcmd "github.com/louisbranch/skirmish/internal/platform/cmd"
	apperrors "github.com/louisbranch/skirmish/internal/platform/errors"
	"github.com/louisbranch/skirmish/internal/platform/logging"
	platformotel "github.com/louisbranch/skirmish/internal/platform/otel"
	"github.com/louisbranch/skirmish/internal/report"
	"github.com/louisbranch/skirmish/internal/scenario"
	"github.com/louisbranch/skirmish/internal/storage/sqlite"
	"github.com/sirupsen/logrus"
)

// Config holds simulate command configuration.
type Config struct {
	Scenario       string  `env:"SCENARIO"`
	Iterations     int     `env:"ITERATIONS"       envDefault:"10000"`
	Seed           string  `env:"SEED"`
	Workers        int     `env:"WORKERS"`
	MaxRetries     int     `env:"MAX_RETRIES"      envDefault:"3"`
	MinSuccessRate float64 `env:"MIN_SUCCESS_RATE" envDefault:"0.95"`
	Store          string  `env:"STORE"`
	Locale         string  `env:"LOCALE"           envDefault:"en-US"`
	Verbose        bool    `env:"VERBOSE"`

	// List prints archived reports instead of simulating.
	List  bool
	Limit int
	// Show renders one archived report by ID.
	Show string

	Logging logging.Config
	OTel    platformotel.Config
}

// ParseConfig reads SKIRMISH_ environment variables and then flags, so
// flags win.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := platformcmd.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	cfg.Limit = 20

	fs.StringVar(&cfg.Scenario, "scenario", cfg.Scenario, "path to a .yaml or .lua scenario")
	fs.IntVar(&cfg.Iterations, "n", cfg.Iterations, "survey iterations (minimum 100)")
	fs.StringVar(&cfg.Seed, "seed", cfg.Seed, "base seed (default: random)")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "parallel workers (default: GOMAXPROCS)")
	fs.IntVar(&cfg.MaxRetries, "retries", cfg.MaxRetries, "retries per failed run")
	fs.Float64Var(&cfg.MinSuccessRate, "min-success", cfg.MinSuccessRate, "minimum survey success rate")
	fs.StringVar(&cfg.Store, "store", cfg.Store, "sqlite report archive path (optional)")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "locale for numbers and error messages")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "print every bucket and decile narratives")
	fs.BoolVar(&cfg.List, "list", false, "list archived reports")
	fs.IntVar(&cfg.Limit, "limit", cfg.Limit, "reports shown by -list (0 = all)")
	fs.StringVar(&cfg.Show, "show", "", "render an archived report by id")
	fs.StringVar(&cfg.Logging.Level, "log-level", cfg.Logging.Level, "log level")
	fs.StringVar((*string)(&cfg.Logging.Format), "log-format", string(cfg.Logging.Format), "log format (text, json)")
	if err := platformcmd.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run executes the simulate command.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}
	log := logging.New(cfg.Logging, errOut)
	return platformcmd.RunWithTelemetry(ctx, platformcmd.ServiceSimulate, cfg.OTel, platformcmd.RunOptions{Logger: log},
		func(ctx context.Context) error { return simulate(ctx, cfg, out, log) })
}

func simulate(ctx context.Context, cfg Config, out io.Writer, log *logrus.Logger) error {
	if cfg.List || cfg.Show != "" {
		return browse(ctx, cfg, out)
	}
	if strings.TrimSpace(cfg.Scenario) == "" {
		return invalid("scenario path is required")
	}

	pcfg := analysis.Config{
		Iterations:     cfg.Iterations,
		Workers:        cfg.Workers,
		MaxRetries:     cfg.MaxRetries,
		MinSuccessRate: cfg.MinSuccessRate,
	}
	if strings.TrimSpace(cfg.Seed) != "" {
		seed, err := random.ParseSeed(cfg.Seed)
		if err != nil {
			return invalid(err.Error())
		}
		pcfg.BaseSeed = &seed
	}
	if cfg.Iterations < analysis.MinIterations {
		log.WithFields(logrus.Fields{"requested": cfg.Iterations, "minimum": analysis.MinIterations}).
			Warn("iterations raised to minimum")
	}

	s, err := scenario.Load(cfg.Scenario)
	if err != nil {
		return err
	}
	p, err := analysis.New(s, pcfg, analysis.WithLogger(log.WithField("scenario", s.Name)))
	if err != nil {
		return err
	}
	res, err := p.Execute(ctx)
	if err != nil {
		return err
	}

	if cfg.Store != "" {
		store, err := sqlite.Open(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.SaveReport(ctx, res.Report, res.Runs); err != nil {
			return fmt.Errorf("archive report: %w", err)
		}
		log.WithFields(logrus.Fields{"report_id": res.Report.ID, "store": cfg.Store}).Info("report archived")
	}

	return report.Write(out, res.Report, report.Options{Locale: cfg.Locale, Verbose: cfg.Verbose})
}

func browse(ctx context.Context, cfg Config, out io.Writer) error {
	if cfg.Store == "" {
		return invalid("-store is required to browse reports")
	}
	store, err := sqlite.Open(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	if cfg.Show != "" {
		r, err := store.GetReport(ctx, cfg.Show)
		if err != nil {
			return err
		}
		return report.Write(out, r, report.Options{Locale: cfg.Locale, Verbose: cfg.Verbose})
	}

	reports, err := store.ListReports(ctx, cfg.Limit)
	if err != nil {
		return err
	}
	p := report.Printer(cfg.Locale)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "id\tscenario\tseed\truns\tsuccess\tmedian\tcreated")
	for _, r := range reports {
		fmt.Fprint(tw, p.Sprintf("%s\t%s\t%s\t%d\t%.1f%%\t%.0f\t%s\n",
			r.ID, r.Scenario, fmt.Sprint(r.BaseSeed), r.Iterations, 100*r.SuccessRate, r.Median,
			r.CreatedAt.Format("2006-01-02 15:04")))
	}
	return tw.Flush()
}

func invalid(reason string) error {
	return apperrors.WithMetadata(apperrors.CodeValidationFailed, reason, map[string]string{"Reason": reason})
}
