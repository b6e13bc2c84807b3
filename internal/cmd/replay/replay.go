// Package replay implements the replay command: play one seed of a scenario
// at a chosen capture level and print what happened.
package replay

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/louisbranch/skirmish/internal/combat"
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

// Config holds replay command configuration.
type Config struct {
	Scenario string `env:"SCENARIO"`
	Seed     string
	Capture  string `env:"REPLAY_CAPTURE" envDefault:"full"`
	Store    string `env:"STORE"`
	// Report, with Store, checks the replay against that report's survey.
	Report string
	Locale string `env:"LOCALE" envDefault:"en-US"`

	Logging logging.Config
	OTel    platformotel.Config
}

// ParseConfig reads SKIRMISH_ environment variables and then flags.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := platformcmd.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.Scenario, "scenario", cfg.Scenario, "path to a .yaml or .lua scenario")
	fs.StringVar(&cfg.Seed, "seed", "", "seed to replay (required)")
	fs.StringVar(&cfg.Capture, "capture", cfg.Capture, "capture level (none, lean, full)")
	fs.StringVar(&cfg.Store, "store", cfg.Store, "sqlite report archive path")
	fs.StringVar(&cfg.Report, "report", "", "report id to verify the replay against")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "locale for numbers and error messages")
	fs.StringVar(&cfg.Logging.Level, "log-level", cfg.Logging.Level, "log level")
	if err := platformcmd.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run executes the replay command.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}
	log := logging.New(cfg.Logging, errOut)
	return platformcmd.RunWithTelemetry(ctx, platformcmd.ServiceReplay, cfg.OTel, platformcmd.RunOptions{Logger: log},
		func(ctx context.Context) error { return replay(ctx, cfg, out, log) })
}

func replay(ctx context.Context, cfg Config, out io.Writer, log *logrus.Logger) error {
	if strings.TrimSpace(cfg.Scenario) == "" {
		return invalid("scenario path is required")
	}
	if strings.TrimSpace(cfg.Seed) == "" {
		return invalid("seed is required")
	}
	seed, err := random.ParseSeed(cfg.Seed)
	if err != nil {
		return invalid(err.Error())
	}
	capture, err := combat.ParseCapture(cfg.Capture)
	if err != nil {
		return err
	}
	if cfg.Report != "" && cfg.Store == "" {
		return invalid("-report requires -store")
	}

	s, err := scenario.Load(cfg.Scenario)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	rr := combat.NewRunner().Run(s, seed, capture)
	if err := rr.Check(); err != nil {
		return err
	}
	run := rr.Lightweight()
	log.WithFields(logrus.Fields{
		"scenario": s.Name,
		"seed":     seed,
		"capture":  capture.String(),
		"score":    run.FinalScore,
	}).Info("replay finished")

	if cfg.Report != "" {
		if err := verify(ctx, cfg, run); err != nil {
			return err
		}
		log.WithField("report_id", cfg.Report).Info("replay matches survey")
	}

	p := report.Printer(cfg.Locale)
	if _, err := p.Fprintf(out, "Scenario %q seed %s: %s, score %.0f, %d survivors, %d HP lost\n",
		s.Name, strconv.FormatUint(seed, 10), run.Outcome, run.FinalScore, run.Survivors, run.TotalHPLost); err != nil {
		return err
	}
	for _, m := range rr.Party {
		var err error
		if m.Died {
			_, err = p.Fprintf(out, "  %s died in encounter %d, round %d\n", m.Name, m.DeathEncounter+1, m.DeathRound)
		} else {
			_, err = p.Fprintf(out, "  %s %d/%d HP, %.0f%% resources\n", m.Name, m.HP, m.MaxHP, m.ResourcePercent)
		}
		if err != nil {
			return err
		}
	}
	return report.Narrative(out, rr.Encounters)
}

func verify(ctx context.Context, cfg Config, run combat.LightweightRun) error {
	store, err := sqlite.Open(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	archived, err := store.GetSurveyRun(ctx, cfg.Report, run.Seed)
	if err != nil {
		return err
	}
	if archived.Run.FinalScore != run.FinalScore {
		reason := fmt.Sprintf("seed %d replayed to score %v, survey recorded %v", run.Seed, run.FinalScore, archived.Run.FinalScore)
		return apperrors.WithMetadata(apperrors.CodeUnexpectedState, reason,
			map[string]string{"Seed": fmt.Sprint(run.Seed), "Reason": reason})
	}
	return nil
}

func invalid(reason string) error {
	return apperrors.WithMetadata(apperrors.CodeValidationFailed, reason, map[string]string{"Reason": reason})
}
