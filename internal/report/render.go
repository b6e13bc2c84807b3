// Package report renders analysis reports and run narratives as text.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/louisbranch/skirmish/internal/analysis"
	"github.com/louisbranch/skirmish/internal/combat"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultLocale is used when no locale or an unparsable one is given.
const DefaultLocale = "en-US"

// Options controls rendering.
type Options struct {
	Locale string
	// Verbose adds every bucket and the narrative of each decile exemplar.
	Verbose bool
}

// Printer returns a number-formatting printer for locale.
func Printer(locale string) *message.Printer {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil || tag == language.Und {
		tag = language.MustParse(DefaultLocale)
	}
	return message.NewPrinter(tag)
}

// Write renders r to w.
func Write(w io.Writer, r analysis.Report, opts Options) error {
	p := Printer(opts.Locale)
	ew := &errWriter{w: w}

	ew.printf(p, "Report %s\n", r.ID)
	ew.printf(p, "Scenario %q, base seed %s, created %s\n", r.Scenario, seed(r.BaseSeed), r.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	ew.printf(p, "Runs: %d attempted, %d succeeded (%.1f%%), %d failed, %d retries\n",
		r.Health.Attempted, r.Health.Succeeded, 100*r.Health.SuccessRate, r.Health.Failed, r.Health.Retries)
	s := r.Stats
	ew.printf(p, "Score: min %.0f  Q1 %.0f  median %.0f  Q3 %.0f  max %.0f\n", s.Min, s.Q1, s.Median, s.Q3, s.Max)
	ew.printf(p, "       mean %.1f  stddev %.1f  P90 %.0f  P99 %.0f\n\n", s.Mean, s.StdDev, s.P90, s.P99)

	ew.printf(p, "Encounters\n")
	tw := tabwriter.NewWriter(ew, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  #\tname\trole\twin rate\twins\tlosses\tdraws\tmean score")
	for _, e := range r.Encounters {
		fmt.Fprint(tw, p.Sprintf("  %d\t%s\t%s\t%.1f%%\t%d\t%d\t%d\t%.1f\n",
			e.Index+1, e.Name, e.Role, 100*e.WinRate, e.PartyWins, e.Losses, e.Draws, e.MeanScore))
	}
	_ = tw.Flush()

	ew.printf(p, "\nDeciles\n")
	tw = tabwriter.NewWriter(ew, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  label\tseed\tscore\tparty")
	for _, d := range r.Deciles {
		fmt.Fprint(tw, p.Sprintf("  %s\t%s\t%.0f\t%s\n", d.Label, seed(d.Seed), d.Score, partyLine(p, d.Characters)))
	}
	_ = tw.Flush()

	if len(r.Extremes) > 0 {
		ew.printf(p, "\nEncounter extremes\n")
		tw = tabwriter.NewWriter(ew, 0, 4, 2, ' ', 0)
		for _, x := range r.Extremes {
			fmt.Fprint(tw, p.Sprintf("  %s\t%s\t%.0f\n", x.Label, seed(x.Seed), x.Score))
		}
		_ = tw.Flush()
	}

	ew.printf(p, "\nBuckets\n")
	tw = tabwriter.NewWriter(ew, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  bucket\truns\tscore range\tmedian seed\tparty")
	for _, b := range r.Buckets {
		if !opts.Verbose && b.Index%10 != 0 && b.Index != len(r.Buckets)-1 {
			continue
		}
		fmt.Fprint(tw, p.Sprintf("  %d\t%d\t%.0f..%.0f\t%s\t%s\n",
			b.Index, b.Runs, b.MinScore, b.MaxScore, seed(b.MedianSeed), partyLine(p, b.Characters)))
	}
	_ = tw.Flush()

	if len(r.UnexpectedDeaths) > 0 {
		ew.printf(p, "\nUnexpected deaths (%d)\n", len(r.UnexpectedDeaths))
		for _, u := range r.UnexpectedDeaths {
			names := make([]string, len(u.Deaths))
			for i, c := range u.Deaths {
				names[i] = p.Sprintf("%s (encounter %d, round %d)", c.Name, c.DeathEncounter+1, c.DeathRound)
			}
			ew.printf(p, "  seed %s rank %d score %.0f: %s\n", seed(u.Seed), u.Position+1, u.Score, strings.Join(names, ", "))
		}
	}

	if opts.Verbose {
		for _, d := range r.Deciles {
			ew.printf(p, "\n== %s (seed %s) ==\n", d.Label, seed(d.Seed))
			if err := Narrative(ew, d.Encounters); err != nil {
				return err
			}
		}
	}
	return ew.err
}

// Narrative writes the event log of each encounter, one event per line.
func Narrative(w io.Writer, encounters []combat.EncounterResult) error {
	ew := &errWriter{w: w}
	for _, enc := range encounters {
		fmt.Fprintf(ew, "-- %s: %s", enc.Name, enc.Outcome)
		if !enc.Simulated {
			fmt.Fprintf(ew, " (not fought)\n")
			continue
		}
		fmt.Fprintf(ew, " after %d rounds, score %.0f\n", enc.Rounds, enc.Score)
		for _, e := range enc.Events {
			fmt.Fprintln(ew, e.String())
		}
	}
	return ew.err
}

func partyLine(p *message.Printer, chars []analysis.CharacterState) string {
	parts := make([]string, len(chars))
	for i, c := range chars {
		if c.Died {
			parts[i] = p.Sprintf("%s dead (e%d r%d)", c.ID, c.DeathEncounter+1, c.DeathRound)
			continue
		}
		parts[i] = p.Sprintf("%s %.0f%% hp %.0f%% res", c.ID, c.HPPercent, c.ResourcePercent)
	}
	return strings.Join(parts, ", ")
}

// seed renders a seed without digit grouping so it can be pasted into replay.
func seed(v uint64) string { return strconv.FormatUint(v, 10) }

// errWriter keeps the first write error and drops later writes.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(b []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(b)
	e.err = err
	return n, err
}

func (e *errWriter) printf(p *message.Printer, format string, args ...any) {
	_, _ = p.Fprintf(e, format, args...)
}
