package simulate

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	apperrors "github.com/louisbranch/skirmish/internal/platform/errors"
	"github.com/louisbranch/skirmish/internal/platform/logging"
)

const duelYAML = `
name: duel
party:
  - name: Fighter
    hp: 30
    ac: 16
    actions:
      - name: Longsword
        attack: {to_hit: 5, damage: 1d8+3}
timeline:
  - combat:
      name: Bandit
      monsters:
        - name: Bandit
          hp: 11
          ac: 12
          actions:
            - name: Scimitar
              attack: {to_hit: 3, damage: 1d6+1}
`

func writeScenario(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "duel.yaml")
	if err := os.WriteFile(path, []byte(duelYAML), 0o644); err != nil {
		t.Fatalf("write scenario: %v", err)
	}
	return path
}

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("simulate", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Iterations != 10000 || cfg.MaxRetries != 3 || cfg.MinSuccessRate != 0.95 {
		t.Fatalf("config = %+v", cfg)
	}
	if cfg.Locale != "en-US" || cfg.Logging.Level != "info" || cfg.Logging.Format != logging.FormatText {
		t.Fatalf("config = %+v", cfg)
	}
	if !cfg.OTel.Enabled || cfg.OTel.Endpoint != "" {
		t.Fatalf("otel config = %+v", cfg.OTel)
	}
}

func TestParseConfigFlagsOverrideEnv(t *testing.T) {
	t.Setenv("SKIRMISH_ITERATIONS", "500")
	t.Setenv("SKIRMISH_SEED", "7")
	t.Setenv("SKIRMISH_LOG_FORMAT", "json")

	fs := flag.NewFlagSet("simulate", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-n", "200", "-scenario", "duel.yaml"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Iterations != 200 || cfg.Seed != "7" || cfg.Scenario != "duel.yaml" {
		t.Fatalf("config = %+v", cfg)
	}
	if cfg.Logging.Format != logging.FormatJSON {
		t.Fatalf("log format = %q, want json", cfg.Logging.Format)
	}
}

func TestParseConfigEnvError(t *testing.T) {
	t.Setenv("SKIRMISH_ITERATIONS", "lots")
	fs := flag.NewFlagSet("simulate", flag.ContinueOnError)
	if _, err := ParseConfig(fs, nil); err == nil {
		t.Fatal("expected env parse error")
	}
}

func testConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		Scenario:   writeScenario(t),
		Iterations: 100,
		Seed:       "99",
		Workers:    2,
		Locale:     "en-US",
		Logging:    logging.Config{Level: "info", Format: logging.FormatJSON},
	}
}

func TestRunRendersAndArchives(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store = filepath.Join(t.TempDir(), "reports.db")

	var out, errOut bytes.Buffer
	if err := Run(context.Background(), cfg, &out, &errOut); err != nil {
		t.Fatalf("run: %v\n%s", err, errOut.String())
	}
	if !strings.Contains(out.String(), `Scenario "duel", base seed 99,`) {
		t.Fatalf("report output:\n%s", out.String())
	}
	if !strings.Contains(errOut.String(), `"msg":"report archived"`) || !strings.Contains(errOut.String(), `"phase":"survey"`) {
		t.Fatalf("logs:\n%s", errOut.String())
	}

	var list bytes.Buffer
	cfg.List = true
	if err := Run(context.Background(), cfg, &list, nil); err != nil {
		t.Fatalf("list: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(list.String()), "\n")
	if len(lines) != 2 || !strings.Contains(lines[1], "duel") || !strings.Contains(lines[1], "99") {
		t.Fatalf("list output:\n%s", list.String())
	}

	id := strings.Fields(lines[1])[0]
	var shown bytes.Buffer
	cfg.List = false
	cfg.Show = id
	if err := Run(context.Background(), cfg, &shown, nil); err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(shown.String(), "Report "+id) {
		t.Fatalf("show output:\n%s", shown.String())
	}
}

func TestRunIsDeterministicForSeed(t *testing.T) {
	render := func() string {
		var out bytes.Buffer
		if err := Run(context.Background(), testConfig(t), &out, nil); err != nil {
			t.Fatalf("run: %v", err)
		}
		// Drop the header lines carrying the report id and timestamp.
		lines := strings.SplitN(out.String(), "\n", 3)
		return lines[2]
	}
	if a, b := render(), render(); a != b {
		t.Fatalf("same seed rendered differently:\n%s\n---\n%s", a, b)
	}
}

func TestRunValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "missing scenario", mutate: func(c *Config) { c.Scenario = "" }},
		{name: "bad seed", mutate: func(c *Config) { c.Seed = "abc" }},
		{name: "browse without store", mutate: func(c *Config) { c.List = true }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.mutate(&cfg)
			err := Run(context.Background(), cfg, nil, nil)
			if apperrors.CodeOf(err) != apperrors.CodeValidationFailed {
				t.Fatalf("err = %v, want VALIDATION_FAILED", err)
			}
		})
	}
}

func TestRunShowMissingReport(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store = filepath.Join(t.TempDir(), "reports.db")
	cfg.Show = "nope"
	err := Run(context.Background(), cfg, nil, nil)
	if apperrors.CodeOf(err) != apperrors.CodeNotFound {
		t.Fatalf("err = %v, want NOT_FOUND", err)
	}
	if got := apperrors.CodeOf(err).ExitCode(); got != 3 {
		t.Fatalf("exit code = %d, want 3", got)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Run(ctx, testConfig(t), nil, nil); err == nil {
		t.Fatal("expected cancelled run to fail")
	}
}
