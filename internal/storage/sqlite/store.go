// Package sqlite provides a SQLite-backed report archive.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/skirmish/internal/analysis"
	"github.com/louisbranch/skirmish/internal/combat"
	apperrors "github.com/louisbranch/skirmish/internal/platform/errors"
	"github.com/louisbranch/skirmish/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/skirmish/internal/storage"
	"github.com/louisbranch/skirmish/internal/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store persists reports in SQLite.
type Store struct {
	sqlDB *sql.DB
}

var _ storage.ReportStore = (*Store)(nil)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Seeds use the full uint64 range; SQLite integers are signed, so they are
// stored bit for bit as int64.
func seedToDB(seed uint64) int64 { return int64(seed) }

func seedFromDB(v int64) uint64 { return uint64(v) }

// Open opens a SQLite report store and applies embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlitemigrate.Apply(ctx, sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// SaveReport inserts the report and its score-sorted survey runs in one
// transaction.
func (s *Store) SaveReport(ctx context.Context, report analysis.Report, runs []combat.LightweightRun) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(report.ID) == "" {
		return apperrors.WithMetadata(apperrors.CodeValidationFailed, "report id is required",
			map[string]string{"Reason": "report id is required"})
	}
	body, err := json.Marshal(report)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeSerializationError, "encode report", err)
	}
	createdAt := report.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save report: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO reports (id, scenario, base_seed, iterations, success_rate, median_score, body, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		report.ID,
		report.Scenario,
		seedToDB(report.BaseSeed),
		report.Iterations,
		report.Health.SuccessRate,
		report.Stats.Median,
		string(body),
		toMillis(createdAt),
	); err != nil {
		return fmt.Errorf("insert report: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO survey_runs (
		   report_id, position, seed, final_score, encounter_scores, encounter_outcomes,
		   total_hp_lost, survivors, died, first_death_encounter, outcome
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare survey run insert: %w", err)
	}
	defer stmt.Close()

	for pos, run := range runs {
		scores, err := json.Marshal(run.EncounterScores)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeSerializationError, "encode encounter scores", err)
		}
		outcomes, err := json.Marshal(run.EncounterOutcomes)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeSerializationError, "encode encounter outcomes", err)
		}
		if _, err := stmt.ExecContext(ctx,
			report.ID, pos, seedToDB(run.Seed), run.FinalScore, string(scores), string(outcomes),
			run.TotalHPLost, run.Survivors, boolToInt(run.Died), run.FirstDeathEncounter, int(run.Outcome),
		); err != nil {
			return fmt.Errorf("insert survey run %d: %w", pos, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save report: %w", err)
	}
	return nil
}

// GetReport returns one archived report by ID.
func (s *Store) GetReport(ctx context.Context, id string) (analysis.Report, error) {
	if err := ctx.Err(); err != nil {
		return analysis.Report{}, err
	}
	var body string
	err := s.sqlDB.QueryRowContext(ctx, `SELECT body FROM reports WHERE id = ?`, strings.TrimSpace(id)).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return analysis.Report{}, notFound("report", id)
	}
	if err != nil {
		return analysis.Report{}, fmt.Errorf("get report: %w", err)
	}
	var report analysis.Report
	if err := json.Unmarshal([]byte(body), &report); err != nil {
		return analysis.Report{}, apperrors.Wrap(apperrors.CodeSerializationError, "decode report", err)
	}
	return report, nil
}

// ListReports returns the newest reports first. A non-positive limit
// returns every report.
func (s *Store) ListReports(ctx context.Context, limit int) ([]storage.ReportSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, scenario, base_seed, iterations, success_rate, median_score, created_at
		 FROM reports ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var out []storage.ReportSummary
	for rows.Next() {
		var (
			sum       storage.ReportSummary
			baseSeed  int64
			createdAt int64
		)
		if err := rows.Scan(&sum.ID, &sum.Scenario, &baseSeed, &sum.Iterations, &sum.SuccessRate, &sum.Median, &createdAt); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		sum.BaseSeed = seedFromDB(baseSeed)
		sum.CreatedAt = fromMillis(createdAt)
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}
	return out, nil
}

// GetSurveyRun returns the survey record of seed within a report.
func (s *Store) GetSurveyRun(ctx context.Context, reportID string, seed uint64) (storage.SurveyRun, error) {
	if err := ctx.Err(); err != nil {
		return storage.SurveyRun{}, err
	}
	var (
		out      storage.SurveyRun
		dbSeed   int64
		scores   string
		outcomes string
		died     int
		outcome  int
	)
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT position, seed, final_score, encounter_scores, encounter_outcomes,
		        total_hp_lost, survivors, died, first_death_encounter, outcome
		 FROM survey_runs WHERE report_id = ? AND seed = ?
		 ORDER BY position LIMIT 1`,
		strings.TrimSpace(reportID), seedToDB(seed),
	).Scan(&out.Position, &dbSeed, &out.Run.FinalScore, &scores, &outcomes,
		&out.Run.TotalHPLost, &out.Run.Survivors, &died, &out.Run.FirstDeathEncounter, &outcome)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.SurveyRun{}, notFound("survey run", fmt.Sprintf("%s/%d", reportID, seed))
	}
	if err != nil {
		return storage.SurveyRun{}, fmt.Errorf("get survey run: %w", err)
	}
	if err := json.Unmarshal([]byte(scores), &out.Run.EncounterScores); err != nil {
		return storage.SurveyRun{}, apperrors.Wrap(apperrors.CodeSerializationError, "decode encounter scores", err)
	}
	if err := json.Unmarshal([]byte(outcomes), &out.Run.EncounterOutcomes); err != nil {
		return storage.SurveyRun{}, apperrors.Wrap(apperrors.CodeSerializationError, "decode encounter outcomes", err)
	}
	out.Run.Seed = seedFromDB(dbSeed)
	out.Run.Died = died != 0
	out.Run.Outcome = combat.Outcome(outcome)
	return out, nil
}

func notFound(kind, id string) error {
	return apperrors.WrapWithMetadata(apperrors.CodeNotFound, kind+" not found",
		map[string]string{"Kind": kind, "ID": id}, storage.ErrNotFound)
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
