// Package storage defines the report archive used by the simulate and
// replay commands.
//
// Implementations live in subpackages. Lookups that find nothing return an
// error carrying errors.CodeNotFound.
package storage

import (
	"context"
	"time"

	"github.com/louisbranch/skirmish/internal/analysis"
	"github.com/louisbranch/skirmish/internal/combat"
	apperrors "github.com/louisbranch/skirmish/internal/platform/errors"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// ReportSummary is the listing row of an archived report.
type ReportSummary struct {
	ID          string
	Scenario    string
	BaseSeed    uint64
	Iterations  int
	SuccessRate float64
	Median      float64
	CreatedAt   time.Time
}

// SurveyRun is one archived survey record. Position is its rank in the
// score-sorted survey.
type SurveyRun struct {
	Position int
	Run      combat.LightweightRun
}

// ReportStore archives reports with the survey runs they were built from.
type ReportStore interface {
	SaveReport(ctx context.Context, report analysis.Report, runs []combat.LightweightRun) error
	GetReport(ctx context.Context, id string) (analysis.Report, error)
	ListReports(ctx context.Context, limit int) ([]ReportSummary, error)
	GetSurveyRun(ctx context.Context, reportID string, seed uint64) (SurveyRun, error)
}
