package analysis

import (
	"math"
	"testing"

	apperrors "github.com/louisbranch/skirmish/internal/platform/errors"
)

func TestComputeStats(t *testing.T) {
	st := ComputeStats([]float64{5, 1, 4, 2, 3})
	want := Stats{Count: 5, Min: 1, Max: 5, Mean: 3, Median: 3, Q1: 2, Q3: 4}
	if st.Count != want.Count || st.Min != want.Min || st.Max != want.Max || st.Mean != want.Mean ||
		st.Median != want.Median || st.Q1 != want.Q1 || st.Q3 != want.Q3 {
		t.Fatalf("stats = %+v, want %+v", st, want)
	}
	if math.Abs(st.StdDev-math.Sqrt2) > 1e-9 {
		t.Fatalf("stddev = %v, want sqrt(2)", st.StdDev)
	}
	if math.Abs(st.P90-4.6) > 1e-9 {
		t.Fatalf("p90 = %v, want 4.6", st.P90)
	}
}

func TestComputeStatsEdges(t *testing.T) {
	if st := ComputeStats(nil); st != (Stats{}) {
		t.Fatalf("empty stats = %+v", st)
	}
	st := ComputeStats([]float64{-7})
	if st.Min != -7 || st.Max != -7 || st.P99 != -7 || st.StdDev != 0 {
		t.Fatalf("single stats = %+v", st)
	}
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name string
		h    Health
		code apperrors.Code
	}{
		{name: "healthy", h: Health{Attempted: 100, Succeeded: 95}},
		{name: "unhealthy", h: Health{Attempted: 100, Succeeded: 94, Failed: 6}, code: apperrors.CodeValidationFailed},
		{name: "empty", h: Health{}, code: apperrors.CodeEmptyResult},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.h.finish()
			err := tt.h.Check(DefaultMinSuccessRate)
			if tt.code == "" {
				if err != nil {
					t.Fatalf("err = %v, want nil", err)
				}
				return
			}
			if apperrors.CodeOf(err) != tt.code {
				t.Fatalf("err = %v, want %s", err, tt.code)
			}
		})
	}
}
