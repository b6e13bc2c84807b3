package analysis

import (
	"fmt"

	apperrors "github.com/louisbranch/skirmish/internal/platform/errors"
)

// DefaultMinSuccessRate is the smallest share of successful iterations a
// survey accepts.
const DefaultMinSuccessRate = 0.95

// Health counts how a survey batch went.
type Health struct {
	Attempted   int
	Succeeded   int
	Failed      int
	Retries     int
	SuccessRate float64
}

func (h *Health) finish() {
	if h.Attempted == 0 {
		h.SuccessRate = 0
		return
	}
	h.SuccessRate = float64(h.Succeeded) / float64(h.Attempted)
}

// Check rejects a batch whose success rate is below minRate.
func (h Health) Check(minRate float64) error {
	if h.Attempted == 0 {
		return apperrors.WithMetadata(apperrors.CodeEmptyResult, "survey attempted no runs",
			map[string]string{"Phase": "survey"})
	}
	if h.SuccessRate < minRate {
		reason := fmt.Sprintf("success rate %.1f%% below %.1f%% (%d of %d failed)",
			100*h.SuccessRate, 100*minRate, h.Failed, h.Attempted)
		return apperrors.WithMetadata(apperrors.CodeValidationFailed, "survey batch unhealthy",
			map[string]string{"Reason": reason})
	}
	return nil
}
