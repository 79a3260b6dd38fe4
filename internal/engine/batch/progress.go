package batch

import (
	"math"
	"time"
)

// percentMultiplier converts a ratio to a percentage (0-100).
const percentMultiplier = 100

// Progress is a point-in-time view of a batch.
type Progress struct {
	Current    int     `json:"current"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`

	// ETASeconds is nil until at least one row has completed.
	ETASeconds *int64 `json:"eta_seconds,omitempty"`
}

// newProgress computes progress for processed of total rows, started at
// start and observed at now.
func newProgress(processed, total int, start, now time.Time) Progress {
	p := Progress{Current: processed, Total: total}
	if total > 0 {
		p.Percentage = float64(processed) / float64(total) * percentMultiplier
	}
	if eta, ok := EstimateETA(processed, total, now.Sub(start)); ok {
		p.ETASeconds = &eta
	}
	return p
}

// EstimateETA extrapolates the seconds remaining from the mean time per
// completed row: round(remaining * (elapsedMs / processed) / 1000). It
// reports false until processed > 0.
func EstimateETA(processed, total int, elapsed time.Duration) (int64, bool) {
	if processed <= 0 {
		return 0, false
	}
	remaining := max(total-processed, 0)
	elapsedMs := float64(max(elapsed.Milliseconds(), 0))
	eta := math.Round(float64(remaining) * (elapsedMs / float64(processed)) / 1000)
	return int64(eta), true
}
