package batch

import (
	"sort"
	"time"

	"github.com/rshade/promptbatch/internal/engine"
)

// Status is the outcome of a drained batch.
type Status string

// Batch outcomes.
const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Summary aggregates the results of a batch.
type Summary struct {
	BatchID          string   `json:"batch_id"`
	TotalRows        int      `json:"total_rows"`
	SuccessCount     int      `json:"success_count"`
	ErrorCount       int      `json:"error_count"`
	CriticalCount    int      `json:"critical_count"`
	TotalCost        float64  `json:"total_cost"`
	AverageLatencyMs float64  `json:"average_latency_ms"`
	DurationMs       int64    `json:"duration_ms"`
	ModelsUsed       []string `json:"models_used"`
	Status           Status   `json:"status"`
}

// BuildSummary aggregates results. Duration spans from start to end, so a
// resumed batch reports time since its original start.
func BuildSummary(batchID string, totalRows int, results []engine.Result, start, end time.Time) Summary {
	s := Summary{
		BatchID:    batchID,
		TotalRows:  totalRows,
		DurationMs: end.Sub(start).Milliseconds(),
		ModelsUsed: []string{},
		Status:     StatusCompleted,
	}

	models := make(map[string]bool)
	var latencySum int64
	var latencyCount int
	for _, r := range results {
		switch {
		case r.Status == engine.StatusSuccess:
			s.SuccessCount++
		case r.Status.IsCritical():
			s.ErrorCount++
			s.CriticalCount++
		default:
			s.ErrorCount++
		}
		if r.CostUSD != nil {
			s.TotalCost += *r.CostUSD
		}
		if r.LatencyMs != nil {
			latencySum += *r.LatencyMs
			latencyCount++
		}
		if r.Model != "" && !models[r.Model] {
			models[r.Model] = true
			s.ModelsUsed = append(s.ModelsUsed, r.Model)
		}
	}

	if latencyCount > 0 {
		s.AverageLatencyMs = float64(latencySum) / float64(latencyCount)
	}
	sort.Strings(s.ModelsUsed)
	if s.CriticalCount > 0 {
		s.Status = StatusFailed
	}
	return s
}
