package tui

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rshade/promptbatch/internal/engine"
	"github.com/rshade/promptbatch/internal/engine/batch"
)

func TestRenderSummary(t *testing.T) {
	out := RenderSummary(batch.Summary{
		BatchID:          "01JBATCH",
		TotalRows:        1200,
		SuccessCount:     1195,
		ErrorCount:       5,
		CriticalCount:    2,
		TotalCost:        1.5,
		AverageLatencyMs: 812.4,
		DurationMs:       95_000,
		ModelsUsed:       []string{"anthropic/claude-sonnet-4", "openai/gpt-4o"},
		Status:           batch.StatusFailed,
	})

	for _, want := range []string{
		"Batch 01JBATCH",
		"failed",
		"1,200",
		"1,195",
		"5 (2 missing credentials)",
		"$1.5000",
		"812ms",
		"1m35s",
		"anthropic/claude-sonnet-4, openai/gpt-4o",
	} {
		assert.Contains(t, out, want)
	}
}

func TestRenderSummary_NoModels(t *testing.T) {
	out := RenderSummary(batch.Summary{BatchID: "b", Status: batch.StatusCompleted, ModelsUsed: []string{}})
	assert.Contains(t, out, "completed")
	assert.NotContains(t, out, "missing credentials")
}

func TestRenderEstimate(t *testing.T) {
	est := &engine.Estimate{
		TotalUSD: 0.0125,
		PerRow: []engine.RowEstimate{
			{ID: "r1", Model: "openai/gpt-4o", TokensIn: 3000, EstCost: 0.0075},
			{ID: "r2", Model: "openai/gpt-4o", TokensIn: 2000, EstCost: 0.005},
		},
	}

	out := RenderEstimate(est, false)
	assert.Contains(t, out, "5,000")
	assert.Contains(t, out, "$0.0125")
	assert.Contains(t, out, "Output tokens are not included.")
	assert.NotContains(t, out, "r1")

	out = RenderEstimate(est, true)
	assert.Contains(t, out, "r1")
	assert.Contains(t, out, "$0.007500")

	assert.Contains(t, RenderEstimate(nil, true), "no estimate")
}

func TestRenderEstimate_CapsRows(t *testing.T) {
	est := &engine.Estimate{}
	for i := range maxEstimateRows + 3 {
		est.PerRow = append(est.PerRow, engine.RowEstimate{ID: fmt.Sprintf("row-%02d", i), Model: "m"})
	}

	out := RenderEstimate(est, true)
	assert.Contains(t, out, "... 3 more rows")
	assert.NotContains(t, out, "row-21")
}

func TestRenderBatchList(t *testing.T) {
	assert.Contains(t, RenderBatchList(nil), "No resumable batches.")

	out := RenderBatchList([]BatchInfo{
		{ID: "b1", Processed: 10, Total: 1500, SavedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.Local)},
		{ID: "b2", Processed: 3, Total: 3, Critical: 1},
	})
	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 3)
	assert.Contains(t, lines[1], "10/1,500")
	assert.Contains(t, lines[1], "2026-01-02 03:04:05")
	assert.Contains(t, lines[2], "3/3")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}
