package batch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/promptbatch/internal/engine"
)

func TestEstimateETA(t *testing.T) {
	tests := []struct {
		name      string
		processed int
		total     int
		elapsed   time.Duration
		want      int64
		wantOK    bool
	}{
		{"nothing processed", 0, 10, 5 * time.Second, 0, false},
		{"linear", 2, 10, 4 * time.Second, 16, true},
		{"rounds down", 2, 3, 999 * time.Millisecond, 0, true},
		{"rounds up", 3, 5, 10 * time.Second, 7, true},
		{"done", 10, 10, time.Minute, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := EstimateETA(tt.processed, tt.total, tt.elapsed)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewProgress(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	p := newProgress(1, 4, start, start.Add(2*time.Second))
	assert.Equal(t, 1, p.Current)
	assert.InDelta(t, 25.0, p.Percentage, 1e-9)
	require.NotNil(t, p.ETASeconds)
	assert.Equal(t, int64(6), *p.ETASeconds)

	empty := newProgress(0, 0, start, start)
	assert.Zero(t, empty.Percentage)
	assert.Nil(t, empty.ETASeconds)
}

func TestBuildSummary(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cost := func(v float64) *float64 { return &v }
	lat := func(v int64) *int64 { return &v }

	results := []engine.Result{
		{ID: "1", Model: "openai/gpt-4o", Status: engine.StatusSuccess, CostUSD: cost(0.01), LatencyMs: lat(100)},
		{ID: "2", Model: "anthropic/claude-sonnet-4", Status: engine.StatusSuccess, CostUSD: cost(0.02), LatencyMs: lat(300)},
		{ID: "3", Model: "openai/gpt-4o", Status: engine.StatusErrorAPI, LatencyMs: lat(200)},
		{ID: "4", Model: "openai/gpt-4o", Status: engine.StatusError},
	}
	s := BuildSummary("b", 4, results, start, start.Add(1500*time.Millisecond))

	assert.Equal(t, "b", s.BatchID)
	assert.Equal(t, 4, s.TotalRows)
	assert.Equal(t, 2, s.SuccessCount)
	assert.Equal(t, 2, s.ErrorCount)
	assert.Zero(t, s.CriticalCount)
	assert.InDelta(t, 0.03, s.TotalCost, 1e-12)
	assert.InDelta(t, 200.0, s.AverageLatencyMs, 1e-9)
	assert.Equal(t, int64(1500), s.DurationMs)
	assert.Equal(t, []string{"anthropic/claude-sonnet-4", "openai/gpt-4o"}, s.ModelsUsed)
	assert.Equal(t, StatusCompleted, s.Status)

	results = append(results, engine.Result{ID: "5", Model: "xai/grok-3", Status: engine.StatusErrorMissingKey})
	s = BuildSummary("b", 5, results, start, start)
	assert.Equal(t, StatusFailed, s.Status)
	assert.Equal(t, 1, s.CriticalCount)
	assert.Equal(t, 3, s.ErrorCount)

	empty := BuildSummary("b", 0, nil, start, start)
	assert.NotNil(t, empty.ModelsUsed)
	assert.Zero(t, empty.AverageLatencyMs)
}

func TestChannelObserver(t *testing.T) {
	o := NewChannelObserver(4)
	o.Notify(CompleteEvent{BatchID: "b"})
	o.Notify(ProgressEvent{BatchID: "b", Progress: Progress{Current: 1, Total: 1}})
	o.Close()
	o.Close()
	o.Notify(CompleteEvent{BatchID: "dropped"})

	var got []Event
	for e := range o.Events() {
		got = append(got, e)
	}
	require.Len(t, got, 2)
	assert.Equal(t, CompleteEvent{BatchID: "b"}, got[0])
	assert.IsType(t, ProgressEvent{}, got[1])
}

func TestObserverFunc(t *testing.T) {
	var seen []Event
	var o Observer = ObserverFunc(func(e Event) { seen = append(seen, e) })
	o.Notify(StoppedEvent{BatchID: "b", Processed: 1, Total: 2})
	assert.Equal(t, []Event{StoppedEvent{BatchID: "b", Processed: 1, Total: 2}}, seen)
}

func TestQueueState_Validate(t *testing.T) {
	ok := QueueState{BatchID: "b", PendingRows: []engine.Row{{ID: "2"}}, Results: []engine.Result{{ID: "1"}},
		ProcessedCount: 1, TotalCount: 2}
	assert.NoError(t, ok.Validate())

	noID := ok
	noID.BatchID = ""
	assert.ErrorIs(t, noID.Validate(), ErrCorruptState)

	mismatch := ok
	mismatch.TotalCount = 3
	assert.ErrorIs(t, mismatch.Validate(), ErrCorruptState)
}
