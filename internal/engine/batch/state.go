package batch

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rshade/promptbatch/internal/engine"
)

// QueueState is the checkpoint document for one batch. Rows that were in
// flight when it was taken are stored as pending, so ProcessedCount +
// len(PendingRows) == TotalCount always holds.
type QueueState struct {
	BatchID        string          `json:"batch_id"`
	PendingRows    []engine.Row    `json:"pending_rows"`
	Results        []engine.Result `json:"results"`
	ProcessedCount int             `json:"processed_count"`
	TotalCount     int             `json:"total_count"`
	StartTime      time.Time       `json:"start_time"`

	// CriticalRows are the original rows of results that failed for a
	// missing credential, kept so they can be requeued on resume.
	CriticalRows []engine.Row `json:"critical_rows,omitempty"`

	SavedAt time.Time `json:"saved_at"`
}

// Validate checks the internal consistency of a loaded checkpoint.
func (s *QueueState) Validate() error {
	if s.BatchID == "" {
		return fmt.Errorf("%w: missing batch id", ErrCorruptState)
	}
	if s.ProcessedCount != len(s.Results) {
		return fmt.Errorf("%w: %d results for %d processed rows",
			ErrCorruptState, len(s.Results), s.ProcessedCount)
	}
	if s.ProcessedCount+len(s.PendingRows) != s.TotalCount {
		return fmt.Errorf("%w: processed %d + pending %d != total %d",
			ErrCorruptState, s.ProcessedCount, len(s.PendingRows), s.TotalCount)
	}
	if len(s.CriticalRows) > s.ProcessedCount {
		return fmt.Errorf("%w: %d critical rows for %d processed rows",
			ErrCorruptState, len(s.CriticalRows), s.ProcessedCount)
	}
	return nil
}

// Pending is the number of rows still to run.
func (s *QueueState) Pending() int {
	return len(s.PendingRows)
}

func decodeState(raw json.RawMessage) (*QueueState, error) {
	var s QueueState
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptState, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}
