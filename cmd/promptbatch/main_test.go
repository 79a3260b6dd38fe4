package main

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rshade/promptbatch/internal/engine/batch"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil error returns 0", nil, 0},
		{"generic error returns 1", errors.New("boom"), 1},
		{"batch failure returns 2", &batch.BatchFailedError{BatchID: "b", CriticalErrorCount: 1, TotalRows: 3}, 2},
		{"wrapped batch failure returns 2", fmt.Errorf("run: %w", batch.ErrBatchFailed), 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestRun(t *testing.T) {
	t.Setenv("PROMPTBATCH_HOME", t.TempDir())

	t.Run("version", func(t *testing.T) {
		assert.Equal(t, 0, run(context.Background(), []string{"--version"}))
	})

	t.Run("unknown command", func(t *testing.T) {
		assert.Equal(t, 1, run(context.Background(), []string{"frobnicate"}))
	})

	t.Run("missing rows file", func(t *testing.T) {
		assert.Equal(t, 1, run(context.Background(), []string{"estimate", "/nonexistent/rows.json"}))
	})
}
