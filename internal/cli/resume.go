package cli

import (
	"github.com/spf13/cobra"

	"github.com/rshade/promptbatch/internal/engine/batch"
)

// ResumeParams holds the flags of the resume command.
type ResumeParams struct {
	MaxInFlight     int
	RequeueCritical bool
	Output          outputParams
}

// NewResumeCmd creates the resume command, which continues a stopped or
// failed batch from its checkpoint.
func NewResumeCmd() *cobra.Command {
	var params ResumeParams

	cmd := &cobra.Command{
		Use:   "resume <batch-id>",
		Short: "Resume a batch from its checkpoint",
		Long: `Continues a batch from its last checkpoint. Rows that were finished keep
their results; only pending rows run again. The batch keeps its id and its
original start time.

A batch that failed because a provider had no API key keeps its checkpoint.
After adding the key, use --requeue-critical to run those rows again.`,
		Example: `  # Continue a stopped batch
  promptbatch resume 01J9Z3B8K4T6W2XQ5N7M0PRC1D

  # Retry rows that failed for a missing API key
  promptbatch resume 01J9Z3B8K4T6W2XQ5N7M0PRC1D --requeue-critical --out results.jsonl`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeResume(cmd, args[0], params)
		},
	}

	cmd.Flags().IntVar(&params.MaxInFlight, "max-in-flight", 0, "concurrent requests (default from config)")
	cmd.Flags().BoolVar(&params.RequeueCritical, "requeue-critical", false,
		"run rows that failed for a missing API key again")
	addOutputFlags(cmd, &params.Output)

	return cmd
}

func executeResume(cmd *cobra.Command, batchID string, params ResumeParams) error {
	ctx := cmd.Context()

	cfg, err := effectiveConfig(params.MaxInFlight, "")
	if err != nil {
		return err
	}

	rt, err := newRuntime(ctx, cfg, runtimeParts{store: true})
	if err != nil {
		return err
	}
	defer rt.close()

	return executeBatch(cmd, func(opts ...batch.Option) (*batch.Queue, error) {
		base := []batch.Option{
			batch.WithMaxInFlight(cfg.Engine.MaxInFlight),
			batch.WithCheckpointEvery(cfg.Engine.CheckpointEvery),
		}
		if params.RequeueCritical {
			base = append(base, batch.WithRequeueCritical())
		}
		return batch.Resume(ctx, rt.store, batchID, rt.executor, append(base, opts...)...)
	}, params.Output)
}
