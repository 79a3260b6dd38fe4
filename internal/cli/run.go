package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rshade/promptbatch/internal/config"
	"github.com/rshade/promptbatch/internal/engine/batch"
	"github.com/rshade/promptbatch/internal/ingest"
	"github.com/rshade/promptbatch/internal/tui"
)

// errAborted is returned when the user declines the estimate prompt.
var errAborted = errors.New("aborted: run not confirmed")

// RunParams holds the flags of the run command.
type RunParams struct {
	InputFormat   string
	MaxInFlight   int
	Model         string
	BatchID       string
	EstimateFirst bool
	Yes           bool
	Output        outputParams
}

// NewRunCmd creates the run command, which executes every row of an input
// file as a new batch.
func NewRunCmd() *cobra.Command {
	var params RunParams

	cmd := &cobra.Command{
		Use:   "run <rows-file>",
		Short: "Run a batch of prompt rows",
		Long: `Runs every row of a JSON, JSONL, YAML or CSV file against its model.

Rows run concurrently up to --max-in-flight. A checkpoint is saved every few
rows and when the batch is interrupted, so a stopped batch can be continued
with "promptbatch resume". Rows that fail because their provider has no API
key fail the whole batch (exit code 2); other row errors are reported and the
batch carries on.`,
		Example: `  # Run rows from a CSV file and write results as CSV
  promptbatch run rows.csv --out results.csv

  # Use a different default model and more concurrency
  promptbatch run rows.jsonl --model anthropic/claude-sonnet-4 --max-in-flight 8

  # Show the projected input cost and confirm before running
  promptbatch run rows.yaml --estimate-first`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeRun(cmd, args[0], params)
		},
	}

	cmd.Flags().StringVar(&params.InputFormat, "input-format", "", "rows file format: json, jsonl, yaml or csv (default from extension)")
	cmd.Flags().IntVar(&params.MaxInFlight, "max-in-flight", 0,
		fmt.Sprintf("concurrent requests, %d-%d (default from config)", batch.MinMaxInFlight, batch.MaxMaxInFlight))
	cmd.Flags().StringVar(&params.Model, "model", "", "model for rows that do not name one, as provider/model")
	cmd.Flags().StringVar(&params.BatchID, "batch-id", "", "batch id (default: a new ULID)")
	cmd.Flags().BoolVar(&params.EstimateFirst, "estimate-first", false, "show the projected input cost and ask before running")
	cmd.Flags().BoolVarP(&params.Yes, "yes", "y", false, "skip the --estimate-first confirmation")
	addOutputFlags(cmd, &params.Output)

	return cmd
}

func executeRun(cmd *cobra.Command, path string, params RunParams) error {
	ctx := cmd.Context()

	cfg, err := effectiveConfig(params.MaxInFlight, params.Model)
	if err != nil {
		return err
	}

	var format ingest.Format
	if params.InputFormat != "" {
		if format, err = ingest.ParseFormat(params.InputFormat); err != nil {
			return err
		}
	}
	rows, err := ingest.LoadRows(ctx, path, format)
	if err != nil {
		return err
	}

	rt, err := newRuntime(ctx, cfg, runtimeParts{store: true})
	if err != nil {
		return err
	}
	defer rt.close()

	if params.EstimateFirst {
		est, estErr := rt.estimator.Estimate(ctx, rows)
		if estErr != nil {
			return fmt.Errorf("estimating cost: %w", estErr)
		}
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), tui.RenderEstimate(est, false))
		if !params.Yes && !confirm(cmd.ErrOrStderr(), cmd.InOrStdin(), "Run this batch?") {
			return errAborted
		}
	}

	logger.Info().Ctx(ctx).
		Str("input", path).
		Int("rows", len(rows)).
		Int("max_in_flight", cfg.Engine.MaxInFlight).
		Msg("starting batch")

	return executeBatch(cmd, func(opts ...batch.Option) (*batch.Queue, error) {
		base := []batch.Option{
			batch.WithMaxInFlight(cfg.Engine.MaxInFlight),
			batch.WithCheckpointEvery(cfg.Engine.CheckpointEvery),
		}
		if params.BatchID != "" {
			base = append(base, batch.WithBatchID(params.BatchID))
		}
		q, qErr := batch.NewQueue(rt.executor, rt.store, append(base, opts...)...)
		if qErr != nil {
			return nil, qErr
		}
		for _, row := range rows {
			if qErr = q.Enqueue(row); qErr != nil {
				return nil, qErr
			}
		}
		return q, nil
	}, params.Output)
}

// effectiveConfig copies the global config and applies command flags.
func effectiveConfig(maxInFlight int, model string) (*config.Config, error) {
	cfg := *config.GetGlobalConfig()
	if maxInFlight != 0 {
		cfg.Engine.MaxInFlight = maxInFlight
	}
	if model != "" {
		cfg.Engine.DefaultModel = model
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// confirm asks a yes/no question. It declines without asking when stdin is
// not a terminal, and an empty answer declines.
func confirm(w io.Writer, r io.Reader, question string) bool {
	if f, ok := r.(*os.File); ok && !term.IsTerminal(int(f.Fd())) { //nolint:gosec // fd fits in int
		return false
	}

	_, _ = fmt.Fprintf(w, "? %s [y/N] ", question)
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
