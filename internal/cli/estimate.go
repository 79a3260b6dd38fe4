package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rshade/promptbatch/internal/ingest"
	"github.com/rshade/promptbatch/internal/tui"
)

// EstimateParams holds the flags of the estimate command.
type EstimateParams struct {
	InputFormat string
	Model       string
	ShowRows    bool
	JSON        bool
}

// NewEstimateCmd creates the estimate command, which projects the input
// cost of a rows file without calling any model.
func NewEstimateCmd() *cobra.Command {
	var params EstimateParams

	cmd := &cobra.Command{
		Use:   "estimate <rows-file>",
		Short: "Estimate the input cost of a batch",
		Long: `Counts the input tokens of every row and prices them with the model
pricing table. Anthropic models use the provider's token counting endpoint when
an API key is configured; other models use a four-characters-per-token
approximation. Output tokens are not known before a run and are not included.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := effectiveConfig(0, params.Model)
			if err != nil {
				return err
			}

			var format ingest.Format
			if params.InputFormat != "" {
				if format, err = ingest.ParseFormat(params.InputFormat); err != nil {
					return err
				}
			}
			rows, err := ingest.LoadRows(ctx, args[0], format)
			if err != nil {
				return err
			}

			rt, err := newRuntime(ctx, cfg, runtimeParts{})
			if err != nil {
				return err
			}
			defer rt.close()

			est, err := rt.estimator.Estimate(ctx, rows)
			if err != nil {
				return fmt.Errorf("estimating cost: %w", err)
			}

			if params.JSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(est)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), tui.RenderEstimate(est, params.ShowRows))
			return err
		},
	}

	cmd.Flags().StringVar(&params.InputFormat, "input-format", "", "rows file format: json, jsonl, yaml or csv (default from extension)")
	cmd.Flags().StringVar(&params.Model, "model", "", "model for rows that do not name one, as provider/model")
	cmd.Flags().BoolVar(&params.ShowRows, "rows", false, "list the estimate of each row")
	cmd.Flags().BoolVar(&params.JSON, "json", false, "print the estimate as JSON")

	return cmd
}
