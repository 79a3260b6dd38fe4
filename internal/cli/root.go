package cli

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rshade/promptbatch/internal/config"
	"github.com/rshade/promptbatch/internal/logging"
)

// logger is the package-level logger for CLI operations.
var logger zerolog.Logger //nolint:gochecknoglobals // Required for zerolog context integration

// NewRootCmd creates the root Cobra command for the promptbatch CLI.
// It loads configuration, wires logging and tracing, and registers the
// run, resume, list, discard, estimate and config commands.
func NewRootCmd(ver string) *cobra.Command {
	var (
		logResult  *logging.LogPathResult
		configPath string
	)

	cmd := &cobra.Command{
		Use:           "promptbatch",
		Short:         "Run LLM prompt batches with bounded concurrency",
		Long:          "promptbatch: dispatch prompt rows to model providers with progress, checkpoints and cost tracking",
		Version:       ver,
		Example:       rootCmdExample,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}
			config.SetGlobalConfig(cfg)

			result := setupLogging(cmd)
			logResult = &result
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return cleanupLogging(cmd, logResult)
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "",
		"path to config file (default $PROMPTBATCH_HOME/config.yaml or ~/.promptbatch/config.yaml)")
	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	cmd.AddCommand(
		NewRunCmd(), NewResumeCmd(), NewListCmd(), NewDiscardCmd(),
		NewEstimateCmd(), newConfigCmd(),
	)

	return cmd
}

const rootCmdExample = `  # Run every row in a CSV file, four requests at a time
  promptbatch run rows.csv --max-in-flight 4 --out results.jsonl

  # Show the projected input cost first and ask before running
  promptbatch run rows.jsonl --estimate-first

  # List batches that were stopped and can be resumed
  promptbatch list

  # Resume a stopped batch, retrying rows that had no credential
  promptbatch resume 01J9Z3B8K4T6W2XQ5N7M0PRC1D --requeue-critical

  # Estimate input cost without calling any model
  promptbatch estimate rows.yaml --rows

  # Write a default configuration file
  promptbatch config init`

// newConfigCmd creates the config command group.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Configuration management commands"}
	cmd.AddCommand(NewConfigInitCmd(), NewConfigShowCmd())
	return cmd
}
