package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/rshade/promptbatch/internal/config"
	"github.com/rshade/promptbatch/internal/engine/batch"
)

// NewDiscardCmd creates the discard command, which deletes checkpoints.
func NewDiscardCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "discard [batch-id...]",
		Short: "Delete the checkpoint of one or more batches",
		Example: `  # Forget a stopped batch
  promptbatch discard 01J9Z3B8K4T6W2XQ5N7M0PRC1D

  # Delete every checkpoint
  promptbatch discard --all`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) > 0) {
				return errors.New("pass batch ids or --all, not both")
			}
			ctx := cmd.Context()

			store, err := openStore(ctx, config.GetGlobalConfig())
			if err != nil {
				return err
			}
			defer store.Close()

			ids := args
			if all {
				if ids, err = batch.ListResumableBatches(ctx, store); err != nil {
					return err
				}
			}

			for _, id := range ids {
				if err = store.Clear(ctx, id); err != nil {
					return err
				}
				logger.Info().Ctx(ctx).Str("batch_id", id).Msg("checkpoint discarded")
				cmd.Printf("Discarded %s\n", id)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "discard every stored checkpoint")
	return cmd
}
