package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rshade/promptbatch/internal/config"
	"github.com/rshade/promptbatch/internal/engine/batch"
	"github.com/rshade/promptbatch/internal/tui"
)

// NewListCmd creates the list command, which shows resumable batches.
func NewListCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List batches that can be resumed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := openStore(ctx, config.GetGlobalConfig())
			if err != nil {
				return err
			}
			defer store.Close()

			ids, err := batch.ListResumableBatches(ctx, store)
			if err != nil {
				return err
			}

			infos := make([]tui.BatchInfo, 0, len(ids))
			for _, id := range ids {
				state, loadErr := batch.LoadState(ctx, store, id)
				if loadErr != nil {
					logger.Warn().Ctx(ctx).Err(loadErr).Str("batch_id", id).Msg("skipping unreadable checkpoint")
					continue
				}
				infos = append(infos, tui.BatchInfo{
					ID:        state.BatchID,
					Processed: state.ProcessedCount,
					Total:     state.TotalCount,
					Critical:  len(state.CriticalRows),
					StartTime: state.StartTime,
					SavedAt:   state.SavedAt,
				})
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(listJSON(infos))
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), tui.RenderBatchList(infos))
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the list as JSON")
	return cmd
}

type batchListEntry struct {
	BatchID   string `json:"batch_id"`
	Processed int    `json:"processed"`
	Total     int    `json:"total"`
	Critical  int    `json:"critical"`
	StartTime string `json:"start_time"`
	SavedAt   string `json:"saved_at"`
}

func listJSON(infos []tui.BatchInfo) []batchListEntry {
	out := make([]batchListEntry, 0, len(infos))
	for _, i := range infos {
		out = append(out, batchListEntry{
			BatchID:   i.ID,
			Processed: i.Processed,
			Total:     i.Total,
			Critical:  i.Critical,
			StartTime: i.StartTime.UTC().Format(time.RFC3339),
			SavedAt:   i.SavedAt.UTC().Format(time.RFC3339),
		})
	}
	return out
}
