package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/chunkgraph/internal/emitter"
)

var (
	buildEntries     []string
	buildPrecompress bool
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build every entry into chunks and update the manifest",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStorage()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		if len(buildEntries) > 0 {
			cfg.Entries = buildEntries
		}
		if cmd.Flags().Changed("precompress") {
			cfg.Precompress = buildPrecompress
		}

		stats, err := emitter.New(store, logger).Build(cmd.Context(), cfg.Emitter())
		if err != nil {
			return err
		}
		printStatistics(cmd, stats)
		if stats.EntriesFailed > 0 {
			return fmt.Errorf("%d of %d entries failed", stats.EntriesFailed, stats.EntriesFailed+stats.EntriesBuilt)
		}
		return nil
	},
}

func printStatistics(cmd *cobra.Command, stats *emitter.Statistics) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "build %d: %d entries, %d chunks written, %d unchanged, %d pruned (%d bytes) in %s\n",
		stats.BuildID, stats.EntriesBuilt, stats.ChunksWritten, stats.ChunksSkipped,
		stats.ChunksPruned, stats.BytesWritten, stats.Duration.Round(time.Millisecond))
	for _, msg := range stats.ErrorMessages {
		fmt.Fprintf(out, "  error: %s\n", msg)
	}
}

func init() {
	rootCmd.AddCommand(buildCmd)
	buildCmd.Flags().StringSliceVarP(&buildEntries, "entry", "e", nil, "Entry glob pattern (repeatable, overrides config)")
	buildCmd.Flags().BoolVar(&buildPrecompress, "precompress", false, "Also write .gz files next to every chunk")
}
