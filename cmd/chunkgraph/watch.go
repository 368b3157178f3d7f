package main

import (
	"github.com/spf13/cobra"

	"github.com/dshills/chunkgraph/internal/emitter"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Build, then rebuild whenever project files change",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStorage()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		logger.Info("watching", "root", cfg.ProjectRoot, "debounce", cfg.Debounce)
		e := emitter.New(store, logger)
		return e.Watch(cmd.Context(), cfg.Emitter(), cfg.Debounce, func(stats *emitter.Statistics, err error) {
			if err != nil {
				logger.Error("build failed", "err", err)
				return
			}
			printStatistics(cmd, stats)
		})
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
