package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dshills/chunkgraph/internal/emitter"
	"github.com/dshills/chunkgraph/internal/storage"
)

var (
	chunksJSON       bool
	chunksServerRoot string
)

var chunksCmd = &cobra.Command{
	Use:   "chunks <module>",
	Short: "Print the with chunks module of a module",
	Long: `Print the generated with chunks module of a module, relative to the
project root. Nothing is written to the output directory.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rel := args[0]
		if filepath.IsAbs(rel) {
			r, err := filepath.Rel(cfg.ProjectRoot, rel)
			if err != nil {
				return err
			}
			rel = r
		}
		if cmd.Flags().Changed("server-root") {
			cfg.ServerRoot = chunksServerRoot
		}

		// Rendering reads no manifest; an in-memory store keeps the emitter happy
		store, err := storage.NewSQLiteStorage(":memory:")
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		out, err := emitter.New(store, logger).RenderModule(cmd.Context(), cfg.Emitter(), rel)
		if err != nil {
			return err
		}

		if chunksJSON {
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(out)
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), out.Code)
		return err
	},
}

func init() {
	rootCmd.AddCommand(chunksCmd)
	chunksCmd.Flags().BoolVar(&chunksJSON, "json", false, "Output module id, chunks and code as JSON")
	chunksCmd.Flags().StringVar(&chunksServerRoot, "server-root", "", "Served directory relative to the output directory")
}
