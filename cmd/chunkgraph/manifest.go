package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dshills/chunkgraph/internal/storage"
)

var manifestFormat string

// manifestEntry is the exported form of one entry of the latest build
type manifestEntry struct {
	Entry        string   `json:"entry" yaml:"entry"`
	ModuleID     string   `json:"module_id" yaml:"module_id"`
	Chunk        string   `json:"chunk" yaml:"chunk"`
	ClientChunks []string `json:"client_chunks" yaml:"client_chunks"`
}

type manifest struct {
	Project string          `json:"project" yaml:"project"`
	Output  string          `json:"output" yaml:"output"`
	BuiltAt time.Time       `json:"built_at" yaml:"built_at"`
	Entries []manifestEntry `json:"entries" yaml:"entries"`
}

var manifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "Print the entries and client chunks recorded by the last build",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStorage()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		ctx := cmd.Context()
		project, err := store.GetProject(ctx, cfg.ProjectRoot)
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("project %s has not been built", cfg.ProjectRoot)
		}
		if err != nil {
			return err
		}
		entries, err := store.ListEntries(ctx, project.ID)
		if err != nil {
			return err
		}

		m := manifest{
			Project: project.RootPath,
			Output:  project.OutputDir,
			BuiltAt: project.LastBuiltAt,
			Entries: make([]manifestEntry, 0, len(entries)),
		}
		for _, e := range entries {
			m.Entries = append(m.Entries, manifestEntry{
				Entry:        e.EntryPath,
				ModuleID:     e.ModuleID,
				Chunk:        e.ChunkPath,
				ClientChunks: e.ClientChunks,
			})
		}

		out := cmd.OutOrStdout()
		switch manifestFormat {
		case "json":
			encoder := json.NewEncoder(out)
			encoder.SetIndent("", "  ")
			return encoder.Encode(m)
		case "yaml":
			encoder := yaml.NewEncoder(out)
			encoder.SetIndent(2)
			defer func() { _ = encoder.Close() }()
			return encoder.Encode(m)
		default:
			return fmt.Errorf("unknown format %q (want json or yaml)", manifestFormat)
		}
	},
}

func init() {
	rootCmd.AddCommand(manifestCmd)
	manifestCmd.Flags().StringVarP(&manifestFormat, "format", "f", "yaml", "Output format: json or yaml")
}
