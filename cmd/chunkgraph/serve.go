package main

import (
	"github.com/spf13/cobra"

	"github.com/dshills/chunkgraph/internal/mcp"
	"github.com/dshills/chunkgraph/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the MCP tools on stdio",
	Long: `Serve build_project, module_chunks and get_status over the Model Context
Protocol. Stdout carries the protocol; logs go to stderr.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, err := cfg.DatabasePath()
		if err != nil {
			return err
		}
		server, err := mcp.NewServer(dbPath, logger)
		if err != nil {
			return err
		}
		logger.Info("MCP server ready, listening on stdio", "version", version, "driver", storage.DriverName)
		return server.Serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
