package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/dshills/chunkgraph/internal/config"
	"github.com/dshills/chunkgraph/internal/storage"
)

var (
	projectFlag  string
	configFlag   string
	logLevelFlag string
	dbFlag       string

	// Set by PersistentPreRunE
	cfg    *config.Config
	logger *log.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "chunkgraph",
	Short: "Build JavaScript page entries into chunks and with chunks modules",
	Long: `chunkgraph walks the module graph of each page entry, writes the
chunks the entry needs and records them in a build manifest. Each entry
also gets a with chunks module exporting its id and client chunk paths.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, file, err := config.Load(cmd.Context(), config.LoadOptions{
			ProjectRoot:    projectFlag,
			ConfigFilePath: configFlag,
		})
		if err != nil {
			return err
		}
		if logLevelFlag != "" {
			loaded.LogLevel = logLevelFlag
		}
		if dbFlag != "" {
			loaded.Database = dbFlag
		}

		level, err := log.ParseLevel(loaded.LogLevel)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", loaded.LogLevel, err)
		}
		logger = log.NewWithOptions(os.Stderr, log.Options{
			Level:           level,
			ReportTimestamp: true,
		})
		if file != "" {
			logger.Debug("loaded config", "file", file)
		}
		cfg = loaded
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&projectFlag, "project", "C", "", "Project root (default: current directory)")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Config file (default: <project>/"+config.ConfigFileName+")")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&dbFlag, "db", "", "Manifest database path (default: ~/.chunkgraph/manifest.db)")
}

// openStorage opens the manifest database named by the loaded config
func openStorage() (storage.Storage, error) {
	path, err := cfg.DatabasePath()
	if err != nil {
		return nil, err
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	store, err := storage.NewSQLiteStorage(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	return store, nil
}
