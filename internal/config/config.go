package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/dshills/chunkgraph/internal/emitter"
)

const (
	// AppName is the application name
	AppName = "chunkgraph"
	// ConfigFileName is the project config file, looked up in the project root
	ConfigFileName = "chunkgraph.yaml"
	// EnvPrefix prefixes environment overrides, e.g. CHUNKGRAPH_OUTPUT_DIR
	EnvPrefix = "CHUNKGRAPH"
)

// Config is the resolved configuration of one project
type Config struct {
	ProjectRoot      string        `yaml:"project_root" mapstructure:"project_root"`
	Entries          []string      `yaml:"entries" mapstructure:"entries"`
	OutputDir        string        `yaml:"output_dir" mapstructure:"output_dir"`
	ServerRoot       string        `yaml:"server_root" mapstructure:"server_root"`
	Workers          int           `yaml:"workers" mapstructure:"workers"`
	Precompress      bool          `yaml:"precompress" mapstructure:"precompress"`
	ModuleIDStrategy string        `yaml:"module_id_strategy" mapstructure:"module_id_strategy"`
	Database         string        `yaml:"database" mapstructure:"database"` // Default: ~/.chunkgraph/manifest.db
	LogLevel         string        `yaml:"log_level" mapstructure:"log_level"`
	Debounce         time.Duration `yaml:"debounce" mapstructure:"debounce"`
}

// LoadOptions controls where configuration is read from
type LoadOptions struct {
	ProjectRoot    string // Default: current directory
	ConfigFilePath string // Used instead of <ProjectRoot>/chunkgraph.yaml when set
}

// DefaultConfig returns the configuration used when nothing is set
func DefaultConfig() *Config {
	return &Config{
		Entries:          append([]string(nil), emitter.DefaultEntries...),
		OutputDir:        emitter.DefaultOutputDir,
		ModuleIDStrategy: "path",
		LogLevel:         "info",
		Debounce:         emitter.DefaultDebounce,
	}
}

// Load merges defaults, the project config file and CHUNKGRAPH_*
// environment variables, in increasing precedence. It returns the config
// and the path of the file that was read, or "" when none was found.
func Load(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	root := opts.ProjectRoot
	if root == "" {
		root = "."
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve project root: %w", err)
	}

	v := viper.New()
	defaults := DefaultConfig()
	v.SetDefault("project_root", root)
	v.SetDefault("entries", defaults.Entries)
	v.SetDefault("output_dir", defaults.OutputDir)
	v.SetDefault("server_root", defaults.ServerRoot)
	v.SetDefault("workers", defaults.Workers)
	v.SetDefault("precompress", defaults.Precompress)
	v.SetDefault("module_id_strategy", defaults.ModuleIDStrategy)
	v.SetDefault("database", defaults.Database)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("debounce", defaults.Debounce)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	resolvedPath := ""
	path := opts.ConfigFilePath
	if path == "" {
		path = filepath.Join(root, ConfigFileName)
	} else if !fileExists(path) {
		return nil, "", fmt.Errorf("config file not found: %s", path)
	}
	if fileExists(path) {
		if err := loadYAMLIntoViper(v, path); err != nil {
			return nil, "", err
		}
		resolvedPath = path
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	if !filepath.IsAbs(cfg.ProjectRoot) {
		cfg.ProjectRoot = filepath.Join(root, cfg.ProjectRoot)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return &cfg, resolvedPath, nil
}

// loadYAMLIntoViper parses a YAML file and merges it into v, keeping
// defaults and environment overrides
func loadYAMLIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var configMap map[string]any
	if err := yaml.Unmarshal(data, &configMap); err != nil {
		return fmt.Errorf("invalid config file %s: %w", path, err)
	}
	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

// Validate checks values the emitter would reject late
func (c *Config) Validate() error {
	switch c.ModuleIDStrategy {
	case "", "path", "hash":
	default:
		return fmt.Errorf("module_id_strategy must be path or hash, got %q", c.ModuleIDStrategy)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.Debounce < 0 {
		return fmt.Errorf("debounce must not be negative, got %s", c.Debounce)
	}
	return nil
}

// Emitter returns the build configuration
func (c *Config) Emitter() *emitter.Config {
	return &emitter.Config{
		ProjectRoot:      c.ProjectRoot,
		Entries:          c.Entries,
		OutputDir:        c.OutputDir,
		ServerRoot:       c.ServerRoot,
		Workers:          c.Workers,
		Precompress:      c.Precompress,
		ModuleIDStrategy: c.ModuleIDStrategy,
	}
}

// DatabasePath returns the manifest database location with "~" expanded
func (c *Config) DatabasePath() (string, error) {
	path := c.Database
	if path == "" {
		path = filepath.Join("~", "."+AppName, "manifest.db")
	}
	if path == "~" || strings.HasPrefix(path, "~/") || strings.HasPrefix(path, "~"+string(filepath.Separator)) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, path[1:])
	}
	return path, nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
