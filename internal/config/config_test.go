package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/chunkgraph/internal/emitter"
)

func TestLoad_DefaultsWithoutConfigFile(t *testing.T) {
	root := t.TempDir()

	cfg, path, err := Load(context.Background(), LoadOptions{ProjectRoot: root})
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Equal(t, root, cfg.ProjectRoot)
	assert.Equal(t, emitter.DefaultEntries, cfg.Entries)
	assert.Equal(t, emitter.DefaultOutputDir, cfg.OutputDir)
	assert.Equal(t, "path", cfg.ModuleIDStrategy)
	assert.Equal(t, emitter.DefaultDebounce, cfg.Debounce)
	assert.False(t, cfg.Precompress)
}

func TestLoad_ProjectFile(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, ConfigFileName)
	require.NoError(t, os.WriteFile(file, []byte(`
entries:
  - "app/**/*.js"
output_dir: dist
server_root: public
precompress: true
workers: 3
debounce: 1s
`), 0644))

	cfg, path, err := Load(context.Background(), LoadOptions{ProjectRoot: root})
	require.NoError(t, err)
	assert.Equal(t, file, path)
	assert.Equal(t, []string{"app/**/*.js"}, cfg.Entries)
	assert.Equal(t, "dist", cfg.OutputDir)
	assert.Equal(t, "public", cfg.ServerRoot)
	assert.True(t, cfg.Precompress)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, time.Second, cfg.Debounce)

	ec := cfg.Emitter()
	assert.Equal(t, root, ec.ProjectRoot)
	assert.Equal(t, "dist", ec.OutputDir)
	assert.True(t, ec.Precompress)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ConfigFileName), []byte("precompress: true\n"), 0644))
	t.Setenv("CHUNKGRAPH_PRECOMPRESS", "false")
	t.Setenv("CHUNKGRAPH_MODULE_ID_STRATEGY", "hash")

	cfg, _, err := Load(context.Background(), LoadOptions{ProjectRoot: root})
	require.NoError(t, err)
	assert.False(t, cfg.Precompress)
	assert.Equal(t, "hash", cfg.ModuleIDStrategy)
}

func TestLoad_Errors(t *testing.T) {
	root := t.TempDir()

	_, _, err := Load(context.Background(), LoadOptions{ProjectRoot: root, ConfigFilePath: filepath.Join(root, "missing.yaml")})
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(root, ConfigFileName), []byte("entries: [unclosed\n"), 0644))
	_, _, err = Load(context.Background(), LoadOptions{ProjectRoot: root})
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(root, ConfigFileName), []byte("module_id_strategy: random\n"), 0644))
	_, _, err = Load(context.Background(), LoadOptions{ProjectRoot: root})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = Load(ctx, LoadOptions{ProjectRoot: root})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDatabasePath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	path, err := (&Config{}).DatabasePath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".chunkgraph", "manifest.db"), path)

	path, err = (&Config{Database: "/tmp/x.db"}).DatabasePath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x.db", path)
}
