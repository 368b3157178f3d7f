package fs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/chunkgraph/internal/tasks"
	"github.com/dshills/chunkgraph/pkg/types"
)

func TestMemoryFileSystem(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryFileSystem("project")
	p := m.Write("/src/index.js", "console.log(1)")

	assert.Equal(t, types.NewPath("project", "src/index.js"), p)

	data, err := m.Read(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, "console.log(1)", string(data))

	info, err := m.Stat(ctx, types.NewPath("project", "src"))
	require.NoError(t, err)
	assert.True(t, info.Exists)
	assert.True(t, info.IsDir)

	info, err = m.Stat(ctx, types.NewPath("project", "missing.js"))
	require.NoError(t, err)
	assert.False(t, info.Exists)

	_, err = m.Read(ctx, types.NewPath("project", "missing.js"))
	assert.ErrorIs(t, err, types.ErrNotFound)

	_, err = m.Read(ctx, types.NewPath("other", "src/index.js"))
	assert.ErrorIs(t, err, ErrWrongFileSystem)

	m.Remove("src/index.js")
	assert.Empty(t, m.Files())
}

func TestDiskFileSystem_ReadAndStat(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "pages"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pages", "index.js"), []byte("export default 1"), 0644))

	d, err := NewDiskFileSystem("project", dir)
	require.NoError(t, err)

	p := types.NewPath("project", "pages/index.js")
	data, err := d.Read(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, "export default 1", string(data))

	info, err := d.Stat(ctx, types.NewPath("project", "pages"))
	require.NoError(t, err)
	assert.True(t, info.IsDir)

	_, err = d.Read(ctx, types.NewPath("project", "nope.js"))
	assert.ErrorIs(t, err, types.ErrNotFound)

	sys, err := d.ToSys(p)
	require.NoError(t, err)
	back, ok := d.FromSys(sys)
	require.True(t, ok)
	assert.Equal(t, p, back)

	_, ok = d.FromSys(filepath.Dir(dir))
	assert.False(t, ok)
}

func TestDiskFileSystem_Watch(t *testing.T) {
	dir := t.TempDir()
	d, err := NewDiskFileSystem("project", dir)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan Event, 16)
	go func() {
		_ = d.Watch(ctx, nil, func(ev Event) { events <- ev })
	}()

	// Let the watcher register the root directory
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.js"), []byte("1"), 0644))

	select {
	case ev := <-events:
		assert.Equal(t, types.NewPath("project", "a.js"), ev.Path)
	case <-time.After(5 * time.Second):
		t.Fatal("no watch event received")
	}
}

func TestSkipWatch(t *testing.T) {
	assert.True(t, skipWatch("node_modules/react"))
	assert.True(t, skipWatch(".chunkgraph/static"))
	assert.False(t, skipWatch("pages/index.js"))
}

func TestReadContent_Memoized(t *testing.T) {
	engine := tasks.New(tasks.Config{CacheSize: 16})
	ctx := tasks.WithEngine(context.Background(), engine)
	m := NewMemoryFileSystem("project")
	p := m.Write("a.js", "v1")

	c, err := ReadContent(ctx, m, p)
	require.NoError(t, err)
	assert.Equal(t, "v1", c.String())

	m.Write("a.js", "v2")
	c, err = ReadContent(ctx, m, p)
	require.NoError(t, err)
	assert.Equal(t, "v1", c.String())

	engine.InvalidateWhere(func(op, subject string) bool {
		return op == ReadOp && subject == p.String()
	})
	c, err = ReadContent(ctx, m, p)
	require.NoError(t, err)
	assert.Equal(t, "v2", c.String())

	_, err = ReadContent(ctx, m, types.NewPath("project", "missing.js"))
	assert.ErrorIs(t, err, types.ErrNotFound)
}
