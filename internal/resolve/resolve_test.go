package resolve

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/chunkgraph/internal/fs"
	"github.com/dshills/chunkgraph/internal/tasks"
	"github.com/dshills/chunkgraph/pkg/types"
)

func newProject() *fs.MemoryFileSystem {
	m := fs.NewMemoryFileSystem("project")
	m.Write("pages/index.js", "")
	m.Write("pages/about.tsx", "")
	m.Write("lib/util.js", "")
	m.Write("lib/widgets/index.jsx", "")
	m.Write("node_modules/react/package.json", `{"main": "cjs/react.js"}`)
	m.Write("node_modules/react/cjs/react.js", "")
	m.Write("node_modules/lodash/index.js", "")
	m.Write("node_modules/lodash/fp.js", "")
	m.Write("node_modules/broken/package.json", `{not json`)
	m.Write("pages/node_modules/local/index.js", "")
	return m
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	r := New(newProject(), nil)
	pages := types.NewPath("project", "pages")

	tests := []struct {
		name      string
		specifier string
		expected  string
	}{
		{"relative with extension", "../lib/util.js", "lib/util.js"},
		{"relative probing extensions", "../lib/util", "lib/util.js"},
		{"sibling tsx", "./about", "pages/about.tsx"},
		{"directory index", "../lib/widgets", "lib/widgets/index.jsx"},
		{"absolute", "/lib/util", "lib/util.js"},
		{"package main", "react", "node_modules/react/cjs/react.js"},
		{"package index", "lodash", "node_modules/lodash/index.js"},
		{"package subpath", "lodash/fp", "node_modules/lodash/fp.js"},
		{"nearest node_modules wins", "local", "pages/node_modules/local/index.js"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := r.Resolve(ctx, pages, tt.specifier)
			require.NoError(t, err)
			assert.Equal(t, types.NewPath("project", tt.expected), p)
		})
	}
}

func TestResolve_Errors(t *testing.T) {
	ctx := context.Background()
	r := New(newProject(), nil)
	pages := types.NewPath("project", "pages")

	_, err := r.Resolve(ctx, pages, "")
	assert.ErrorIs(t, err, types.ErrEmptySpecifier)

	_, err = r.Resolve(ctx, pages, "./missing")
	assert.ErrorIs(t, err, types.ErrUnresolved)

	_, err = r.Resolve(ctx, pages, "not-installed")
	assert.ErrorIs(t, err, types.ErrUnresolved)

	_, err = r.Resolve(ctx, pages, "broken")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "package.json")
}

func TestResolve_CustomExtensions(t *testing.T) {
	r := New(newProject(), []string{".js"})
	_, err := r.Resolve(context.Background(), types.NewPath("project", "pages"), "./about")
	assert.ErrorIs(t, err, types.ErrUnresolved)
}

func TestResolve_MemoizedUntilInvalidated(t *testing.T) {
	engine := tasks.New(tasks.Config{CacheSize: 64})
	ctx := tasks.WithEngine(context.Background(), engine)
	m := newProject()
	r := New(m, nil)
	pages := types.NewPath("project", "pages")

	_, err := r.Resolve(ctx, pages, "./contact")
	assert.ErrorIs(t, err, types.ErrUnresolved)

	m.Write("pages/contact.js", "")
	p, err := r.Resolve(ctx, pages, "./contact")
	require.NoError(t, err, "errors are never cached")
	assert.Equal(t, types.NewPath("project", "pages/contact.js"), p)

	m.Remove("pages/contact.js")
	m.Write("pages/contact.ts", "")
	p, err = r.Resolve(ctx, pages, "./contact")
	require.NoError(t, err)
	assert.Equal(t, "pages/contact.js", p.Path, "cached until invalidated")

	engine.InvalidateWhere(func(op, subject string) bool { return op == "resolve" })
	p, err = r.Resolve(ctx, pages, "./contact")
	require.NoError(t, err)
	assert.Equal(t, "pages/contact.ts", p.Path)
}
