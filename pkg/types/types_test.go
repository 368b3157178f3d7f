package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPath_Cleans(t *testing.T) {
	assert.Equal(t, "a/b", NewPath("p", "/a/./b/").Path)
	assert.Equal(t, "a/c", NewPath("p", `a\b\..\c`).Path)
	assert.Equal(t, "", NewPath("p", "/").Path)
	assert.Equal(t, "b", NewPath("p", "../../b").Path)
}

func TestFileSystemPath_Navigation(t *testing.T) {
	p := NewPath("project", "pages/index.js")

	assert.Equal(t, NewPath("project", "pages"), p.Parent())
	assert.Equal(t, NewPath("project", ""), p.Parent().Parent())
	assert.True(t, p.Parent().Parent().Parent().IsRoot())
	assert.Equal(t, "index.js", p.Base())
	assert.Equal(t, ".js", p.Extension())
	assert.Equal(t, NewPath("project", "pages/lib/a.js"), p.Parent().Join("lib", "a.js"))
	assert.Equal(t, "[project]/pages/index.js", p.String())
}

func TestFileSystemPath_IsInside(t *testing.T) {
	root := NewPath("output", "static")

	assert.True(t, NewPath("output", "static/a.js").IsInside(root))
	assert.False(t, NewPath("output", "static").IsInside(root))
	assert.False(t, NewPath("output", "staticx/a.js").IsInside(root))
	assert.False(t, NewPath("other", "static/a.js").IsInside(root))
	assert.True(t, NewPath("output", "a.js").IsInside(NewPath("output", "")))
}

func TestFileSystemPath_GetPathTo(t *testing.T) {
	root := NewPath("output", "build")

	tests := []struct {
		name     string
		base     FileSystemPath
		target   FileSystemPath
		expected string
		ok       bool
	}{
		{"descendant", root, NewPath("output", "build/static/chunks/a.js"), "static/chunks/a.js", true},
		{"itself", root, root, "", true},
		{"sibling prefix", root, NewPath("output", "builds/a.js"), "", false},
		{"outside", root, NewPath("output", "other/a.js"), "", false},
		{"other file system", root, NewPath("project", "build/a.js"), "", false},
		{"from root", NewPath("output", ""), NewPath("output", "a/b.js"), "a/b.js", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rel, ok := tt.base.GetPathTo(tt.target)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, rel)
		})
	}
}

func TestAssetIdent(t *testing.T) {
	ident := NewIdent(NewPath("project", "pages/index.js"))
	withChunks := ident.WithModifier("chunks")

	assert.Empty(t, ident.Modifiers, "receiver untouched")
	assert.Equal(t, "[project]/pages/index.js (chunks)", withChunks.String())
	assert.False(t, ident.Equal(withChunks))
	assert.True(t, withChunks.Equal(ident.WithModifier("chunks")))

	ident.Query = "raw"
	assert.Equal(t, "[project]/pages/index.js?raw (a, b)", ident.WithModifier("a").WithModifier("b").String())
}

func TestModuleID_JSON(t *testing.T) {
	data, err := json.Marshal([]ModuleID{StringModuleID(`pages/"a".js`), NumberModuleID(42)})
	require.NoError(t, err)
	assert.Equal(t, `["pages/\"a\".js",42]`, string(data))

	data, err = StringModuleID("<a>").MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"<a>"`, string(data), "no HTML escaping")

	assert.True(t, ModuleID{}.IsZero())
	assert.False(t, NumberModuleID(0).IsZero())
	assert.True(t, NumberModuleID(7).IsNumber())
	assert.Equal(t, "7", NumberModuleID(7).String())
}

func TestChunkItemContent_Validate(t *testing.T) {
	var nilContent *ChunkItemContent
	assert.ErrorIs(t, nilContent.Validate(), ErrInvalidContent)
	assert.ErrorIs(t, (&ChunkItemContent{}).Validate(), ErrInvalidContent)

	c := &ChunkItemContent{InnerCode: "x"}
	assert.NoError(t, c.Validate())
	assert.Equal(t, AssetContent{Bytes: []byte("x")}.ComputeContentHash(), c.ContentHash())
}
