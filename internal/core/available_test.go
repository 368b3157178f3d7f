package core

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dshills/chunkgraph/pkg/types"
)

func ident(p string) types.AssetIdent {
	return types.NewIdent(types.NewPath("project", p))
}

func TestAvailableAssets(t *testing.T) {
	parent := NewAvailableAssets(nil, []types.AssetIdent{ident("a.js"), ident("a.js")})
	child := NewAvailableAssets(parent, []types.AssetIdent{ident("b.js")})

	assert.Equal(t, 1, parent.Len())
	assert.Equal(t, 2, child.Len())
	assert.True(t, child.Includes(ident("a.js")))
	assert.True(t, child.Includes(ident("b.js")))
	assert.False(t, parent.Includes(ident("b.js")))
	assert.False(t, child.Includes(ident("a.js").WithModifier("chunks")))
}

func TestAvailableAssets_Key(t *testing.T) {
	var none *AvailableAssets
	assert.Equal(t, "", none.Key())
	assert.Zero(t, none.Len())
	assert.False(t, none.Includes(ident("a.js")))

	ab := NewAvailableAssets(nil, []types.AssetIdent{ident("a.js"), ident("b.js")})
	ba := NewAvailableAssets(nil, []types.AssetIdent{ident("b.js"), ident("a.js")})
	assert.Equal(t, ab.Key(), ba.Key(), "order independent")
	assert.Len(t, ab.Key(), 64)

	nested := NewAvailableAssets(NewAvailableAssets(nil, []types.AssetIdent{ident("a.js")}), []types.AssetIdent{ident("b.js")})
	assert.NotEqual(t, ab.Key(), nested.Key(), "parents are part of the key")
}
