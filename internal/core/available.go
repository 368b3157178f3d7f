package core

import (
	"encoding/hex"
	"sort"

	"github.com/zeebo/blake3"

	"github.com/dshills/chunkgraph/pkg/types"
)

// AvailableAssets is an immutable set of assets already loaded by the time a
// chunk group loads. Sets chain to a parent set.
type AvailableAssets struct {
	parent *AvailableAssets
	idents map[string]struct{}
	key    string
}

// NewAvailableAssets creates a set containing idents on top of parent, which
// may be nil.
func NewAvailableAssets(parent *AvailableAssets, idents []types.AssetIdent) *AvailableAssets {
	set := make(map[string]struct{}, len(idents))
	names := make([]string, 0, len(idents))
	for _, ident := range idents {
		s := ident.String()
		if _, ok := set[s]; ok {
			continue
		}
		set[s] = struct{}{}
		names = append(names, s)
	}
	sort.Strings(names)

	h := blake3.New()
	if parent != nil {
		_, _ = h.WriteString(parent.key)
	}
	for _, n := range names {
		_, _ = h.WriteString(n)
		_, _ = h.WriteString("\x00")
	}
	return &AvailableAssets{parent: parent, idents: set, key: hex.EncodeToString(h.Sum(nil))}
}

// Includes reports whether ident is in the set or any parent
func (a *AvailableAssets) Includes(ident types.AssetIdent) bool {
	s := ident.String()
	for cur := a; cur != nil; cur = cur.parent {
		if _, ok := cur.idents[s]; ok {
			return true
		}
	}
	return false
}

// Key is a stable digest of the set and its parents; nil sets yield ""
func (a *AvailableAssets) Key() string {
	if a == nil {
		return ""
	}
	return a.key
}

// Len counts the assets in the set and its parents
func (a *AvailableAssets) Len() int {
	n := 0
	for cur := a; cur != nil; cur = cur.parent {
		n += len(cur.idents)
	}
	return n
}
