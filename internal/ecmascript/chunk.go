package ecmascript

import (
	"context"
	"fmt"
	"strings"

	"github.com/dshills/chunkgraph/internal/chunker"
	"github.com/dshills/chunkgraph/internal/core"
	"github.com/dshills/chunkgraph/internal/tasks"
	"github.com/dshills/chunkgraph/pkg/types"
)

// ChunkModifier distinguishes a chunk from its entry module
const ChunkModifier = "ecmascript chunk"

const chunkItemPrelude = "(({ e: exports, m: module, r: __turbopack_require__, esm: __turbopack_esm__, i: __turbopack_import__, l: __turbopack_load__ }) => (() => {\n"

// Chunk is a JavaScript output file holding an entry module and every
// placeable module it statically depends on
type Chunk struct {
	chunkingContext  core.ChunkingContext
	entry            ChunkPlaceable
	available        *core.AvailableAssets
	availabilityRoot core.Asset
}

// NewChunk creates the chunk for entry. Modules in available are left out.
func NewChunk(chunkingContext core.ChunkingContext, entry ChunkPlaceable, available *core.AvailableAssets, availabilityRoot core.Asset) *Chunk {
	return &Chunk{
		chunkingContext:  chunkingContext,
		entry:            entry,
		available:        available,
		availabilityRoot: availabilityRoot,
	}
}

// Entry returns the main module of the chunk
func (c *Chunk) Entry() ChunkPlaceable { return c.entry }

// Ident names the chunk after its entry. Chunks built with available
// modules hold different code than the entry's standalone chunk and carry
// the availability digest as an extra modifier.
func (c *Chunk) Ident(ctx context.Context) (types.AssetIdent, error) {
	ident, err := c.entry.Ident(ctx)
	if err != nil {
		return types.AssetIdent{}, err
	}
	if c.available.Len() > 0 {
		ident = ident.WithModifier("available " + c.available.Key()[:8])
	}
	return ident.WithModifier(ChunkModifier), nil
}

func (c *Chunk) Path(ctx context.Context) (types.FileSystemPath, error) {
	ident, err := c.Ident(ctx)
	if err != nil {
		return types.FileSystemPath{}, err
	}
	return c.chunkingContext.ChunkPath(ident, ".js")
}

func (c *Chunk) key(ctx context.Context, op string) (tasks.Key, error) {
	ident, err := c.entry.Ident(ctx)
	if err != nil {
		return tasks.Key{}, err
	}
	rootIdent, err := core.IdentOf(ctx, c.availabilityRoot)
	if err != nil {
		return tasks.Key{}, err
	}
	return tasks.NewKey(op, ident.String(), c.chunkingContext.Key(), c.available.Key(), rootIdent.String()), nil
}

// Modules returns the placeable modules in the chunk: the entry first, then
// its static dependencies in depth first order. Modules already available
// are skipped, except for the entry.
func (c *Chunk) Modules(ctx context.Context) ([]ChunkPlaceable, error) {
	key, err := c.key(ctx, "ecmascript_chunk_modules")
	if err != nil {
		return nil, err
	}
	return tasks.Memo(ctx, key, func(ctx context.Context) ([]ChunkPlaceable, error) {
		var modules []ChunkPlaceable
		seen := make(map[string]struct{})

		var visit func(m ChunkPlaceable) error
		visit = func(m ChunkPlaceable) error {
			ident, err := m.Ident(ctx)
			if err != nil {
				return err
			}
			s := ident.String()
			if _, ok := seen[s]; ok {
				return nil
			}
			seen[s] = struct{}{}
			if len(modules) > 0 && c.available.Includes(ident) {
				return nil
			}
			modules = append(modules, m)

			refs, err := m.References(ctx)
			if err != nil {
				return err
			}
			for _, ref := range refs {
				single, ok := ref.(*core.SingleAssetReference)
				if !ok {
					continue
				}
				if placeable, ok := single.Asset.(ChunkPlaceable); ok {
					if err := visit(placeable); err != nil {
						return err
					}
				}
			}
			return nil
		}

		if err := visit(c.entry); err != nil {
			return nil, err
		}
		return modules, nil
	})
}

// References lists the chunks loaded in parallel with this one, for static
// imports of non-placeable assets, and the chunk groups of dynamic imports
func (c *Chunk) References(ctx context.Context) ([]core.AssetReference, error) {
	modules, err := c.Modules(ctx)
	if err != nil {
		return nil, err
	}

	idents := make([]types.AssetIdent, 0, len(modules))
	for _, m := range modules {
		ident, err := m.Ident(ctx)
		if err != nil {
			return nil, err
		}
		idents = append(idents, ident)
	}
	loaded := core.NewAvailableAssets(c.available, idents)

	var refs []core.AssetReference
	for _, m := range modules {
		moduleRefs, err := m.References(ctx)
		if err != nil {
			return nil, err
		}
		for _, ref := range moduleRefs {
			switch r := ref.(type) {
			case *core.SingleAssetReference:
				if _, ok := r.Asset.(ChunkPlaceable); ok {
					continue
				}
				chunkable, ok := r.Asset.(core.ChunkableAsset)
				if !ok {
					continue
				}
				chunk, err := chunkable.AsChunk(ctx, c.chunkingContext, nil, nil)
				if err != nil {
					return nil, err
				}
				refs = append(refs, core.NewParallelChunkReference(chunk))
			case *core.AsyncAssetReference:
				refs = append(refs, core.NewChunkGroupReference(
					chunker.FromAsset(r.Asset, c.chunkingContext, loaded, r.Asset),
				))
			case *core.ChunkGroupReference, *core.ParallelChunkReference:
				refs = append(refs, ref)
			}
		}
	}
	return refs, nil
}

// Content renders every module of the chunk into the chunk runtime wrapper
func (c *Chunk) Content(ctx context.Context) (types.AssetContent, error) {
	key, err := c.key(ctx, "ecmascript_chunk_content")
	if err != nil {
		return types.AssetContent{}, err
	}
	return tasks.Memo(ctx, key, c.render)
}

func (c *Chunk) render(ctx context.Context) (types.AssetContent, error) {
	modules, err := c.Modules(ctx)
	if err != nil {
		return types.AssetContent{}, err
	}
	p, err := c.Path(ctx)
	if err != nil {
		return types.AssetContent{}, err
	}
	name, ok := c.chunkingContext.OutputRoot().GetPathTo(p)
	if !ok {
		name = p.String()
	}
	nameLiteral, err := StringifyJS(name)
	if err != nil {
		return types.AssetContent{}, err
	}

	var b strings.Builder
	b.WriteString("(self.TURBOPACK = self.TURBOPACK || []).push([")
	b.WriteString(nameLiteral)
	b.WriteString(", {\n")
	for _, m := range modules {
		item, err := m.AsChunkItem(ctx, c.chunkingContext)
		if err != nil {
			return types.AssetContent{}, err
		}
		content, err := item.Content(ctx)
		if err != nil {
			return types.AssetContent{}, err
		}
		if err := content.Validate(); err != nil {
			return types.AssetContent{}, err
		}
		id, err := ChunkItemID(ctx, item)
		if err != nil {
			return types.AssetContent{}, err
		}
		idLiteral, err := StringifyJS(id)
		if err != nil {
			return types.AssetContent{}, err
		}

		b.WriteString("\n")
		b.WriteString(idLiteral)
		b.WriteString(": ")
		b.WriteString(chunkItemPrelude)
		if content.UseStrict {
			b.WriteString("\"use strict\";\n\n")
		}
		b.WriteString(content.InnerCode)
		if !strings.HasSuffix(content.InnerCode, "\n") {
			b.WriteString("\n")
		}
		b.WriteString("})()),\n")
	}
	b.WriteString("}]);\n")
	return types.AssetContent{Bytes: []byte(b.String())}, nil
}

// String is used in error messages
func (c *Chunk) String() string {
	return fmt.Sprintf("ecmascript chunk (%s)", c.chunkingContext.Name())
}
