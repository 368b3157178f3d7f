package chunker

import (
	"context"
	"fmt"

	"github.com/dshills/chunkgraph/internal/core"
	"github.com/dshills/chunkgraph/internal/tasks"
	"github.com/dshills/chunkgraph/pkg/types"
)

// ChunkGroup resolves the ordered chunks needed to load a root asset.
// It is a value: groups built from equal arguments resolve to the same chunks
// and share one cached result.
type ChunkGroup struct {
	spec core.ChunkGroupSpec
}

// FromAsset creates the chunk group of root under chunkingContext. available
// and availabilityRoot may be nil.
func FromAsset(root core.Asset, chunkingContext core.ChunkingContext, available *core.AvailableAssets, availabilityRoot core.Asset) *ChunkGroup {
	return &ChunkGroup{spec: core.ChunkGroupSpec{
		Root:             root,
		ChunkingContext:  chunkingContext,
		Available:        available,
		AvailabilityRoot: availabilityRoot,
	}}
}

// Spec returns the arguments the group was built from
func (g *ChunkGroup) Spec() core.ChunkGroupSpec {
	return g.spec
}

// Key returns the task key of the group
func (g *ChunkGroup) Key(ctx context.Context) (tasks.Key, error) {
	rootIdent, err := core.IdentOf(ctx, g.spec.Root)
	if err != nil {
		return tasks.Key{}, err
	}
	availIdent, err := core.IdentOf(ctx, g.spec.AvailabilityRoot)
	if err != nil {
		return tasks.Key{}, err
	}
	return tasks.NewKey("chunk_group",
		rootIdent.String(),
		g.spec.ChunkingContext.Key(),
		g.spec.Available.Key(),
		availIdent.String(),
	), nil
}

// EntryChunk packages the root asset as the first chunk of the group
func (g *ChunkGroup) EntryChunk(ctx context.Context) (core.Chunk, error) {
	chunkable, ok := g.spec.Root.(core.ChunkableAsset)
	if !ok {
		ident, err := core.IdentOf(ctx, g.spec.Root)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s", types.ErrNotChunkable, ident)
	}
	return chunkable.AsChunk(ctx, g.spec.ChunkingContext, g.spec.Available, g.spec.AvailabilityRoot)
}

// Chunks returns the entry chunk followed by every chunk reachable over
// parallel chunk references, breadth first. Chunks are deduplicated by
// output path; the first occurrence wins.
func (g *ChunkGroup) Chunks(ctx context.Context) ([]core.Chunk, error) {
	key, err := g.Key(ctx)
	if err != nil {
		return nil, err
	}
	return tasks.Memo(ctx, key, g.resolve)
}

func (g *ChunkGroup) resolve(ctx context.Context) ([]core.Chunk, error) {
	entry, err := g.EntryChunk(ctx)
	if err != nil {
		return nil, err
	}

	chunks := make([]core.Chunk, 0, 1)
	seen := make(map[types.FileSystemPath]struct{})
	queue := []core.Chunk{entry}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]

		p, err := c.Path(ctx)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		chunks = append(chunks, c)

		refs, err := c.References(ctx)
		if err != nil {
			return nil, err
		}
		for _, ref := range refs {
			if parallel, ok := ref.(*core.ParallelChunkReference); ok {
				queue = append(queue, parallel.Chunk)
			}
		}
	}
	return chunks, nil
}
