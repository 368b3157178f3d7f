package emitter

import (
	"context"

	"github.com/dshills/chunkgraph/internal/core"
)

// collectChunks returns roots and every chunk reachable from them through
// chunk group and parallel chunk references, deduplicated by output path.
// Roots come first, the rest in discovery order.
func collectChunks(ctx context.Context, roots []core.Chunk) ([]core.Chunk, error) {
	seen := make(map[string]struct{})
	var out []core.Chunk
	queue := append([]core.Chunk(nil), roots...)

	for len(queue) > 0 {
		chunk := queue[0]
		queue = queue[1:]

		p, err := chunk.Path(ctx)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[p.String()]; ok {
			continue
		}
		seen[p.String()] = struct{}{}
		out = append(out, chunk)

		refs, err := chunk.References(ctx)
		if err != nil {
			return nil, err
		}
		for _, ref := range refs {
			switch r := ref.(type) {
			case *core.ParallelChunkReference:
				queue = append(queue, r.Chunk)
			case *core.ChunkGroupReference:
				chunks, err := r.Group.Chunks(ctx)
				if err != nil {
					return nil, err
				}
				queue = append(queue, chunks...)
			}
		}
	}
	return out, nil
}
