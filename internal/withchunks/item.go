package withchunks

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/chunkgraph/internal/core"
	"github.com/dshills/chunkgraph/internal/ecmascript"
	"github.com/dshills/chunkgraph/internal/tasks"
	"github.com/dshills/chunkgraph/pkg/types"
)

// codeTemplate is the module body consumed by the runtime loader. default
// is bound to the module id literal, not to the module's value.
const codeTemplate = `__turbopack_esm__({
  default: () => %s,
  chunks: () => chunks
});
const chunks = %s;
`

// ChunkItem is an Asset placed in a chunk built with a given context
type ChunkItem struct {
	asset           *Asset
	chunkingContext core.ChunkingContext
}

// Asset returns the asset the item was created from
func (i *ChunkItem) Asset() *Asset { return i.asset }

// ChunkingContext returns the context of the chunk the item is placed in
func (i *ChunkItem) ChunkingContext() core.ChunkingContext { return i.chunkingContext }

// AssetIdent returns the ident of the asset
func (i *ChunkItem) AssetIdent(ctx context.Context) (types.AssetIdent, error) {
	return i.asset.Ident(ctx)
}

// References returns the references of the asset
func (i *ChunkItem) References(ctx context.Context) ([]core.AssetReference, error) {
	return i.asset.References(ctx)
}

// Content generates the module body. Chunks outside the server root are
// left out of the list.
func (i *ChunkItem) Content(ctx context.Context) (*types.ChunkItemContent, error) {
	// The text depends on the asset alone, not on the chunk it is placed in
	key, err := i.asset.key(ctx, "with_chunks_content")
	if err != nil {
		return nil, err
	}
	content, err := tasks.Memo(ctx, key, i.synthesize)
	if err != nil {
		return nil, err
	}
	return &content, nil
}

func (i *ChunkItem) synthesize(ctx context.Context) (types.ChunkItemContent, error) {
	a := i.asset
	clientChunks, err := a.ClientChunks(ctx)
	if err != nil {
		return types.ChunkItemContent{}, err
	}

	item, err := a.module.AsChunkItem(ctx, a.chunkingContext)
	if err != nil {
		return types.ChunkItemContent{}, err
	}
	id, err := ecmascript.ChunkItemID(ctx, item)
	if err != nil {
		return types.ChunkItemContent{}, err
	}
	moduleID, err := ecmascript.StringifyJS(id)
	if err != nil {
		return types.ChunkItemContent{}, err
	}
	list, err := ecmascript.StringifyJS(clientChunks)
	if err != nil {
		return types.ChunkItemContent{}, err
	}

	return types.ChunkItemContent{InnerCode: fmt.Sprintf(codeTemplate, moduleID, list)}, nil
}

// ClientChunks lists the chunks of the module's chunk group relative to the
// server root, in chunk group order. Chunks outside the server root are
// skipped. The returned slice is the caller's.
func (a *Asset) ClientChunks(ctx context.Context) ([]string, error) {
	key, err := a.key(ctx, "with_chunks_client_chunks")
	if err != nil {
		return nil, err
	}
	list, err := tasks.Memo(ctx, key, a.clientChunks)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), list...), nil
}

func (a *Asset) clientChunks(ctx context.Context) ([]string, error) {
	chunks, err := a.chunkGroup().Chunks(ctx)
	if err != nil {
		return nil, err
	}
	paths, err := chunkPaths(ctx, chunks)
	if err != nil {
		return nil, err
	}

	clientChunks := make([]string, 0, len(paths))
	for _, p := range paths {
		if rel, ok := a.serverRoot.GetPathTo(p); ok {
			clientChunks = append(clientChunks, rel)
		}
	}
	return clientChunks, nil
}

// chunkPaths resolves the output path of every chunk concurrently. The
// first failure cancels the rest and is returned as is.
func chunkPaths(ctx context.Context, chunks []core.Chunk) ([]types.FileSystemPath, error) {
	paths := make([]types.FileSystemPath, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	for idx, c := range chunks {
		g.Go(func() error {
			p, err := c.Path(gctx)
			if err != nil {
				return err
			}
			paths[idx] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}
