package withchunks

import (
	"context"
	"fmt"

	"github.com/dshills/chunkgraph/internal/chunker"
	"github.com/dshills/chunkgraph/internal/core"
	"github.com/dshills/chunkgraph/internal/ecmascript"
	"github.com/dshills/chunkgraph/internal/tasks"
	"github.com/dshills/chunkgraph/pkg/types"
)

// Modifier returns the ident modifier that tells a with chunks asset apart
// from the module it wraps
func Modifier() string {
	return "chunks"
}

// Asset is a virtual module that exports the chunks needed to load the
// module it wraps, as paths relative to a server root. It is immutable; two
// assets built from equal arguments are interchangeable.
type Asset struct {
	module          ecmascript.ChunkPlaceable
	serverRoot      types.FileSystemPath
	chunkingContext core.ChunkingContext
}

// New wraps module. Chunks are laid out by chunkingContext and listed
// relative to serverRoot.
func New(module ecmascript.ChunkPlaceable, serverRoot types.FileSystemPath, chunkingContext core.ChunkingContext) *Asset {
	return &Asset{
		module:          module,
		serverRoot:      serverRoot,
		chunkingContext: chunkingContext,
	}
}

// Module returns the wrapped module
func (a *Asset) Module() ecmascript.ChunkPlaceable { return a.module }

// ServerRoot returns the root chunk paths are made relative to
func (a *Asset) ServerRoot() types.FileSystemPath { return a.serverRoot }

// ChunkingContext returns the context the wrapped module is chunked with
func (a *Asset) ChunkingContext() core.ChunkingContext { return a.chunkingContext }

// Ident is the wrapped module's ident with the chunks modifier
func (a *Asset) Ident(ctx context.Context) (types.AssetIdent, error) {
	ident, err := a.module.Ident(ctx)
	if err != nil {
		return types.AssetIdent{}, err
	}
	return ident.WithModifier(Modifier()), nil
}

// Content panics. The asset only has content as a chunk item; reaching this
// is a caller bug.
func (a *Asset) Content(ctx context.Context) (types.AssetContent, error) {
	panic(fmt.Errorf("withchunks: %w: use the chunk item content instead", types.ErrContentUnsupported))
}

// key addresses a derivation of the asset by its constructor arguments
func (a *Asset) key(ctx context.Context, op string) (tasks.Key, error) {
	ident, err := a.module.Ident(ctx)
	if err != nil {
		return tasks.Key{}, err
	}
	return tasks.NewKey(op, ident.String(), a.serverRoot.String(), a.chunkingContext.Key()), nil
}

// chunkGroup is the group of the wrapped module, which is its own
// availability root
func (a *Asset) chunkGroup() *chunker.ChunkGroup {
	return chunker.FromAsset(a.module, a.chunkingContext, nil, a.module)
}

// References returns the chunk group of the wrapped module
func (a *Asset) References(ctx context.Context) ([]core.AssetReference, error) {
	return []core.AssetReference{core.NewChunkGroupReference(a.chunkGroup())}, nil
}

// AsChunk packages the asset as an ecmascript chunk entry
func (a *Asset) AsChunk(ctx context.Context, chunkingContext core.ChunkingContext, available *core.AvailableAssets, availabilityRoot core.Asset) (core.Chunk, error) {
	return ecmascript.NewChunk(chunkingContext, a, available, availabilityRoot), nil
}

// AsChunkItem binds the asset to the chunk built with chunkingContext
func (a *Asset) AsChunkItem(ctx context.Context, chunkingContext core.ChunkingContext) (ecmascript.ChunkItem, error) {
	return &ChunkItem{asset: a, chunkingContext: chunkingContext}, nil
}

// GetExports reports a single value export.
// TODO: expose the wrapped module's bindings as named ES exports.
func (a *Asset) GetExports(ctx context.Context) (types.EcmascriptExports, error) {
	return types.ExportsValue, nil
}
