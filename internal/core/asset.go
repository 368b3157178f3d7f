package core

import (
	"context"

	"github.com/dshills/chunkgraph/pkg/types"
)

// Asset is a node of the module graph
type Asset interface {
	// Ident identifies the asset; equal idents denote the same node
	Ident(ctx context.Context) (types.AssetIdent, error)

	// Content returns the raw content of the asset
	Content(ctx context.Context) (types.AssetContent, error)

	// References lists the edges from this asset to other assets
	References(ctx context.Context) ([]AssetReference, error)
}

// ChunkableAsset is an asset that can be packaged into a chunk
type ChunkableAsset interface {
	Asset

	// AsChunk packages the asset as a chunk under chunkingContext. available
	// lists assets already loaded; availabilityRoot is the asset relative to
	// which availability is computed. Both may be nil.
	AsChunk(ctx context.Context, chunkingContext ChunkingContext, available *AvailableAssets, availabilityRoot Asset) (Chunk, error)
}

// Chunk is an output file
type Chunk interface {
	Asset

	// Path is the absolute output location of the chunk
	Path(ctx context.Context) (types.FileSystemPath, error)
}

// ChunkItem is the view of an asset placed inside a chunk
type ChunkItem interface {
	AssetIdent(ctx context.Context) (types.AssetIdent, error)
	References(ctx context.Context) ([]AssetReference, error)
}

// ChunkingContext controls the output layout and runtime ids of chunks
type ChunkingContext interface {
	// Name labels the context in logs and descriptions
	Name() string

	// Key identifies every setting that changes output. Contexts with equal
	// keys lay out chunks and assign ids identically; task keys use it.
	Key() string

	// OutputRoot is the root of every output path
	OutputRoot() types.FileSystemPath

	// ChunkPath returns the output path of a chunk for ident
	ChunkPath(ident types.AssetIdent, extension string) (types.FileSystemPath, error)

	// AssetPath returns the output path of a static asset
	AssetPath(contentHash string, original types.FileSystemPath) (types.FileSystemPath, error)

	// ChunkItemID returns the runtime module id of the item for ident
	ChunkItemID(ctx context.Context, ident types.AssetIdent) (types.ModuleID, error)
}
