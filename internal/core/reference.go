package core

import (
	"context"
	"fmt"

	"github.com/dshills/chunkgraph/pkg/types"
)

// AssetReference is an edge in the module graph
type AssetReference interface {
	// ResolveReference returns the assets the reference points to
	ResolveReference(ctx context.Context) ([]Asset, error)

	String() string
}

// ChunkGroupSpec is the argument tuple of chunk group resolution
type ChunkGroupSpec struct {
	Root             Asset
	ChunkingContext  ChunkingContext
	Available        *AvailableAssets
	AvailabilityRoot Asset
}

// ChunkGroup is the ordered set of chunks required to load a root asset
type ChunkGroup interface {
	Spec() ChunkGroupSpec
	Chunks(ctx context.Context) ([]Chunk, error)
}

// ChunkGroupReference makes a whole chunk group a dependency of the asset
// that declares it
type ChunkGroupReference struct {
	Group ChunkGroup
}

// NewChunkGroupReference creates a reference to group
func NewChunkGroupReference(group ChunkGroup) *ChunkGroupReference {
	return &ChunkGroupReference{Group: group}
}

func (r *ChunkGroupReference) ResolveReference(ctx context.Context) ([]Asset, error) {
	chunks, err := r.Group.Chunks(ctx)
	if err != nil {
		return nil, err
	}
	assets := make([]Asset, len(chunks))
	for i, c := range chunks {
		assets[i] = c
	}
	return assets, nil
}

func (r *ChunkGroupReference) String() string {
	return "chunk group (" + r.Group.Spec().ChunkingContext.Name() + ")"
}

// ParallelChunkReference points to a chunk that must be loaded together with
// the chunk declaring it
type ParallelChunkReference struct {
	Chunk Chunk
}

// NewParallelChunkReference creates a reference to chunk
func NewParallelChunkReference(chunk Chunk) *ParallelChunkReference {
	return &ParallelChunkReference{Chunk: chunk}
}

func (r *ParallelChunkReference) ResolveReference(ctx context.Context) ([]Asset, error) {
	return []Asset{r.Chunk}, nil
}

func (r *ParallelChunkReference) String() string {
	return "parallel chunk"
}

// SingleAssetReference is a plain edge to one asset
type SingleAssetReference struct {
	Asset       Asset
	Description string
}

// NewSingleAssetReference creates a reference to asset
func NewSingleAssetReference(asset Asset, description string) *SingleAssetReference {
	return &SingleAssetReference{Asset: asset, Description: description}
}

func (r *SingleAssetReference) ResolveReference(ctx context.Context) ([]Asset, error) {
	return []Asset{r.Asset}, nil
}

func (r *SingleAssetReference) String() string {
	return r.Description
}

// AsyncAssetReference is an edge loaded on demand, such as a dynamic import.
// Chunks turn it into a chunk group of its own.
type AsyncAssetReference struct {
	Asset       Asset
	Description string
}

// NewAsyncAssetReference creates an on-demand reference to asset
func NewAsyncAssetReference(asset Asset, description string) *AsyncAssetReference {
	return &AsyncAssetReference{Asset: asset, Description: description}
}

func (r *AsyncAssetReference) ResolveReference(ctx context.Context) ([]Asset, error) {
	return []Asset{r.Asset}, nil
}

func (r *AsyncAssetReference) String() string {
	return "async " + r.Description
}

// IdentOf returns the ident of an optional asset; nil yields the zero ident
func IdentOf(ctx context.Context, a Asset) (types.AssetIdent, error) {
	if a == nil {
		return types.AssetIdent{}, nil
	}
	ident, err := a.Ident(ctx)
	if err != nil {
		return types.AssetIdent{}, fmt.Errorf("failed to get asset ident: %w", err)
	}
	return ident, nil
}
