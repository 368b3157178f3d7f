// Package coretest provides in-memory fakes of the asset graph contracts.
package coretest

import (
	"context"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/dshills/chunkgraph/internal/core"
	"github.com/dshills/chunkgraph/pkg/types"
)

// Chunk is a chunk with a fixed path and references
type Chunk struct {
	ID      types.AssetIdent
	OutPath types.FileSystemPath
	PathErr error // Returned by Path when set
	Refs    []core.AssetReference
	Body    string

	PathCalls atomic.Int32
}

// NewChunk creates a chunk named after its output path
func NewChunk(out types.FileSystemPath, refs ...core.AssetReference) *Chunk {
	return &Chunk{ID: types.NewIdent(out), OutPath: out, Refs: refs}
}

func (c *Chunk) Ident(ctx context.Context) (types.AssetIdent, error) {
	return c.ID, nil
}

func (c *Chunk) Content(ctx context.Context) (types.AssetContent, error) {
	return types.AssetContent{Bytes: []byte(c.Body)}, nil
}

func (c *Chunk) References(ctx context.Context) ([]core.AssetReference, error) {
	return c.Refs, nil
}

func (c *Chunk) Path(ctx context.Context) (types.FileSystemPath, error) {
	c.PathCalls.Add(1)
	if c.PathErr != nil {
		return types.FileSystemPath{}, c.PathErr
	}
	return c.OutPath, nil
}

// Asset is a chunkable asset that packages itself as a preset chunk
type Asset struct {
	ID         types.AssetIdent
	IdentErr   error
	EntryChunk core.Chunk
	ChunkErr   error
	Refs       []core.AssetReference
}

// NewAsset creates an asset for p that chunks into entry
func NewAsset(p types.FileSystemPath, entry core.Chunk) *Asset {
	return &Asset{ID: types.NewIdent(p), EntryChunk: entry}
}

func (a *Asset) Ident(ctx context.Context) (types.AssetIdent, error) {
	if a.IdentErr != nil {
		return types.AssetIdent{}, a.IdentErr
	}
	return a.ID, nil
}

func (a *Asset) Content(ctx context.Context) (types.AssetContent, error) {
	return types.AssetContent{}, nil
}

func (a *Asset) References(ctx context.Context) ([]core.AssetReference, error) {
	return a.Refs, nil
}

func (a *Asset) AsChunk(ctx context.Context, cc core.ChunkingContext, available *core.AvailableAssets, root core.Asset) (core.Chunk, error) {
	if a.ChunkErr != nil {
		return nil, a.ChunkErr
	}
	return a.EntryChunk, nil
}

// ChunkingContext is a chunking context with fixed module ids
type ChunkingContext struct {
	ContextName string
	Output      types.FileSystemPath
	IDs         map[string]types.ModuleID // Keyed by ident string
	IDErr       error
}

func (c *ChunkingContext) Name() string {
	if c.ContextName == "" {
		return "test"
	}
	return c.ContextName
}

// Key covers the name, output root and fixed ids
func (c *ChunkingContext) Key() string {
	ids := make([]string, 0, len(c.IDs))
	for ident, id := range c.IDs {
		ids = append(ids, ident+"="+id.String())
	}
	sort.Strings(ids)
	return c.Name() + "\x00" + c.Output.String() + "\x00" + strings.Join(ids, "\x00")
}

func (c *ChunkingContext) OutputRoot() types.FileSystemPath { return c.Output }

func (c *ChunkingContext) ChunkPath(ident types.AssetIdent, extension string) (types.FileSystemPath, error) {
	return c.Output.Join("chunks", ident.Path.Path+extension), nil
}

func (c *ChunkingContext) AssetPath(contentHash string, original types.FileSystemPath) (types.FileSystemPath, error) {
	return c.Output.Join("media", contentHash+original.Extension()), nil
}

func (c *ChunkingContext) ChunkItemID(ctx context.Context, ident types.AssetIdent) (types.ModuleID, error) {
	if c.IDErr != nil {
		return types.ModuleID{}, c.IDErr
	}
	if id, ok := c.IDs[ident.String()]; ok {
		return id, nil
	}
	return types.StringModuleID(ident.String()), nil
}
