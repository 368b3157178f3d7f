package static

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/dshills/chunkgraph/internal/core"
	"github.com/dshills/chunkgraph/internal/fs"
	"github.com/dshills/chunkgraph/pkg/types"
)

// Modifier distinguishes a static chunk from its source asset
const Modifier = "static"

// Asset is a source file copied to the output as is, such as a stylesheet or
// an image
type Asset struct {
	fs   fs.FileSystem
	path types.FileSystemPath
}

// New creates a static asset for p on fsys
func New(fsys fs.FileSystem, p types.FileSystemPath) *Asset {
	return &Asset{fs: fsys, path: p}
}

// Path returns the source location
func (a *Asset) Path() types.FileSystemPath { return a.path }

func (a *Asset) Ident(ctx context.Context) (types.AssetIdent, error) {
	return types.NewIdent(a.path), nil
}

func (a *Asset) Content(ctx context.Context) (types.AssetContent, error) {
	return fs.ReadContent(ctx, a.fs, a.path)
}

func (a *Asset) References(ctx context.Context) ([]core.AssetReference, error) {
	return nil, nil
}

// AsChunk packages the asset as a chunk of its own. Availability does not
// apply to static assets.
func (a *Asset) AsChunk(ctx context.Context, chunkingContext core.ChunkingContext, available *core.AvailableAssets, availabilityRoot core.Asset) (core.Chunk, error) {
	return &Chunk{asset: a, chunkingContext: chunkingContext}, nil
}

// Chunk is the output copy of a static asset. Its file name carries a hash
// of the content.
type Chunk struct {
	asset           *Asset
	chunkingContext core.ChunkingContext
}

func (c *Chunk) Ident(ctx context.Context) (types.AssetIdent, error) {
	return types.NewIdent(c.asset.path).WithModifier(Modifier), nil
}

func (c *Chunk) Content(ctx context.Context) (types.AssetContent, error) {
	return c.asset.Content(ctx)
}

func (c *Chunk) References(ctx context.Context) ([]core.AssetReference, error) {
	return nil, nil
}

func (c *Chunk) Path(ctx context.Context) (types.FileSystemPath, error) {
	content, err := c.asset.Content(ctx)
	if err != nil {
		return types.FileSystemPath{}, fmt.Errorf("failed to read static asset: %w", err)
	}
	sum := content.ComputeContentHash()
	return c.chunkingContext.AssetPath(hex.EncodeToString(sum[:]), c.asset.path)
}
