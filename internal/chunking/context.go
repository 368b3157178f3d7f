package chunking

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/zeebo/blake3"

	"github.com/dshills/chunkgraph/pkg/types"
)

const (
	// StrategyPath uses the project relative path as module id
	StrategyPath = "path"

	// StrategyHash uses a short digest of the ident as module id
	StrategyHash = "hash"

	// maxChunkNameLength is the longest chunk file name kept verbatim
	maxChunkNameLength = 80
)

// Options configures a DevContext. Zero values select defaults.
type Options struct {
	Name             string // Default: "client"
	ChunkRoot        string // Relative to the output root (default: "static/chunks")
	AssetRoot        string // Relative to the output root (default: "static/media")
	ModuleIDStrategy string // StrategyPath (default) or StrategyHash
}

// DevContext lays out chunks below an output root with readable names
type DevContext struct {
	name        string
	projectRoot types.FileSystemPath
	outputRoot  types.FileSystemPath
	chunkRoot   types.FileSystemPath
	assetRoot   types.FileSystemPath
	strategy    string
}

// NewDevContext creates a chunking context for sources below projectRoot
// writing to outputRoot
func NewDevContext(projectRoot, outputRoot types.FileSystemPath, opts Options) (*DevContext, error) {
	if opts.Name == "" {
		opts.Name = "client"
	}
	if opts.ChunkRoot == "" {
		opts.ChunkRoot = "static/chunks"
	}
	if opts.AssetRoot == "" {
		opts.AssetRoot = "static/media"
	}
	switch opts.ModuleIDStrategy {
	case "":
		opts.ModuleIDStrategy = StrategyPath
	case StrategyPath, StrategyHash:
	default:
		return nil, fmt.Errorf("unknown module id strategy %q", opts.ModuleIDStrategy)
	}

	return &DevContext{
		name:        opts.Name,
		projectRoot: projectRoot,
		outputRoot:  outputRoot,
		chunkRoot:   outputRoot.Join(opts.ChunkRoot),
		assetRoot:   outputRoot.Join(opts.AssetRoot),
		strategy:    opts.ModuleIDStrategy,
	}, nil
}

func (c *DevContext) Name() string { return c.name }

// Key digests the name, roots and module id strategy
func (c *DevContext) Key() string {
	return digest(strings.Join([]string{
		c.name,
		c.projectRoot.String(),
		c.outputRoot.String(),
		c.chunkRoot.String(),
		c.assetRoot.String(),
		c.strategy,
	}, "\x00"))
}

func (c *DevContext) ProjectRoot() types.FileSystemPath { return c.projectRoot }

func (c *DevContext) OutputRoot() types.FileSystemPath { return c.outputRoot }

func (c *DevContext) ChunkRoot() types.FileSystemPath { return c.chunkRoot }

func (c *DevContext) AssetRoot() types.FileSystemPath { return c.assetRoot }

func (c *DevContext) ModuleIDStrategy() string { return c.strategy }

// ChunkPath places the chunk for ident below the chunk root
func (c *DevContext) ChunkPath(ident types.AssetIdent, extension string) (types.FileSystemPath, error) {
	name := c.relativeName(ident)
	if ident.Query != "" {
		name += "_" + ident.Query
	}
	for _, m := range ident.Modifiers {
		name += "_" + m
	}
	name = sanitize(name)
	if name == "" {
		return types.FileSystemPath{}, fmt.Errorf("empty chunk name for %s", ident)
	}
	if len(name) > maxChunkNameLength {
		name = name[len(name)-maxChunkNameLength:] + "_" + digest(ident.String())[:8]
	}
	return c.chunkRoot.Join(name + extension), nil
}

// AssetPath places a static asset below the asset root as
// "<stem>.<hash8><ext>"
func (c *DevContext) AssetPath(contentHash string, original types.FileSystemPath) (types.FileSystemPath, error) {
	if len(contentHash) < 8 {
		return types.FileSystemPath{}, fmt.Errorf("content hash %q too short", contentHash)
	}
	ext := original.Extension()
	stem := sanitize(strings.TrimSuffix(original.Base(), ext))
	if stem == "" {
		stem = "asset"
	}
	return c.assetRoot.Join(stem + "." + contentHash[:8] + ext), nil
}

// ChunkItemID returns the runtime id of the item for ident
func (c *DevContext) ChunkItemID(ctx context.Context, ident types.AssetIdent) (types.ModuleID, error) {
	if c.strategy == StrategyHash {
		return types.StringModuleID(digest(ident.String())[:8]), nil
	}

	var b strings.Builder
	b.WriteString(c.relativeName(ident))
	if ident.Query != "" {
		b.WriteString("?" + ident.Query)
	}
	if len(ident.Modifiers) > 0 {
		b.WriteString(" (" + strings.Join(ident.Modifiers, ", ") + ")")
	}
	return types.StringModuleID(b.String()), nil
}

func (c *DevContext) relativeName(ident types.AssetIdent) string {
	if rel, ok := c.projectRoot.GetPathTo(ident.Path); ok {
		return rel
	}
	return "[" + ident.Path.FS + "]/" + ident.Path.Path
}

func sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return strings.Trim(b.String(), "_.")
}

func digest(s string) string {
	sum := blake3.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
