package emitter

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dshills/chunkgraph/internal/tasks"
)

// ModuleChunks is the with chunks module generated for one module
type ModuleChunks struct {
	Module       string   `json:"module"`
	ModuleID     string   `json:"module_id"`
	ClientChunks []string `json:"client_chunks"`
	Code         string   `json:"code"`
}

// RenderModule generates the with chunks module of the module at rel,
// relative to the project root, without writing any file
func (e *Emitter) RenderModule(ctx context.Context, cfg *Config, rel string) (*ModuleChunks, error) {
	p, err := e.newPipeline(cfg)
	if err != nil {
		return nil, err
	}
	ctx = tasks.WithEngine(ctx, e.engine)

	rel = filepath.ToSlash(filepath.Clean(rel))
	if filepath.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, "../") {
		return nil, fmt.Errorf("module %q is outside the project", rel)
	}

	asset := p.withChunks(rel)
	item, err := asset.AsChunkItem(ctx, p.chunking)
	if err != nil {
		return nil, err
	}
	content, err := item.Content(ctx)
	if err != nil {
		return nil, err
	}
	clientChunks, err := asset.ClientChunks(ctx)
	if err != nil {
		return nil, err
	}
	ident, err := asset.Module().Ident(ctx)
	if err != nil {
		return nil, err
	}
	id, err := p.chunking.ChunkItemID(ctx, ident)
	if err != nil {
		return nil, err
	}

	return &ModuleChunks{
		Module:       rel,
		ModuleID:     id.String(),
		ClientChunks: clientChunks,
		Code:         content.InnerCode,
	}, nil
}
