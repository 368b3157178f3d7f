package ecmascript

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/dshills/chunkgraph/internal/core"
	"github.com/dshills/chunkgraph/pkg/types"
)

// ChunkPlaceable is an asset that can be placed in an ecmascript chunk
type ChunkPlaceable interface {
	core.ChunkableAsset

	// AsChunkItem returns the view of the asset inside a chunk built with
	// chunkingContext
	AsChunkItem(ctx context.Context, chunkingContext core.ChunkingContext) (ChunkItem, error)

	GetExports(ctx context.Context) (types.EcmascriptExports, error)
}

// ChunkItem is an asset placed inside an ecmascript chunk
type ChunkItem interface {
	core.ChunkItem

	ChunkingContext() core.ChunkingContext

	// Content returns the generated code of the item
	Content(ctx context.Context) (*types.ChunkItemContent, error)
}

// ChunkItemID returns the runtime module id of item
func ChunkItemID(ctx context.Context, item ChunkItem) (types.ModuleID, error) {
	ident, err := item.AssetIdent(ctx)
	if err != nil {
		return types.ModuleID{}, err
	}
	return item.ChunkingContext().ChunkItemID(ctx, ident)
}

// StringifyJS renders v as a JavaScript literal. HTML characters are kept
// as is and no trailing newline is written.
func StringifyJS(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("failed to stringify value: %w", err)
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
