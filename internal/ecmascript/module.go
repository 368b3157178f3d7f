package ecmascript

import (
	"context"
	"fmt"

	"github.com/dshills/chunkgraph/internal/core"
	"github.com/dshills/chunkgraph/internal/fs"
	"github.com/dshills/chunkgraph/internal/parser"
	"github.com/dshills/chunkgraph/internal/resolve"
	"github.com/dshills/chunkgraph/internal/static"
	"github.com/dshills/chunkgraph/internal/tasks"
	"github.com/dshills/chunkgraph/pkg/types"
)

// Extensions lists the file extensions treated as ecmascript modules
var Extensions = map[string]bool{
	".js": true, ".jsx": true, ".mjs": true, ".cjs": true, ".ts": true, ".tsx": true,
}

// ModuleContext holds what every module of a project shares
type ModuleContext struct {
	fs       fs.FileSystem
	resolver *resolve.Resolver
	parser   *parser.Parser
}

// NewModuleContext creates a module context reading sources from fsys
func NewModuleContext(fsys fs.FileSystem) *ModuleContext {
	return &ModuleContext{
		fs:       fsys,
		resolver: resolve.New(fsys, nil),
		parser:   parser.New(),
	}
}

// FileSystem returns the source file system
func (c *ModuleContext) FileSystem() fs.FileSystem { return c.fs }

// Process returns the asset for the source file at p: an ecmascript module
// for script extensions, a static asset otherwise
func (c *ModuleContext) Process(p types.FileSystemPath) core.Asset {
	if Extensions[p.Extension()] {
		return &ModuleAsset{context: c, path: p}
	}
	return static.New(c.fs, p)
}

// Module returns the ecmascript module at p
func (c *ModuleContext) Module(p types.FileSystemPath) *ModuleAsset {
	return &ModuleAsset{context: c, path: p}
}

// ModuleAsset is a JavaScript or TypeScript source file
type ModuleAsset struct {
	context *ModuleContext
	path    types.FileSystemPath
}

// Path returns the source location
func (m *ModuleAsset) Path() types.FileSystemPath { return m.path }

func (m *ModuleAsset) Ident(ctx context.Context) (types.AssetIdent, error) {
	return types.NewIdent(m.path), nil
}

func (m *ModuleAsset) Content(ctx context.Context) (types.AssetContent, error) {
	return fs.ReadContent(ctx, m.context.fs, m.path)
}

// Parse returns the imports and module format of the source
func (m *ModuleAsset) Parse(ctx context.Context) (*types.ParseResult, error) {
	return tasks.Memo(ctx, tasks.NewKey("parse", m.path.String()), func(ctx context.Context) (*types.ParseResult, error) {
		content, err := m.Content(ctx)
		if err != nil {
			return nil, err
		}
		return m.context.parser.Parse(m.path.Path, content.Bytes), nil
	})
}

// References resolves every import of the module. Static imports and
// require calls become single asset references, dynamic imports become
// async references.
func (m *ModuleAsset) References(ctx context.Context) ([]core.AssetReference, error) {
	return tasks.Memo(ctx, tasks.NewKey("module_references", m.path.String()), func(ctx context.Context) ([]core.AssetReference, error) {
		result, err := m.Parse(ctx)
		if err != nil {
			return nil, err
		}

		refs := make([]core.AssetReference, 0, len(result.Imports))
		for _, imp := range result.Imports {
			target, err := m.context.resolver.Resolve(ctx, m.path.Parent(), imp.Specifier)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: %w", m.path, imp.Line, err)
			}
			asset := m.context.Process(target)
			desc := string(imp.Kind) + " " + imp.Specifier
			if imp.Kind == types.ImportDynamic {
				refs = append(refs, core.NewAsyncAssetReference(asset, desc))
			} else {
				refs = append(refs, core.NewSingleAssetReference(asset, desc))
			}
		}
		return refs, nil
	})
}

func (m *ModuleAsset) AsChunk(ctx context.Context, chunkingContext core.ChunkingContext, available *core.AvailableAssets, availabilityRoot core.Asset) (core.Chunk, error) {
	return NewChunk(chunkingContext, m, available, availabilityRoot), nil
}

func (m *ModuleAsset) AsChunkItem(ctx context.Context, chunkingContext core.ChunkingContext) (ChunkItem, error) {
	return &moduleChunkItem{module: m, chunkingContext: chunkingContext}, nil
}

func (m *ModuleAsset) GetExports(ctx context.Context) (types.EcmascriptExports, error) {
	result, err := m.Parse(ctx)
	if err != nil {
		return types.ExportsNone, err
	}
	return result.Exports, nil
}

type moduleChunkItem struct {
	module          *ModuleAsset
	chunkingContext core.ChunkingContext
}

func (i *moduleChunkItem) ChunkingContext() core.ChunkingContext { return i.chunkingContext }

func (i *moduleChunkItem) AssetIdent(ctx context.Context) (types.AssetIdent, error) {
	return i.module.Ident(ctx)
}

func (i *moduleChunkItem) References(ctx context.Context) ([]core.AssetReference, error) {
	return i.module.References(ctx)
}

func (i *moduleChunkItem) Content(ctx context.Context) (*types.ChunkItemContent, error) {
	content, err := i.module.Content(ctx)
	if err != nil {
		return nil, err
	}
	exports, err := i.module.GetExports(ctx)
	if err != nil {
		return nil, err
	}
	code := content.String()
	if code == "" {
		code = "// empty module"
	}
	return &types.ChunkItemContent{
		InnerCode: code,
		UseStrict: exports == types.ExportsEsm,
	}, nil
}
