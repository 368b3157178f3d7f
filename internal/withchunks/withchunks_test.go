package withchunks

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/chunkgraph/internal/chunker"
	"github.com/dshills/chunkgraph/internal/core"
	"github.com/dshills/chunkgraph/internal/core/coretest"
	"github.com/dshills/chunkgraph/internal/ecmascript"
	"github.com/dshills/chunkgraph/internal/tasks"
	"github.com/dshills/chunkgraph/pkg/types"
)

// fakeModule is a placeable module whose chunk group is fixed by its entry
// chunk
type fakeModule struct {
	ident    types.AssetIdent
	identErr error
	entry    core.Chunk
}

func (m *fakeModule) Ident(ctx context.Context) (types.AssetIdent, error) {
	if m.identErr != nil {
		return types.AssetIdent{}, m.identErr
	}
	return m.ident, nil
}

func (m *fakeModule) Content(ctx context.Context) (types.AssetContent, error) {
	return types.AssetContent{Bytes: []byte("export default 1")}, nil
}

func (m *fakeModule) References(ctx context.Context) ([]core.AssetReference, error) {
	return nil, nil
}

func (m *fakeModule) AsChunk(ctx context.Context, cc core.ChunkingContext, available *core.AvailableAssets, root core.Asset) (core.Chunk, error) {
	return m.entry, nil
}

func (m *fakeModule) AsChunkItem(ctx context.Context, cc core.ChunkingContext) (ecmascript.ChunkItem, error) {
	return &fakeItem{module: m, chunkingContext: cc}, nil
}

func (m *fakeModule) GetExports(ctx context.Context) (types.EcmascriptExports, error) {
	return types.ExportsEsm, nil
}

type fakeItem struct {
	module          *fakeModule
	chunkingContext core.ChunkingContext
}

func (i *fakeItem) ChunkingContext() core.ChunkingContext { return i.chunkingContext }

func (i *fakeItem) AssetIdent(ctx context.Context) (types.AssetIdent, error) {
	return i.module.Ident(ctx)
}

func (i *fakeItem) References(ctx context.Context) ([]core.AssetReference, error) {
	return nil, nil
}

func (i *fakeItem) Content(ctx context.Context) (*types.ChunkItemContent, error) {
	return &types.ChunkItemContent{InnerCode: "export default 1"}, nil
}

var pageIdent = types.NewIdent(types.NewPath("project", "pages/index.js"))

func out(p string) types.FileSystemPath {
	return types.NewPath("output", p)
}

// newFixture builds a page whose chunk group is a.js followed by the given
// extra chunks, with module id "1234"
func newFixture(extra ...*coretest.Chunk) (*fakeModule, *coretest.ChunkingContext, []*coretest.Chunk) {
	refs := make([]core.AssetReference, 0, len(extra))
	for _, c := range extra {
		refs = append(refs, core.NewParallelChunkReference(c))
	}
	entry := coretest.NewChunk(out("build/static/chunks/a.js"), refs...)
	module := &fakeModule{ident: pageIdent, entry: entry}
	cc := &coretest.ChunkingContext{
		Output: out("build"),
		IDs:    map[string]types.ModuleID{pageIdent.String(): types.StringModuleID("1234")},
	}
	return module, cc, append([]*coretest.Chunk{entry}, extra...)
}

func content(t *testing.T, ctx context.Context, a *Asset) string {
	t.Helper()
	item, err := a.AsChunkItem(ctx, a.ChunkingContext())
	require.NoError(t, err)
	c, err := item.Content(ctx)
	require.NoError(t, err)
	return c.InnerCode
}

func TestModifier(t *testing.T) {
	assert.Equal(t, "chunks", Modifier())
}

func TestContent_ListsChunksRelativeToServerRoot(t *testing.T) {
	module, cc, _ := newFixture(coretest.NewChunk(out("build/static/chunks/b.js")))
	a := New(module, out("build"), cc)

	expected := `__turbopack_esm__({
  default: () => "1234",
  chunks: () => chunks
});
const chunks = ["static/chunks/a.js","static/chunks/b.js"];
`
	assert.Equal(t, expected, content(t, context.Background(), a))
}

func TestContent_OtherFieldsAreEmpty(t *testing.T) {
	module, cc, _ := newFixture()
	a := New(module, out("build"), cc)

	item, err := a.AsChunkItem(context.Background(), cc)
	require.NoError(t, err)
	c, err := item.Content(context.Background())
	require.NoError(t, err)

	assert.Empty(t, c.SourceMap)
	assert.False(t, c.UseStrict)
	assert.False(t, c.External)
}

// Chunks written outside the server root are dropped without an error. A
// misrouted chunking context produces exactly this output, so the boundary
// is pinned here.
func TestContent_OutOfRootChunksAreSkipped(t *testing.T) {
	module, cc, chunks := newFixture(
		coretest.NewChunk(out("other/x.js")),
		coretest.NewChunk(types.NewPath("cdn", "build/static/chunks/y.js")),
		coretest.NewChunk(out("buildings/z.js")),
		coretest.NewChunk(out("build/static/chunks/b.js")),
	)
	a := New(module, out("build"), cc)

	text := content(t, context.Background(), a)
	assert.Contains(t, text, `const chunks = ["static/chunks/a.js","static/chunks/b.js"];`)
	assert.Len(t, chunks, 5, "every chunk was part of the group")
}

func TestContent_EmptyListIsAnArray(t *testing.T) {
	module, cc, _ := newFixture()
	a := New(module, out("elsewhere"), cc)

	assert.Contains(t, content(t, context.Background(), a), "const chunks = [];\n")
}

func TestContent_ServerRootAtFileSystemRoot(t *testing.T) {
	module, cc, _ := newFixture()
	a := New(module, out(""), cc)

	assert.Contains(t, content(t, context.Background(), a), `const chunks = ["build/static/chunks/a.js"];`)
}

func TestContent_NumericModuleID(t *testing.T) {
	module, cc, _ := newFixture()
	cc.IDs[pageIdent.String()] = types.NumberModuleID(42)
	a := New(module, out("build"), cc)

	assert.Contains(t, content(t, context.Background(), a), "  default: () => 42,\n")
}

func TestContent_ModuleIDIsEscaped(t *testing.T) {
	module, cc, _ := newFixture()
	cc.IDs[pageIdent.String()] = types.StringModuleID(`pages/"quoted"<b>.js`)
	a := New(module, out("build"), cc)

	assert.Contains(t, content(t, context.Background(), a), `default: () => "pages/\"quoted\"<b>.js",`)
}

func TestContent_ChunkPathErrorPropagates(t *testing.T) {
	boom := errors.New("chunk path failed")
	bad := coretest.NewChunk(out("build/static/chunks/b.js"))
	bad.PathErr = boom
	module, cc, _ := newFixture(bad, coretest.NewChunk(out("build/static/chunks/c.js")))
	a := New(module, out("build"), cc)

	item, err := a.AsChunkItem(context.Background(), cc)
	require.NoError(t, err)
	c, err := item.Content(context.Background())

	assert.ErrorIs(t, err, boom)
	assert.Nil(t, c)
}

func TestContent_ChunkGroupErrorPropagates(t *testing.T) {
	module, cc, _ := newFixture()
	module.entry = nil
	notChunkable := &notChunkableModule{fakeModule: module}
	a := New(notChunkable, out("build"), cc)

	item, err := a.AsChunkItem(context.Background(), cc)
	require.NoError(t, err)
	_, err = item.Content(context.Background())
	assert.ErrorIs(t, err, types.ErrNotChunkable)
}

// notChunkableModule fails to package itself as a chunk
type notChunkableModule struct {
	*fakeModule
}

func (m *notChunkableModule) AsChunk(ctx context.Context, cc core.ChunkingContext, available *core.AvailableAssets, root core.Asset) (core.Chunk, error) {
	return nil, types.ErrNotChunkable
}

func (m *notChunkableModule) AsChunkItem(ctx context.Context, cc core.ChunkingContext) (ecmascript.ChunkItem, error) {
	return &fakeItem{module: m.fakeModule, chunkingContext: cc}, nil
}

func TestContent_ModuleErrorsPropagate(t *testing.T) {
	identErr := errors.New("ident failed")
	idErr := errors.New("module id failed")

	t.Run("ident", func(t *testing.T) {
		module, cc, _ := newFixture()
		module.identErr = identErr
		a := New(module, out("build"), cc)

		_, err := a.Ident(context.Background())
		assert.ErrorIs(t, err, identErr)

		item, err := a.AsChunkItem(context.Background(), cc)
		require.NoError(t, err)
		_, err = item.Content(context.Background())
		assert.ErrorIs(t, err, identErr)
	})

	t.Run("module id", func(t *testing.T) {
		module, cc, _ := newFixture()
		cc.IDErr = idErr
		a := New(module, out("build"), cc)

		item, err := a.AsChunkItem(context.Background(), cc)
		require.NoError(t, err)
		_, err = item.Content(context.Background())
		assert.ErrorIs(t, err, idErr)
	})
}

func TestContent_Deterministic(t *testing.T) {
	module, cc, _ := newFixture(coretest.NewChunk(out("build/static/chunks/b.js")))

	first := content(t, context.Background(), New(module, out("build"), cc))
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, content(t, context.Background(), New(module, out("build"), cc)))
	}
}

func TestContent_MemoizedAndCoalesced(t *testing.T) {
	engine := tasks.New(tasks.Config{CacheSize: 64})
	ctx := tasks.WithEngine(context.Background(), engine)
	module, cc, chunks := newFixture(coretest.NewChunk(out("build/static/chunks/b.js")))

	const callers = 8
	results := make([]string, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			item, err := New(module, out("build"), cc).AsChunkItem(ctx, cc)
			if !assert.NoError(t, err) {
				return
			}
			c, err := item.Content(ctx)
			if assert.NoError(t, err) {
				results[i] = c.InnerCode
			}
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, results[0], r)
	}

	// Later calls are served from the cache
	before := chunks[0].PathCalls.Load()
	assert.Equal(t, results[0], content(t, ctx, New(module, out("build"), cc)))
	assert.Equal(t, before, chunks[0].PathCalls.Load())
	assert.Positive(t, engine.Stats().Hits)
}

func TestContent_ReturnsCopies(t *testing.T) {
	engine := tasks.New(tasks.Config{CacheSize: 16})
	ctx := tasks.WithEngine(context.Background(), engine)
	module, cc, _ := newFixture()
	a := New(module, out("build"), cc)

	item, err := a.AsChunkItem(ctx, cc)
	require.NoError(t, err)
	c, err := item.Content(ctx)
	require.NoError(t, err)
	c.InnerCode = "mutated"

	again, err := item.Content(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, "mutated", again.InnerCode)
}

func TestIdent(t *testing.T) {
	module, cc, _ := newFixture()
	a := New(module, out("build"), cc)

	ident, err := a.Ident(context.Background())
	require.NoError(t, err)

	assert.False(t, ident.Equal(pageIdent))
	assert.Equal(t, pageIdent.WithModifier("chunks"), ident)
	assert.Empty(t, pageIdent.Modifiers, "wrapped ident is untouched")

	again, err := New(module, out("build"), cc).Ident(context.Background())
	require.NoError(t, err)
	assert.True(t, ident.Equal(again))
}

func TestReferences(t *testing.T) {
	ctx := context.Background()
	module, cc, _ := newFixture()
	a := New(module, out("build"), cc)

	refs, err := a.References(ctx)
	require.NoError(t, err)
	require.Len(t, refs, 1)

	ref, ok := refs[0].(*core.ChunkGroupReference)
	require.True(t, ok)
	spec := ref.Group.Spec()
	assert.Same(t, module, spec.Root)
	assert.Same(t, module, spec.AvailabilityRoot)
	assert.Nil(t, spec.Available)
	assert.Same(t, cc, spec.ChunkingContext)
	assert.Equal(t, chunker.FromAsset(module, cc, nil, module), ref.Group)

	item, err := a.AsChunkItem(ctx, &coretest.ChunkingContext{ContextName: "other"})
	require.NoError(t, err)
	itemRefs, err := item.References(ctx)
	require.NoError(t, err)
	assert.Equal(t, refs, itemRefs)

	itemIdent, err := item.AssetIdent(ctx)
	require.NoError(t, err)
	assetIdent, err := a.Ident(ctx)
	require.NoError(t, err)
	assert.Equal(t, assetIdent, itemIdent)
}

func TestAsset_ContentPanics(t *testing.T) {
	module, cc, _ := newFixture()
	a := New(module, out("build"), cc)

	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(error)
		require.True(t, ok)
		assert.ErrorIs(t, err, types.ErrContentUnsupported)
	}()
	_, _ = a.Content(context.Background())
	t.Fatal("Content returned")
}

func TestGetExports(t *testing.T) {
	module, cc, _ := newFixture()
	exports, err := New(module, out("build"), cc).GetExports(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.ExportsValue, exports)
}

func TestAsChunk(t *testing.T) {
	ctx := context.Background()
	module, cc, _ := newFixture()
	a := New(module, out("build"), cc)

	chunk, err := a.AsChunk(ctx, cc, nil, nil)
	require.NoError(t, err)
	ecma, ok := chunk.(*ecmascript.Chunk)
	require.True(t, ok)
	assert.Same(t, a, ecma.Entry())

	item, err := a.AsChunkItem(ctx, cc)
	require.NoError(t, err)
	assert.Same(t, cc, item.ChunkingContext())
	assert.Same(t, a, item.(*ChunkItem).Asset())
}

func TestAccessors(t *testing.T) {
	module, cc, _ := newFixture()
	a := New(module, out("build"), cc)

	assert.Same(t, module, a.Module())
	assert.Equal(t, out("build"), a.ServerRoot())
	assert.Same(t, cc, a.ChunkingContext())
}

func TestContent_KeyedByContextSettings(t *testing.T) {
	engine := tasks.New(tasks.Config{CacheSize: 64})
	ctx := tasks.WithEngine(context.Background(), engine)
	module, cc, _ := newFixture()
	renamed := &coretest.ChunkingContext{
		Output: cc.Output,
		IDs:    map[string]types.ModuleID{pageIdent.String(): types.NumberModuleID(7)},
	}
	require.Equal(t, cc.Name(), renamed.Name())

	assert.Contains(t, content(t, ctx, New(module, out("build"), cc)), `default: () => "1234",`)
	assert.Contains(t, content(t, ctx, New(module, out("build"), renamed)), `default: () => 7,`)
	assert.Contains(t, content(t, context.Background(), New(module, out("build"), renamed)), `default: () => 7,`)
}

func TestContent_ItemContextDoesNotChangeText(t *testing.T) {
	engine := tasks.New(tasks.Config{CacheSize: 64})
	ctx := tasks.WithEngine(context.Background(), engine)
	module, cc, _ := newFixture()
	a := New(module, out("build"), cc)

	first, err := a.AsChunkItem(ctx, cc)
	require.NoError(t, err)
	second, err := a.AsChunkItem(ctx, &coretest.ChunkingContext{ContextName: "server", Output: out("server")})
	require.NoError(t, err)

	c1, err := first.Content(ctx)
	require.NoError(t, err)
	cached := engine.Stats().Cached
	c2, err := second.Content(ctx)
	require.NoError(t, err)

	assert.Equal(t, c1.InnerCode, c2.InnerCode)
	assert.Equal(t, cached, engine.Stats().Cached, "one cache entry for both items")
}

func TestClientChunks_Memoized(t *testing.T) {
	engine := tasks.New(tasks.Config{CacheSize: 64})
	ctx := tasks.WithEngine(context.Background(), engine)
	module, cc, chunks := newFixture(coretest.NewChunk(out("build/static/chunks/b.js")))
	a := New(module, out("build"), cc)

	list, err := a.ClientChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"static/chunks/a.js", "static/chunks/b.js"}, list)
	calls := chunks[1].PathCalls.Load()

	list[0] = "mutated"
	again, err := a.ClientChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"static/chunks/a.js", "static/chunks/b.js"}, again)
	assert.Equal(t, calls, chunks[1].PathCalls.Load())

	_ = content(t, ctx, a)
	assert.Equal(t, calls, chunks[1].PathCalls.Load(), "content reuses the cached list")
}
