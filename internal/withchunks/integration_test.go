package withchunks

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/chunkgraph/internal/chunking"
	"github.com/dshills/chunkgraph/internal/ecmascript"
	"github.com/dshills/chunkgraph/internal/fs"
	"github.com/dshills/chunkgraph/internal/tasks"
	"github.com/dshills/chunkgraph/pkg/types"
)

func TestWithChunks_ProjectPipeline(t *testing.T) {
	engine := tasks.New(tasks.Config{CacheSize: 1024})
	ctx := tasks.WithEngine(context.Background(), engine)

	m := fs.NewMemoryFileSystem("project")
	m.Write("pages/index.js", `import "./index.css";
import { title } from "../lib/title";
export default () => import("./details").then(() => title);
`)
	m.Write("pages/index.css", "h1 { color: red }")
	m.Write("pages/details.js", "export const details = 1;")
	m.Write("lib/title.js", `export const title = "Home";`)

	cc, err := chunking.NewDevContext(m.Root(), types.NewPath("output", ""), chunking.Options{})
	require.NoError(t, err)
	page := ecmascript.NewModuleContext(m).Module(types.NewPath("project", "pages/index.js"))
	a := New(page, cc.OutputRoot(), cc)

	item, err := a.AsChunkItem(ctx, cc)
	require.NoError(t, err)
	content, err := item.Content(ctx)
	require.NoError(t, err)

	pattern := regexp.MustCompile(`^__turbopack_esm__\(\{
  default: \(\) => "pages/index\.js",
  chunks: \(\) => chunks
\}\);
const chunks = \["static/chunks/pages_index\.js_ecmascript_chunk\.js","static/media/index\.[0-9a-f]{8}\.css"\];
$`)
	assert.Regexp(t, pattern, content.InnerCode)

	// The async group of ./details is not part of the page's chunk group
	assert.NotContains(t, content.InnerCode, "details")

	// The virtual module itself renders into a chunk like any module
	chunk, err := a.AsChunk(ctx, cc, nil, nil)
	require.NoError(t, err)
	rendered, err := chunk.Content(ctx)
	require.NoError(t, err)
	assert.Contains(t, rendered.String(), `"pages/index.js (chunks)": `)
	assert.Contains(t, rendered.String(), content.InnerCode)
}

func TestWithChunks_InvalidatedBySourceChange(t *testing.T) {
	engine := tasks.New(tasks.Config{CacheSize: 1024})
	ctx := tasks.WithEngine(context.Background(), engine)

	m := fs.NewMemoryFileSystem("project")
	page := m.Write("pages/index.js", `export default 1;`)
	cc, err := chunking.NewDevContext(m.Root(), types.NewPath("output", ""), chunking.Options{})
	require.NoError(t, err)
	a := New(ecmascript.NewModuleContext(m).Module(page), cc.OutputRoot(), cc)

	first := content(t, ctx, a)
	assert.Contains(t, first, `const chunks = ["static/chunks/pages_index.js_ecmascript_chunk.js"];`)

	m.Write("pages/style.css", "p {}")
	m.Write("pages/index.js", `import "./style.css"; export default 1;`)
	assert.Equal(t, first, content(t, ctx, a), "cached until the file is invalidated")

	evicted := engine.InvalidateWhere(func(op, subject string) bool {
		return op == fs.ReadOp && subject == page.String()
	})
	assert.Positive(t, evicted)

	second := content(t, ctx, a)
	assert.Contains(t, second, `"static/media/style.`)
}

func TestWithChunks_SameNamedContextsDoNotShareResults(t *testing.T) {
	m := fs.NewMemoryFileSystem("project")
	m.Write("pages/index.js", `import "./index.css";
export default 1;
`)
	m.Write("pages/index.css", "h1 { color: red }")
	page := ecmascript.NewModuleContext(m).Module(types.NewPath("project", "pages/index.js"))
	output := types.NewPath("output", "")

	newContext := func(opts chunking.Options) *chunking.DevContext {
		cc, err := chunking.NewDevContext(m.Root(), output, opts)
		require.NoError(t, err)
		return cc
	}
	contexts := map[string]*chunking.DevContext{
		"path strategy": newContext(chunking.Options{}),
		"hash strategy": newContext(chunking.Options{ModuleIDStrategy: chunking.StrategyHash}),
		"chunk root":    newContext(chunking.Options{ChunkRoot: "assets/js"}),
		"asset root":    newContext(chunking.Options{AssetRoot: "assets/media"}),
	}

	render := func(t *testing.T, ctx context.Context, cc *chunking.DevContext) (string, []string) {
		t.Helper()
		a := New(page, output, cc)
		item, err := a.AsChunkItem(ctx, cc)
		require.NoError(t, err)
		content, err := item.Content(ctx)
		require.NoError(t, err)
		clientChunks, err := a.ClientChunks(ctx)
		require.NoError(t, err)
		return content.InnerCode, clientChunks
	}

	engine := tasks.New(tasks.Config{CacheSize: 1024})
	shared := tasks.WithEngine(context.Background(), engine)
	seen := make(map[string]string)
	for _, name := range []string{"path strategy", "hash strategy", "chunk root", "asset root"} {
		t.Run(name, func(t *testing.T) {
			cc := contexts[name]
			assert.Equal(t, "client", cc.Name())

			expectedCode, expectedChunks := render(t, context.Background(), cc)
			code, clientChunks := render(t, shared, cc)
			assert.Equal(t, expectedCode, code)
			assert.Equal(t, expectedChunks, clientChunks)

			for other, otherCode := range seen {
				assert.NotEqual(t, otherCode, code, "same output as %s", other)
			}
			seen[name] = code
		})
	}

	assert.Contains(t, seen["hash strategy"], `default: () => "`+mustID(t, contexts["hash strategy"], page)+`"`)
	assert.Contains(t, seen["chunk root"], `"assets/js/pages_index.js_ecmascript_chunk.js"`)
	assert.Regexp(t, `"assets/media/index\.[0-9a-f]{8}\.css"`, seen["asset root"])
}

func mustID(t *testing.T, cc *chunking.DevContext, page *ecmascript.ModuleAsset) string {
	t.Helper()
	ident, err := page.Ident(context.Background())
	require.NoError(t, err)
	id, err := cc.ChunkItemID(context.Background(), ident)
	require.NoError(t, err)
	return id.String()
}
