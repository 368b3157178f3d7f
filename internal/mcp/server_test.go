package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupServer(t *testing.T) *Server {
	t.Helper()
	s, err := NewServer(filepath.Join(t.TempDir(), "db", "manifest.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func setupProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"pages/index.js": `import "./index.css";
export default () => import("./lazy");
`,
		"pages/index.css": "body {}",
		"pages/lazy.js":   "export const lazy = true;",
	}
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	}
	return root
}

func callTool(name string, args map[string]interface{}) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func decodeResult(t *testing.T, result *mcp.CallToolResult) map[string]interface{} {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	var text string
	switch c := result.Content[0].(type) {
	case mcp.TextContent:
		text = c.Text
	case *mcp.TextContent:
		text = c.Text
	default:
		t.Fatalf("unexpected content %T", c)
	}
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(text), &out))
	return out
}

func requireMCPError(t *testing.T, err error, code int) {
	t.Helper()
	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, code, mcpErr.Code)
}

func TestServer_Initialization(t *testing.T) {
	s := setupServer(t)
	assert.NotNil(t, s.mcp, "MCP server should be initialized")
	assert.NotNil(t, s.storage, "Storage should be initialized")
	assert.Same(t, s.emitterFor("/a"), s.emitterFor("/a"))
	assert.NotSame(t, s.emitterFor("/a"), s.emitterFor("/b"))
}

func TestBuildProject(t *testing.T) {
	s := setupServer(t)
	root := setupProject(t)
	ctx := context.Background()

	result, err := s.handleBuildProject(ctx, callTool("build_project", map[string]interface{}{
		"path":        root,
		"precompress": true,
	}))
	require.NoError(t, err)
	out := decodeResult(t, result)
	assert.Equal(t, true, out["built"])
	assert.Equal(t, float64(2), out["entries_built"])
	assert.Positive(t, out["chunks_written"])
	assert.NotContains(t, out, "errors")

	status, err := s.handleGetStatus(ctx, callTool("get_status", map[string]interface{}{
		"path":            root,
		"include_entries": true,
	}))
	require.NoError(t, err)
	st := decodeResult(t, status)
	assert.Equal(t, true, st["built"])
	entries, ok := st["entries"].([]interface{})
	require.True(t, ok)
	assert.Len(t, entries, 2)
	health := st["health"].(map[string]interface{})
	assert.Equal(t, false, health["last_build_failed"])
}

func TestBuildProject_NoEntries(t *testing.T) {
	s := setupServer(t)
	root := setupProject(t)

	_, err := s.handleBuildProject(context.Background(), callTool("build_project", map[string]interface{}{
		"path":    root,
		"entries": []interface{}{"app/**/*.js"},
	}))
	requireMCPError(t, err, ErrorCodeNoEntriesMatched)
}

func TestModuleChunks(t *testing.T) {
	s := setupServer(t)
	root := setupProject(t)
	ctx := context.Background()

	result, err := s.handleModuleChunks(ctx, callTool("module_chunks", map[string]interface{}{
		"path":   root,
		"module": "pages/index.js",
	}))
	require.NoError(t, err)
	out := decodeResult(t, result)
	assert.Equal(t, "pages/index.js", out["module_id"])
	chunks, ok := out["client_chunks"].([]interface{})
	require.True(t, ok)
	assert.Len(t, chunks, 2)
	assert.Contains(t, out["code"], "__turbopack_esm__({\n  default: () => \"pages/index.js\",")

	_, err = s.handleModuleChunks(ctx, callTool("module_chunks", map[string]interface{}{
		"path":   root,
		"module": "pages/missing.js",
	}))
	requireMCPError(t, err, ErrorCodeModuleNotFound)

	_, err = s.handleModuleChunks(ctx, callTool("module_chunks", map[string]interface{}{
		"path":   root,
		"module": "pages/index.css",
	}))
	requireMCPError(t, err, ErrorCodeInvalidParams)

	_, err = s.handleModuleChunks(ctx, callTool("module_chunks", map[string]interface{}{"path": root}))
	requireMCPError(t, err, ErrorCodeInvalidParams)
}

func TestGetStatus_NotBuilt(t *testing.T) {
	s := setupServer(t)
	root := setupProject(t)

	result, err := s.handleGetStatus(context.Background(), callTool("get_status", map[string]interface{}{"path": root}))
	require.NoError(t, err)
	out := decodeResult(t, result)
	assert.Equal(t, false, out["built"])
}

func TestHandlers_InvalidArguments(t *testing.T) {
	s := setupServer(t)
	ctx := context.Background()

	var req mcp.CallToolRequest
	req.Params.Arguments = "not a map"
	_, err := s.handleGetStatus(ctx, req)
	requireMCPError(t, err, ErrorCodeInvalidParams)

	_, err = s.handleBuildProject(ctx, callTool("build_project", map[string]interface{}{"path": "relative"}))
	requireMCPError(t, err, ErrorCodeInvalidParams)

	_, err = s.handleBuildProject(ctx, callTool("build_project", map[string]interface{}{"path": t.TempDir()}))
	requireMCPError(t, err, ErrorCodeProjectNotFound)
}

func TestValidatePath(t *testing.T) {
	root := setupProject(t)

	assert.NoError(t, validatePath(root))
	assert.ErrorIs(t, validatePath(""), ErrPathRequired)
	assert.ErrorIs(t, validatePath("pages"), ErrPathNotAbsolute)
	assert.ErrorIs(t, validatePath(filepath.Join(root, "nope")), ErrPathNotFound)
	assert.ErrorIs(t, validatePath(filepath.Join(root, "pages", "index.js")), ErrNotDirectory)

	onlyDeps := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(onlyDeps, "node_modules", "x"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(onlyDeps, "node_modules", "x", "index.js"), []byte("1"), 0644))
	assert.ErrorIs(t, validatePath(onlyDeps), ErrNoSources)
}

func TestGetStringSlice(t *testing.T) {
	args := map[string]interface{}{
		"a": []interface{}{"x", 1, "", "y"},
		"b": []string{"z"},
		"c": "nope",
	}
	assert.Equal(t, []string{"x", "y"}, getStringSlice(args, "a"))
	assert.Equal(t, []string{"z"}, getStringSlice(args, "b"))
	assert.Nil(t, getStringSlice(args, "c"))
}
