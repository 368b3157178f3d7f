package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/chunkgraph/internal/ecmascript"
	"github.com/dshills/chunkgraph/internal/emitter"
	"github.com/dshills/chunkgraph/internal/storage"
	"github.com/dshills/chunkgraph/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams    = -32602 // Invalid method parameters
	ErrorCodeInternalError    = -32603 // Internal JSON-RPC error
	ErrorCodeProjectNotFound  = -32001 // Specified path does not contain JavaScript sources
	ErrorCodeBuildInProgress  = -32002 // Another build of the project is running
	ErrorCodeNotBuilt         = -32003 // Project has no build manifest
	ErrorCodeModuleNotFound   = -32004 // Module does not exist or cannot be resolved
	ErrorCodeNoEntriesMatched = -32005 // Entry patterns matched no file
)

// handleBuildProject handles the build_project tool invocation
func (s *Server) handleBuildProject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, err := requirePath(args)
	if err != nil {
		return nil, err
	}

	cfg, err := s.projectConfig(ctx, path)
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid project configuration", map[string]interface{}{
			"error": err.Error(),
		})
	}
	if entries := getStringSlice(args, "entries"); len(entries) > 0 {
		cfg.Entries = entries
	}
	cfg.Precompress = getBoolDefault(args, "precompress", cfg.Precompress)

	stats, err := s.emitterFor(path).Build(ctx, cfg.Emitter())
	switch {
	case errors.Is(err, emitter.ErrBuildInProgress):
		return nil, newMCPError(ErrorCodeBuildInProgress, "a build of this project is already running", map[string]interface{}{
			"path": path,
		})
	case errors.Is(err, emitter.ErrNoEntries):
		return nil, newMCPError(ErrorCodeNoEntriesMatched, "no entries matched", map[string]interface{}{
			"entries": cfg.Entries,
		})
	case err != nil:
		return nil, newMCPError(ErrorCodeInternalError, "build failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"built":          true,
		"build_id":       stats.BuildID,
		"entries_built":  stats.EntriesBuilt,
		"entries_failed": stats.EntriesFailed,
		"chunks_written": stats.ChunksWritten,
		"chunks_skipped": stats.ChunksSkipped,
		"chunks_pruned":  stats.ChunksPruned,
		"bytes_written":  stats.BytesWritten,
		"duration_ms":    stats.Duration.Milliseconds(),
	}

	if len(stats.ErrorMessages) > 0 {
		// Include first few errors
		errorCount := len(stats.ErrorMessages)
		if errorCount > 5 {
			response["errors"] = stats.ErrorMessages[:5]
			response["error_count"] = errorCount
		} else {
			response["errors"] = stats.ErrorMessages
		}
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleModuleChunks handles the module_chunks tool invocation
func (s *Server) handleModuleChunks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, err := requirePath(args)
	if err != nil {
		return nil, err
	}

	module, ok := args["module"].(string)
	if !ok || module == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "module parameter is required", map[string]interface{}{
			"param":  "module",
			"reason": "missing or empty",
		})
	}
	if !ecmascript.Extensions[filepath.Ext(module)] {
		return nil, newMCPError(ErrorCodeInvalidParams, "module must be a JavaScript or TypeScript file", map[string]interface{}{
			"param": "module",
			"value": module,
		})
	}

	cfg, err := s.projectConfig(ctx, path)
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid project configuration", map[string]interface{}{
			"error": err.Error(),
		})
	}
	cfg.ServerRoot = getStringDefault(args, "server_root", cfg.ServerRoot)

	out, err := s.emitterFor(path).RenderModule(ctx, cfg.Emitter(), module)
	if errors.Is(err, types.ErrNotFound) || errors.Is(err, types.ErrUnresolved) {
		return nil, newMCPError(ErrorCodeModuleNotFound, "module cannot be loaded", map[string]interface{}{
			"module": module,
			"error":  err.Error(),
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to generate module", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"module":        out.Module,
		"module_id":     out.ModuleID,
		"client_chunks": out.ClientChunks,
		"code":          out.Code,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, err := requirePath(args)
	if err != nil {
		return nil, err
	}

	project, err := s.storage.GetProject(ctx, path)
	if errors.Is(err, storage.ErrNotFound) {
		response := map[string]interface{}{
			"built":   false,
			"path":    path,
			"message": "Project not built. Use build_project tool to build this project.",
		}
		return mcp.NewToolResultText(formatJSON(response)), nil
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get project status", map[string]interface{}{
			"error": err.Error(),
		})
	}

	status, err := s.storage.GetStatus(ctx, project.ID)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get status", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"built": status.LatestBuild != nil,
		"project": map[string]interface{}{
			"path":          project.RootPath,
			"output_dir":    project.OutputDir,
			"last_built_at": project.LastBuiltAt.Format("2006-01-02T15:04:05Z07:00"),
		},
		"statistics": map[string]interface{}{
			"entries_count":    status.EntriesCount,
			"chunks_count":     status.ChunksCount,
			"total_bytes":      status.TotalBytes,
			"manifest_size_mb": fmt.Sprintf("%.2f", status.DatabaseSizeMB),
		},
		"health": map[string]interface{}{
			"database_accessible": status.Health.DatabaseAccessible,
			"last_build_failed":   status.Health.LastBuildFailed,
			"building":            s.emitterFor(path).Building(),
		},
	}
	if b := status.LatestBuild; b != nil {
		response["latest_build"] = map[string]interface{}{
			"id":             b.ID,
			"entries":        b.EntriesCount,
			"chunks_written": b.ChunksWritten,
			"chunks_skipped": b.ChunksSkipped,
			"errors":         b.ErrorCount,
			"duration_ms":    b.Duration.Milliseconds(),
		}
	}

	if getBoolDefault(args, "include_entries", false) {
		entries, err := s.storage.ListEntries(ctx, project.ID)
		if err != nil {
			return nil, newMCPError(ErrorCodeInternalError, "failed to list entries", map[string]interface{}{
				"error": err.Error(),
			})
		}
		list := make([]map[string]interface{}, 0, len(entries))
		for _, e := range entries {
			list = append(list, map[string]interface{}{
				"entry":         e.EntryPath,
				"module_id":     e.ModuleID,
				"chunk":         e.ChunkPath,
				"client_chunks": e.ClientChunks,
			})
		}
		response["entries"] = list
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// requirePath extracts and validates the path parameter
func requirePath(args map[string]interface{}) (string, error) {
	path, ok := args["path"].(string)
	if !ok || path == "" {
		return "", newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}
	if err := validatePath(path); err != nil {
		code := ErrorCodeInvalidParams
		if errors.Is(err, ErrNoSources) {
			code = ErrorCodeProjectNotFound
		}
		return "", newMCPError(code, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}
	return filepath.Clean(path), nil
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// validatePath checks if a path exists and is accessible
func validatePath(path string) error {
	if path == "" {
		return ErrPathRequired
	}

	if !filepath.IsAbs(path) {
		return ErrPathNotAbsolute
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return ErrPathNotFound
	}
	if err != nil {
		return ErrPathNotReadable
	}

	if !info.IsDir() {
		return ErrNotDirectory
	}

	f, err := os.Open(path)
	if err != nil {
		return ErrPathNotReadable
	}
	_ = f.Close()

	// Look for at least one module outside node_modules and hidden directories
	errFound := errors.New("found")
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if p != path && (d.Name() == "node_modules" || strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if ecmascript.Extensions[filepath.Ext(p)] {
			return errFound
		}
		return nil
	})
	if !errors.Is(err, errFound) {
		return ErrNoSources
	}

	return nil
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}

// getStringSlice extracts a string array parameter, skipping non-strings
func getStringSlice(args map[string]interface{}, key string) []string {
	raw, ok := args[key].([]interface{})
	if !ok {
		if s, ok := args[key].([]string); ok {
			return s
		}
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Validation helpers

var (
	ErrPathRequired    = errors.New("path is required")
	ErrPathNotAbsolute = errors.New("path must be absolute")
	ErrPathNotFound    = errors.New("path does not exist")
	ErrPathNotReadable = errors.New("path is not readable")
	ErrNotDirectory    = errors.New("path is not a directory")
	ErrNoSources       = errors.New("directory does not contain JavaScript or TypeScript files")
)
