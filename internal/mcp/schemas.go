package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// buildProjectTool returns the tool definition for build_project
func buildProjectTool() mcp.Tool {
	return mcp.Tool{
		Name:        "build_project",
		Description: "Build the page entries of a JavaScript project into chunks and record the manifest",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the project root",
				},
				"entries": map[string]interface{}{
					"type":        "array",
					"description": "Entry glob patterns relative to the project root (overrides chunkgraph.yaml)",
					"items": map[string]interface{}{
						"type": "string",
					},
				},
				"precompress": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, also write .gz files next to every chunk",
					"default":     false,
				},
			},
			Required: []string{"path"},
		},
	}
}

// moduleChunksTool returns the tool definition for module_chunks
func moduleChunksTool() mcp.Tool {
	return mcp.Tool{
		Name:        "module_chunks",
		Description: "Generate the with chunks module of one module without writing files",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the project root",
				},
				"module": map[string]interface{}{
					"type":        "string",
					"description": "Module path relative to the project root (e.g., 'pages/index.js')",
				},
				"server_root": map[string]interface{}{
					"type":        "string",
					"description": "Served directory relative to the output directory (overrides chunkgraph.yaml)",
				},
			},
			Required: []string{"path", "module"},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Query the latest build manifest of a project",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the project root",
				},
				"include_entries": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, list every entry with its client chunks",
					"default":     false,
				},
			},
			Required: []string{"path"},
		},
	}
}
