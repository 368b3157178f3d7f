// Package mcp implements the Model Context Protocol (MCP) server for chunkgraph.
//
// The MCP server exposes three tools to AI coding assistants:
//   - build_project: Build the page entries of a project into chunks
//   - module_chunks: Generate the with chunks module of a single module
//   - get_status: Check the build manifest and its health
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// The server is started via the serve command:
//
//	chunkgraph serve
//
// It then listens on stdin for MCP protocol messages and writes responses to stdout.
//
// # Tool: build_project
//
// Build every entry matched by the project's entry patterns:
//
//	Request:
//	{
//	  "name": "build_project",
//	  "arguments": {
//	    "path": "/path/to/project",
//	    "entries": ["pages/**/*.js"],
//	    "precompress": false
//	  }
//	}
//
//	Response:
//	{
//	  "built": true,
//	  "build_id": 4,
//	  "entries_built": 12,
//	  "entries_failed": 0,
//	  "chunks_written": 3,
//	  "chunks_skipped": 21,
//	  "chunks_pruned": 1,
//	  "bytes_written": 18211,
//	  "duration_ms": 84
//	}
//
// # Tool: module_chunks
//
// Generate the with chunks module of one module without touching the
// output directory:
//
//	Request:
//	{
//	  "name": "module_chunks",
//	  "arguments": {
//	    "path": "/path/to/project",
//	    "module": "pages/index.js",
//	    "server_root": "static"
//	  }
//	}
//
//	Response:
//	{
//	  "module": "pages/index.js",
//	  "module_id": "pages/index.js",
//	  "client_chunks": ["chunks/pages_index.js_ecmascript_chunk.js"],
//	  "code": "__turbopack_esm__({\n  default: () => \"pages/index.js\", ..."
//	}
//
// # Tool: get_status
//
//	Request:
//	{
//	  "name": "get_status",
//	  "arguments": {
//	    "path": "/path/to/project",
//	    "include_entries": true
//	  }
//	}
//
// The response reports the latest build, manifest statistics and health.
// Projects that were never built return {"built": false}.
//
// # Error Handling
//
// Handlers return *MCPError values:
//   - -32602: Invalid params (missing/invalid arguments)
//   - -32603: Internal error (database, filesystem, etc.)
//   - -32001: Project not found (no JavaScript sources below path)
//   - -32002: Build in progress
//   - -32003: Project not built
//   - -32004: Module not found or unresolvable
//   - -32005: Entry patterns matched nothing
//
// # Logging
//
// The server logs to stderr since stdout carries the protocol:
//
//	CHUNKGRAPH_LOG_LEVEL=debug chunkgraph serve
package mcp
