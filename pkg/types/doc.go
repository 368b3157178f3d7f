// Package types provides shared value types for the chunkgraph bundler.
//
// These types are plain values: they carry no behavior beyond small helpers
// and are safe to copy, compare and use as parts of task keys.
//
// # Paths
//
// FileSystemPath names a location inside a named file system. Paths are
// slash separated and relative to the file system root:
//
//	root := types.NewPath("output", "/build")
//	chunk := root.Join("static", "chunks", "a.js")
//
//	rel, ok := root.GetPathTo(chunk) // "static/chunks/a.js", true
//
// GetPathTo is the rebasing primitive used to turn output locations into
// browser servable paths. It fails for targets outside the root or on another
// file system.
//
// # Idents
//
// AssetIdent identifies an asset in the module graph. Modifiers derive a
// distinct identity for a synthetic asset built from another one:
//
//	ident := types.NewIdent(types.NewPath("project", "pages/index.js"))
//	chunks := ident.WithModifier("chunks")
//
// # Chunk Item Content
//
// ChunkItemContent carries the generated code of one chunk item. Its
// ContentHash is used by the emitter to skip unchanged output.
package types
