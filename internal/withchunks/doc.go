// Package withchunks wraps a module in a virtual module that lists the
// chunks needed to load it.
//
// Client code uses the virtual module to preload a page's chunks before
// evaluating the page. Its generated body is:
//
//	__turbopack_esm__({
//	  default: () => "pages/index.js",
//	  chunks: () => chunks
//	});
//	const chunks = ["static/chunks/a.js","static/chunks/b.js"];
//
// default is the module id of the wrapped module. chunks lists the output
// path of every chunk in the wrapped module's chunk group, in group order,
// relative to the server root. Chunks written outside the server root are
// left out without an error.
//
// # Basic Usage
//
//	asset := withchunks.New(page, types.NewPath("output", ""), chunkingContext)
//	item, err := asset.AsChunkItem(ctx, chunkingContext)
//	if err != nil {
//	    return err
//	}
//	content, err := item.Content(ctx)
//
// The asset has no raw content: Asset.Content panics with
// types.ErrContentUnsupported. Generated content is memoized with the task
// engine carried by the context. Errors of the wrapped module, the chunk
// group or a chunk path are returned unchanged.
package withchunks
