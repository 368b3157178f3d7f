// Package chunker resolves chunk groups: the ordered chunks a browser must
// load before a module can run.
//
// # Basic Usage
//
//	group := chunker.FromAsset(page, chunkingContext, nil, page)
//	chunks, err := group.Chunks(ctx)
//	if err != nil {
//	    return err
//	}
//	for _, c := range chunks {
//	    p, _ := c.Path(ctx)
//	    fmt.Println(p)
//	}
//
// # Resolution Order
//
// The root asset is packaged as the entry chunk. Chunks named by
// core.ParallelChunkReference edges are then visited breadth first, so a
// chunk always appears after the chunk that pulled it in. A chunk reached
// twice is listed once, at its first position. Chunk group references are not
// followed: they describe groups loaded on demand.
//
// # Caching
//
// Chunks is memoized with the task engine carried by the context. The key
// covers the root ident, the chunking context name, the available asset set
// and the availability root ident.
package chunker
