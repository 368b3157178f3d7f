// Package tasks memoizes bundler computations.
//
// Every derived value in the asset graph (file reads, parsed imports, chunk
// groups, generated code) is computed through Memo under a Key built from
// the operation name and its argument values. Equal arguments address the
// same result, so two requests for the same logical node share one
// computation and one cached value.
//
// # Basic Usage
//
//	engine := tasks.New(tasks.Config{CacheSize: 10000})
//	ctx = tasks.WithEngine(ctx, engine)
//
//	key := tasks.NewKey("read", path.String())
//	data, err := tasks.Memo(ctx, key, func(ctx context.Context) ([]byte, error) {
//	    return fs.Read(ctx, path)
//	})
//
// # Invalidation
//
// Memo records which computations read which: a Memo call made while another
// one is running becomes a dependency of the outer key. Invalidating a key
// evicts it and everything that transitively read it:
//
//	engine.InvalidateWhere(func(op, subject string) bool {
//	    return op == "read" && subject == changed.String()
//	})
//
// A result whose key is invalidated while it is still computing is returned
// to its callers but not cached.
//
// Errors are never cached; retrying is left to the caller.
package tasks
