// Package emitter builds the page entries of a project into chunk files.
//
// A build runs in four steps:
//   - Discover entries with doublestar patterns (default "pages/**/*.{js,jsx,ts,tsx}")
//   - Wrap every entry in a with chunks module and synthesize its code
//   - Collect every chunk the entries need, including lazily loaded groups,
//     and write each one once
//   - Record entries, chunks and counters in storage within one transaction
//
// Chunks whose content hash matches the previous build and whose file is
// still on disk are not rewritten. With Config.Precompress a gzip sibling is
// written next to every chunk. Chunks of the previous build that are no
// longer produced are removed, but only after a build without errors.
//
// # Basic Usage
//
//	store, err := storage.NewSQLiteStorage(dbPath)
//	if err != nil {
//	    return err
//	}
//	e := emitter.New(store, logger)
//	stats, err := e.Build(ctx, &emitter.Config{ProjectRoot: "."})
//
// # Incremental Builds
//
// An Emitter caches every intermediate result in its task engine. Watch
// rebuilds after source changes, invalidating only the results that read a
// changed file:
//
//	err := e.Watch(ctx, cfg, 0, func(stats *emitter.Statistics, err error) {
//	    ...
//	})
//
// Callers driving their own watcher call Invalidate for every change.
//
// # Concurrency
//
// Entries and chunk writes run on Config.Workers goroutines. A second Build
// on the same Emitter while one runs fails with ErrBuildInProgress.
package emitter
