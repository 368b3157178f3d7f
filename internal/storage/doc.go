// Package storage persists build manifests in SQLite.
//
// The storage layer manages:
//   - Project metadata (root path, output directory)
//   - Builds and their counters
//   - Entries with the client chunk list of their with chunks module
//   - Written chunks and their content hashes
//
// # Database Schema
//
// Tables:
//   - projects: one row per project root
//   - builds: one row per emitter run
//   - entries: page entries, keyed by (project, entry path)
//   - chunks: output files, keyed by (project, path)
//   - schema_version: applied migrations
//
// Entries and chunks are upserted on every build and carry the id of the
// build that last produced them. Rows whose build id is older than the
// current build are stale and removed with DeleteEntriesNotInBuild and
// DeleteChunksNotInBuild.
//
// # Basic Usage
//
//	db, err := storage.NewSQLiteStorage(".chunkgraph/manifest.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	project := &storage.Project{RootPath: root, OutputDir: out}
//	if err := db.CreateProject(ctx, project); err != nil {
//	    return err
//	}
//
// # Transactions
//
// Use transactions to record a build atomically:
//
//	tx, err := db.BeginTx(ctx)
//	if err != nil {
//	    return err
//	}
//	defer tx.Rollback()
//
//	_ = tx.UpsertEntry(ctx, entry)
//	_ = tx.UpsertChunk(ctx, chunk)
//	_ = tx.FinishBuild(ctx, build)
//
//	return tx.Commit()
//
// Nested transactions are not supported.
//
// # Build Modes
//
// The default build uses modernc.org/sqlite and needs no C toolchain.
// Building with the sqlite_cgo tag switches to github.com/mattn/go-sqlite3.
// DriverName and BuildMode report the active driver.
//
// # Migrations
//
// Schema versions are semantic versions. ApplyMigrations runs every
// migration newer than the recorded version; RollbackMigration undoes the
// latest one.
package storage
