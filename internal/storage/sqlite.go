package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when trying to create a duplicate entity
	ErrAlreadyExists = errors.New("already exists")
)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// One connection: SQLite has a single writer and :memory: databases are
	// per connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage opens the manifest database at dbPath and applies pending
// migrations
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction
func (s *SQLiteStorage) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx, storage: s}, nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// sqliteTx wraps a SQL transaction
type sqliteTx struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

func (t *sqliteTx) querier() querier {
	return t.tx
}

func (s *SQLiteStorage) querier() querier {
	return s.db
}

// scanner is satisfied by *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// Project operations

const projectColumns = `id, root_path, output_dir, total_entries, total_chunks,
	schema_version, last_built_at, created_at, updated_at`

func scanProject(row scanner) (*Project, error) {
	var project Project
	var lastBuiltAt sql.NullTime
	err := row.Scan(
		&project.ID, &project.RootPath, &project.OutputDir,
		&project.TotalEntries, &project.TotalChunks, &project.SchemaVersion,
		&lastBuiltAt, &project.CreatedAt, &project.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if lastBuiltAt.Valid {
		project.LastBuiltAt = lastBuiltAt.Time
	}
	return &project, nil
}

func (s *SQLiteStorage) createProjectWithQuerier(ctx context.Context, q querier, project *Project) error {
	if project.SchemaVersion == "" {
		project.SchemaVersion = CurrentSchemaVersion
	}
	query := `
		INSERT INTO projects (root_path, output_dir, schema_version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(root_path) DO NOTHING
	`
	now := time.Now()
	result, err := q.ExecContext(ctx, query,
		project.RootPath, project.OutputDir, project.SchemaVersion, now, now)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("project %s: %w", project.RootPath, ErrAlreadyExists)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	project.ID = id
	project.CreatedAt = now
	project.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) CreateProject(ctx context.Context, project *Project) error {
	return s.createProjectWithQuerier(ctx, s.querier(), project)
}

func (s *SQLiteStorage) getProjectWithQuerier(ctx context.Context, q querier, rootPath string) (*Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE root_path = ?`
	return scanProject(q.QueryRowContext(ctx, query, rootPath))
}

func (s *SQLiteStorage) GetProject(ctx context.Context, rootPath string) (*Project, error) {
	return s.getProjectWithQuerier(ctx, s.querier(), rootPath)
}

func (s *SQLiteStorage) getProjectByID(ctx context.Context, q querier, projectID int64) (*Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = ?`
	return scanProject(q.QueryRowContext(ctx, query, projectID))
}

func (s *SQLiteStorage) updateProjectWithQuerier(ctx context.Context, q querier, project *Project) error {
	query := `
		UPDATE projects
		SET output_dir = ?, total_entries = ?, total_chunks = ?,
		    last_built_at = ?, updated_at = ?
		WHERE id = ?
	`
	now := time.Now()
	var lastBuiltAt sql.NullTime
	if !project.LastBuiltAt.IsZero() {
		lastBuiltAt = sql.NullTime{Time: project.LastBuiltAt, Valid: true}
	}
	result, err := q.ExecContext(ctx, query,
		project.OutputDir, project.TotalEntries, project.TotalChunks,
		lastBuiltAt, now, project.ID)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	project.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) UpdateProject(ctx context.Context, project *Project) error {
	return s.updateProjectWithQuerier(ctx, s.querier(), project)
}

// Build operations

func (s *SQLiteStorage) createBuildWithQuerier(ctx context.Context, q querier, build *Build) error {
	if build.StartedAt.IsZero() {
		build.StartedAt = time.Now()
	}
	result, err := q.ExecContext(ctx,
		`INSERT INTO builds (project_id, started_at) VALUES (?, ?)`,
		build.ProjectID, build.StartedAt)
	if err != nil {
		return fmt.Errorf("failed to create build: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	build.ID = id
	return nil
}

func (s *SQLiteStorage) CreateBuild(ctx context.Context, build *Build) error {
	return s.createBuildWithQuerier(ctx, s.querier(), build)
}

func (s *SQLiteStorage) finishBuildWithQuerier(ctx context.Context, q querier, build *Build) error {
	if build.FinishedAt.IsZero() {
		build.FinishedAt = time.Now()
	}
	if build.Duration == 0 {
		build.Duration = build.FinishedAt.Sub(build.StartedAt)
	}
	query := `
		UPDATE builds
		SET entries_count = ?, chunks_written = ?, chunks_skipped = ?,
		    bytes_written = ?, error_count = ?, finished_at = ?, duration_ms = ?
		WHERE id = ?
	`
	result, err := q.ExecContext(ctx, query,
		build.EntriesCount, build.ChunksWritten, build.ChunksSkipped,
		build.BytesWritten, build.ErrorCount, build.FinishedAt,
		build.Duration.Milliseconds(), build.ID)
	if err != nil {
		return fmt.Errorf("failed to finish build: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStorage) FinishBuild(ctx context.Context, build *Build) error {
	return s.finishBuildWithQuerier(ctx, s.querier(), build)
}

func (s *SQLiteStorage) getLatestBuildWithQuerier(ctx context.Context, q querier, projectID int64) (*Build, error) {
	query := `
		SELECT id, project_id, entries_count, chunks_written, chunks_skipped,
		       bytes_written, error_count, started_at, finished_at, duration_ms
		FROM builds
		WHERE project_id = ?
		ORDER BY id DESC
		LIMIT 1
	`
	var build Build
	var finishedAt sql.NullTime
	var durationMs int64
	err := q.QueryRowContext(ctx, query, projectID).Scan(
		&build.ID, &build.ProjectID, &build.EntriesCount, &build.ChunksWritten,
		&build.ChunksSkipped, &build.BytesWritten, &build.ErrorCount,
		&build.StartedAt, &finishedAt, &durationMs,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if finishedAt.Valid {
		build.FinishedAt = finishedAt.Time
	}
	build.Duration = time.Duration(durationMs) * time.Millisecond
	return &build, nil
}

func (s *SQLiteStorage) GetLatestBuild(ctx context.Context, projectID int64) (*Build, error) {
	return s.getLatestBuildWithQuerier(ctx, s.querier(), projectID)
}

// Entry operations

func (s *SQLiteStorage) upsertEntryWithQuerier(ctx context.Context, q querier, entry *Entry) error {
	clientChunks := entry.ClientChunks
	if clientChunks == nil {
		clientChunks = []string{}
	}
	encoded, err := json.Marshal(clientChunks)
	if err != nil {
		return fmt.Errorf("failed to encode client chunks: %w", err)
	}

	query := `
		INSERT INTO entries (project_id, build_id, entry_path, module_id, chunk_path, client_chunks, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(project_id, entry_path) DO UPDATE SET
			build_id = excluded.build_id,
			module_id = excluded.module_id,
			chunk_path = excluded.chunk_path,
			client_chunks = excluded.client_chunks,
			updated_at = excluded.updated_at
		RETURNING id
	`
	now := time.Now()
	err = q.QueryRowContext(ctx, query,
		entry.ProjectID, entry.BuildID, entry.EntryPath, entry.ModuleID,
		entry.ChunkPath, string(encoded), now, now).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert entry: %w", err)
	}
	entry.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) UpsertEntry(ctx context.Context, entry *Entry) error {
	return s.upsertEntryWithQuerier(ctx, s.querier(), entry)
}

const entryColumns = `id, project_id, build_id, entry_path, module_id, chunk_path,
	client_chunks, created_at, updated_at`

func scanEntry(row scanner) (*Entry, error) {
	var entry Entry
	var clientChunks string
	err := row.Scan(
		&entry.ID, &entry.ProjectID, &entry.BuildID, &entry.EntryPath,
		&entry.ModuleID, &entry.ChunkPath, &clientChunks,
		&entry.CreatedAt, &entry.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(clientChunks), &entry.ClientChunks); err != nil {
		return nil, fmt.Errorf("failed to decode client chunks of %s: %w", entry.EntryPath, err)
	}
	return &entry, nil
}

func (s *SQLiteStorage) getEntryWithQuerier(ctx context.Context, q querier, projectID int64, entryPath string) (*Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries WHERE project_id = ? AND entry_path = ?`
	return scanEntry(q.QueryRowContext(ctx, query, projectID, entryPath))
}

func (s *SQLiteStorage) GetEntry(ctx context.Context, projectID int64, entryPath string) (*Entry, error) {
	return s.getEntryWithQuerier(ctx, s.querier(), projectID, entryPath)
}

func (s *SQLiteStorage) listEntriesWithQuerier(ctx context.Context, q querier, projectID int64) ([]*Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries WHERE project_id = ? ORDER BY entry_path`
	rows, err := q.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var entries []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s *SQLiteStorage) ListEntries(ctx context.Context, projectID int64) ([]*Entry, error) {
	return s.listEntriesWithQuerier(ctx, s.querier(), projectID)
}

func (s *SQLiteStorage) deleteEntriesNotInBuildWithQuerier(ctx context.Context, q querier, projectID, buildID int64) (int, error) {
	result, err := q.ExecContext(ctx,
		`DELETE FROM entries WHERE project_id = ? AND build_id != ?`, projectID, buildID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale entries: %w", err)
	}
	n, err := result.RowsAffected()
	return int(n), err
}

func (s *SQLiteStorage) DeleteEntriesNotInBuild(ctx context.Context, projectID, buildID int64) (int, error) {
	return s.deleteEntriesNotInBuildWithQuerier(ctx, s.querier(), projectID, buildID)
}

// Chunk operations

func (s *SQLiteStorage) upsertChunkWithQuerier(ctx context.Context, q querier, chunk *Chunk) error {
	query := `
		INSERT INTO chunks (project_id, build_id, path, content_hash, size_bytes, compressed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(project_id, path) DO UPDATE SET
			build_id = excluded.build_id,
			content_hash = excluded.content_hash,
			size_bytes = excluded.size_bytes,
			compressed = excluded.compressed,
			updated_at = excluded.updated_at
		RETURNING id
	`
	now := time.Now()
	err := q.QueryRowContext(ctx, query,
		chunk.ProjectID, chunk.BuildID, chunk.Path, chunk.ContentHash[:],
		chunk.SizeBytes, chunk.Compressed, now, now).Scan(&chunk.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert chunk: %w", err)
	}
	chunk.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) UpsertChunk(ctx context.Context, chunk *Chunk) error {
	return s.upsertChunkWithQuerier(ctx, s.querier(), chunk)
}

const chunkColumns = `id, project_id, build_id, path, content_hash, size_bytes,
	compressed, created_at, updated_at`

func scanChunk(row scanner) (*Chunk, error) {
	var chunk Chunk
	var hash []byte
	err := row.Scan(
		&chunk.ID, &chunk.ProjectID, &chunk.BuildID, &chunk.Path, &hash,
		&chunk.SizeBytes, &chunk.Compressed, &chunk.CreatedAt, &chunk.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	copy(chunk.ContentHash[:], hash)
	return &chunk, nil
}

func (s *SQLiteStorage) getChunkByPathWithQuerier(ctx context.Context, q querier, projectID int64, path string) (*Chunk, error) {
	query := `SELECT ` + chunkColumns + ` FROM chunks WHERE project_id = ? AND path = ?`
	return scanChunk(q.QueryRowContext(ctx, query, projectID, path))
}

func (s *SQLiteStorage) GetChunkByPath(ctx context.Context, projectID int64, path string) (*Chunk, error) {
	return s.getChunkByPathWithQuerier(ctx, s.querier(), projectID, path)
}

func (s *SQLiteStorage) listChunksWithQuerier(ctx context.Context, q querier, where string, arg int64) ([]*Chunk, error) {
	query := `SELECT ` + chunkColumns + ` FROM chunks WHERE ` + where + ` = ? ORDER BY path`
	rows, err := q.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var chunks []*Chunk
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}
	return chunks, rows.Err()
}

func (s *SQLiteStorage) ListChunksByBuild(ctx context.Context, buildID int64) ([]*Chunk, error) {
	return s.listChunksWithQuerier(ctx, s.querier(), "build_id", buildID)
}

func (s *SQLiteStorage) ListChunks(ctx context.Context, projectID int64) ([]*Chunk, error) {
	return s.listChunksWithQuerier(ctx, s.querier(), "project_id", projectID)
}

func (s *SQLiteStorage) deleteChunksNotInBuildWithQuerier(ctx context.Context, q querier, projectID, buildID int64) (int, error) {
	result, err := q.ExecContext(ctx,
		`DELETE FROM chunks WHERE project_id = ? AND build_id != ?`, projectID, buildID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale chunks: %w", err)
	}
	n, err := result.RowsAffected()
	return int(n), err
}

func (s *SQLiteStorage) DeleteChunksNotInBuild(ctx context.Context, projectID, buildID int64) (int, error) {
	return s.deleteChunksNotInBuildWithQuerier(ctx, s.querier(), projectID, buildID)
}

// Status operations

func (s *SQLiteStorage) getStatusWithQuerier(ctx context.Context, q querier, projectID int64) (*ProjectStatus, error) {
	project, err := s.getProjectByID(ctx, q, projectID)
	if err != nil {
		return nil, err
	}

	status := &ProjectStatus{
		Project: project,
		Health:  HealthStatus{DatabaseAccessible: true},
	}

	build, err := s.getLatestBuildWithQuerier(ctx, q, projectID)
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		return nil, err
	default:
		status.LatestBuild = build
		status.Health.LastBuildFailed = build.ErrorCount > 0 || build.FinishedAt.IsZero()
	}

	err = q.QueryRowContext(ctx, "SELECT COUNT(*) FROM entries WHERE project_id = ?", projectID).
		Scan(&status.EntriesCount)
	if err != nil {
		return nil, err
	}

	err = q.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(size_bytes), 0) FROM chunks WHERE project_id = ?", projectID).
		Scan(&status.ChunksCount, &status.TotalBytes)
	if err != nil {
		return nil, err
	}

	var pageCount, pageSize int
	err = q.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount)
	if err == nil {
		err = q.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
		if err == nil {
			status.DatabaseSizeMB = float64(pageCount*pageSize) / (1024 * 1024)
		}
	}

	return status, nil
}

func (s *SQLiteStorage) GetStatus(ctx context.Context, projectID int64) (*ProjectStatus, error) {
	return s.getStatusWithQuerier(ctx, s.querier(), projectID)
}

// Transaction operations

func (t *sqliteTx) CreateProject(ctx context.Context, project *Project) error {
	return t.storage.createProjectWithQuerier(ctx, t.querier(), project)
}

func (t *sqliteTx) GetProject(ctx context.Context, rootPath string) (*Project, error) {
	return t.storage.getProjectWithQuerier(ctx, t.querier(), rootPath)
}

func (t *sqliteTx) UpdateProject(ctx context.Context, project *Project) error {
	return t.storage.updateProjectWithQuerier(ctx, t.querier(), project)
}

func (t *sqliteTx) CreateBuild(ctx context.Context, build *Build) error {
	return t.storage.createBuildWithQuerier(ctx, t.querier(), build)
}

func (t *sqliteTx) FinishBuild(ctx context.Context, build *Build) error {
	return t.storage.finishBuildWithQuerier(ctx, t.querier(), build)
}

func (t *sqliteTx) GetLatestBuild(ctx context.Context, projectID int64) (*Build, error) {
	return t.storage.getLatestBuildWithQuerier(ctx, t.querier(), projectID)
}

func (t *sqliteTx) UpsertEntry(ctx context.Context, entry *Entry) error {
	return t.storage.upsertEntryWithQuerier(ctx, t.querier(), entry)
}

func (t *sqliteTx) GetEntry(ctx context.Context, projectID int64, entryPath string) (*Entry, error) {
	return t.storage.getEntryWithQuerier(ctx, t.querier(), projectID, entryPath)
}

func (t *sqliteTx) ListEntries(ctx context.Context, projectID int64) ([]*Entry, error) {
	return t.storage.listEntriesWithQuerier(ctx, t.querier(), projectID)
}

func (t *sqliteTx) DeleteEntriesNotInBuild(ctx context.Context, projectID, buildID int64) (int, error) {
	return t.storage.deleteEntriesNotInBuildWithQuerier(ctx, t.querier(), projectID, buildID)
}

func (t *sqliteTx) UpsertChunk(ctx context.Context, chunk *Chunk) error {
	return t.storage.upsertChunkWithQuerier(ctx, t.querier(), chunk)
}

func (t *sqliteTx) GetChunkByPath(ctx context.Context, projectID int64, path string) (*Chunk, error) {
	return t.storage.getChunkByPathWithQuerier(ctx, t.querier(), projectID, path)
}

func (t *sqliteTx) ListChunksByBuild(ctx context.Context, buildID int64) ([]*Chunk, error) {
	return t.storage.listChunksWithQuerier(ctx, t.querier(), "build_id", buildID)
}

func (t *sqliteTx) ListChunks(ctx context.Context, projectID int64) ([]*Chunk, error) {
	return t.storage.listChunksWithQuerier(ctx, t.querier(), "project_id", projectID)
}

func (t *sqliteTx) DeleteChunksNotInBuild(ctx context.Context, projectID, buildID int64) (int, error) {
	return t.storage.deleteChunksNotInBuildWithQuerier(ctx, t.querier(), projectID, buildID)
}

func (t *sqliteTx) GetStatus(ctx context.Context, projectID int64) (*ProjectStatus, error) {
	return t.storage.getStatusWithQuerier(ctx, t.querier(), projectID)
}

func (t *sqliteTx) Close() error {
	// Transactions don't close the underlying connection
	return nil
}

func (t *sqliteTx) BeginTx(ctx context.Context) (Tx, error) {
	// SQLite has no nested transactions
	return nil, errors.New("nested transactions not supported")
}
