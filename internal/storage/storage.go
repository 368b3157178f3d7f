package storage

import (
	"context"
	"time"
)

// Storage defines the interface for persisting build manifests
type Storage interface {
	// Project operations
	CreateProject(ctx context.Context, project *Project) error
	GetProject(ctx context.Context, rootPath string) (*Project, error)
	UpdateProject(ctx context.Context, project *Project) error

	// Build operations
	CreateBuild(ctx context.Context, build *Build) error
	FinishBuild(ctx context.Context, build *Build) error
	GetLatestBuild(ctx context.Context, projectID int64) (*Build, error)

	// Entry operations
	UpsertEntry(ctx context.Context, entry *Entry) error
	GetEntry(ctx context.Context, projectID int64, entryPath string) (*Entry, error)
	ListEntries(ctx context.Context, projectID int64) ([]*Entry, error)
	DeleteEntriesNotInBuild(ctx context.Context, projectID, buildID int64) (int, error)

	// Chunk operations
	UpsertChunk(ctx context.Context, chunk *Chunk) error
	GetChunkByPath(ctx context.Context, projectID int64, path string) (*Chunk, error)
	ListChunksByBuild(ctx context.Context, buildID int64) ([]*Chunk, error)
	ListChunks(ctx context.Context, projectID int64) ([]*Chunk, error)
	DeleteChunksNotInBuild(ctx context.Context, projectID, buildID int64) (int, error)

	// Status operations
	GetStatus(ctx context.Context, projectID int64) (*ProjectStatus, error)

	// Database operations
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	Storage // Embed Storage interface for transaction operations
}

// Project represents a bundled JavaScript project
type Project struct {
	ID            int64
	RootPath      string
	OutputDir     string
	TotalEntries  int
	TotalChunks   int
	SchemaVersion string
	LastBuiltAt   time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Build is one run of the emitter
type Build struct {
	ID            int64
	ProjectID     int64
	EntriesCount  int
	ChunksWritten int
	ChunksSkipped int
	BytesWritten  int64
	ErrorCount    int
	StartedAt     time.Time
	FinishedAt    time.Time // Zero while the build runs
	Duration      time.Duration
}

// Entry is a page entry and the client chunks its with chunks module lists
type Entry struct {
	ID           int64
	ProjectID    int64
	BuildID      int64
	EntryPath    string   // Relative to project root
	ModuleID     string   // Runtime id of the entry module
	ChunkPath    string   // Output path of the with chunks module's chunk
	ClientChunks []string // Chunk paths relative to the server root
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Chunk is an output file written by a build
type Chunk struct {
	ID          int64
	ProjectID   int64
	BuildID     int64
	Path        string // Relative to the output directory
	ContentHash [32]byte
	SizeBytes   int64
	Compressed  bool // A .gz sibling was written
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProjectStatus contains statistics about a built project
type ProjectStatus struct {
	Project        *Project
	LatestBuild    *Build // Nil before the first build
	EntriesCount   int
	ChunksCount    int
	TotalBytes     int64
	DatabaseSizeMB float64
	Health         HealthStatus
}

// HealthStatus represents the health of the manifest
type HealthStatus struct {
	DatabaseAccessible bool
	LastBuildFailed    bool
}
