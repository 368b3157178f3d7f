package emitter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"

	"github.com/dshills/chunkgraph/internal/chunking"
	"github.com/dshills/chunkgraph/internal/core"
	"github.com/dshills/chunkgraph/internal/ecmascript"
	"github.com/dshills/chunkgraph/internal/fs"
	"github.com/dshills/chunkgraph/internal/storage"
	"github.com/dshills/chunkgraph/internal/tasks"
	"github.com/dshills/chunkgraph/internal/withchunks"
	"github.com/dshills/chunkgraph/pkg/types"
)

const (
	// ProjectFS names the file system of project sources
	ProjectFS = "project"

	// OutputFS names the file system chunks are emitted to
	OutputFS = "output"

	// DefaultOutputDir is the output directory, relative to the project root
	DefaultOutputDir = ".chunkgraph"
)

// DefaultEntries matches page modules
var DefaultEntries = []string{"pages/**/*.{js,jsx,ts,tsx}"}

var (
	// ErrBuildInProgress is returned when a build is requested while another
	// build of the same emitter runs
	ErrBuildInProgress = errors.New("build already in progress")

	// ErrNoEntries is returned when no file matches the entry patterns
	ErrNoEntries = errors.New("no entries matched")
)

// Emitter builds a project's page entries into chunks on disk and records
// the result in storage. One emitter serves one project: its task engine
// caches results by path.
type Emitter struct {
	storage storage.Storage
	engine  *tasks.Engine
	logger  *log.Logger
	lock    BuildLock

	mu          sync.Mutex
	projectRoot string // root of the cached results
}

// Config contains configuration for a build
type Config struct {
	ProjectRoot      string   // Directory containing the sources
	Entries          []string // Doublestar patterns relative to ProjectRoot (default: DefaultEntries)
	OutputDir        string   // Default: <ProjectRoot>/.chunkgraph
	ServerRoot       string   // Served directory, relative to OutputDir (default: OutputDir itself)
	Workers          int      // Concurrent chunk writers (default: runtime.NumCPU())
	Precompress      bool     // Also write .gz siblings
	ModuleIDStrategy string   // chunking.StrategyPath (default) or chunking.StrategyHash
}

// Statistics contains statistics about a build
type Statistics struct {
	BuildID       int64
	EntriesBuilt  int
	EntriesFailed int
	ChunksWritten int
	ChunksSkipped int // Unchanged since the previous build
	ChunksPruned  int // Stale chunks removed from disk
	BytesWritten  int64
	Duration      time.Duration
	ErrorMessages []string
}

// New creates an Emitter. A nil logger discards output.
func New(store storage.Storage, logger *log.Logger) *Emitter {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Emitter{
		storage: store,
		engine:  tasks.New(tasks.Config{Logger: logger}),
		logger:  logger,
	}
}

// Engine returns the task engine caching the emitter's results
func (e *Emitter) Engine() *tasks.Engine {
	return e.engine
}

// Building reports whether a build is running
func (e *Emitter) Building() bool {
	return e.lock.Building()
}

// normalize fills defaults and makes directories absolute
func (c *Config) normalize() (*Config, error) {
	out := *c
	if out.ProjectRoot == "" {
		return nil, errors.New("project root is required")
	}
	root, err := filepath.Abs(out.ProjectRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root: %w", err)
	}
	out.ProjectRoot = root
	if len(out.Entries) == 0 {
		out.Entries = DefaultEntries
	}
	for _, pattern := range out.Entries {
		if _, err := doublestar.Match(pattern, ""); err != nil {
			return nil, fmt.Errorf("invalid entry pattern %q: %w", pattern, err)
		}
	}
	if out.OutputDir == "" {
		out.OutputDir = filepath.Join(root, DefaultOutputDir)
	} else if !filepath.IsAbs(out.OutputDir) {
		out.OutputDir = filepath.Join(root, out.OutputDir)
	}
	out.ServerRoot = filepath.ToSlash(filepath.Clean("/" + out.ServerRoot))[1:]
	if out.Workers <= 0 {
		out.Workers = runtime.NumCPU()
	}
	return &out, nil
}

// pipeline holds the per build view of a project
type pipeline struct {
	config   *Config
	project  *fs.DiskFileSystem
	modules  *ecmascript.ModuleContext
	chunking *chunking.DevContext
	server   types.FileSystemPath
}

func (e *Emitter) newPipeline(cfg *Config) (*pipeline, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	config, err := cfg.normalize()
	if err != nil {
		return nil, err
	}

	project, err := fs.NewDiskFileSystem(ProjectFS, config.ProjectRoot)
	if err != nil {
		return nil, err
	}
	outputRoot := types.NewPath(OutputFS, "")
	cc, err := chunking.NewDevContext(project.Root(), outputRoot, chunking.Options{
		ModuleIDStrategy: config.ModuleIDStrategy,
	})
	if err != nil {
		return nil, err
	}

	e.resetIfMoved(config.ProjectRoot)

	return &pipeline{
		config:   config,
		project:  project,
		modules:  ecmascript.NewModuleContext(project),
		chunking: cc,
		server:   outputRoot.Join(config.ServerRoot),
	}, nil
}

// resetIfMoved drops cached results computed for another project root
func (e *Emitter) resetIfMoved(root string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.projectRoot != "" && e.projectRoot != root {
		e.logger.Debug("project root changed, purging cache", "from", e.projectRoot, "to", root)
		e.engine.Purge()
	}
	e.projectRoot = root
}

// withChunks wraps the module at rel in a with chunks module
func (p *pipeline) withChunks(rel string) *withchunks.Asset {
	module := p.modules.Module(types.NewPath(ProjectFS, rel))
	return withchunks.New(module, p.server, p.chunking)
}

// outputRel returns the chunk path relative to the output directory
func (p *pipeline) outputRel(path types.FileSystemPath) (string, error) {
	rel, ok := p.chunking.OutputRoot().GetPathTo(path)
	if !ok || rel == "" {
		return "", fmt.Errorf("chunk %s is outside the output directory", path)
	}
	return rel, nil
}

// discoverEntries finds entry modules matching the configured patterns
func discoverEntries(root string, patterns []string) ([]string, error) {
	fsys := os.DirFS(root)
	seen := make(map[string]struct{})
	var entries []string
	for _, pattern := range patterns {
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("failed to glob %q: %w", pattern, err)
		}
		for _, m := range matches {
			if !ecmascript.Extensions[filepath.Ext(m)] {
				continue
			}
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			entries = append(entries, m)
		}
	}
	sort.Strings(entries)
	return entries, nil
}

// entryResult is the outcome of building one entry
type entryResult struct {
	path         string
	moduleID     string
	chunkPath    string
	clientChunks []string
	chunks       []core.Chunk
}

// buildEntry synthesizes the with chunks module of an entry and collects
// every chunk it needs at runtime
func (p *pipeline) buildEntry(ctx context.Context, rel string) (*entryResult, error) {
	asset := p.withChunks(rel)

	item, err := asset.AsChunkItem(ctx, p.chunking)
	if err != nil {
		return nil, err
	}
	if _, err := item.Content(ctx); err != nil {
		return nil, err
	}
	clientChunks, err := asset.ClientChunks(ctx)
	if err != nil {
		return nil, err
	}

	moduleIdent, err := asset.Module().Ident(ctx)
	if err != nil {
		return nil, err
	}
	moduleID, err := p.chunking.ChunkItemID(ctx, moduleIdent)
	if err != nil {
		return nil, err
	}

	own, err := asset.AsChunk(ctx, p.chunking, nil, nil)
	if err != nil {
		return nil, err
	}
	ownPath, err := own.Path(ctx)
	if err != nil {
		return nil, err
	}
	chunkPath, err := p.outputRel(ownPath)
	if err != nil {
		return nil, err
	}

	chunks, err := collectChunks(ctx, []core.Chunk{own})
	if err != nil {
		return nil, err
	}

	return &entryResult{
		path:         rel,
		moduleID:     moduleID.String(),
		chunkPath:    chunkPath,
		clientChunks: clientChunks,
		chunks:       chunks,
	}, nil
}
