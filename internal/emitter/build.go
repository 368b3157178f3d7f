package emitter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/chunkgraph/internal/core"
	"github.com/dshills/chunkgraph/internal/storage"
	"github.com/dshills/chunkgraph/internal/tasks"
)

// Build discovers the entries of a project, emits every chunk they need and
// records the build manifest. Failures of single entries are reported in
// Statistics.ErrorMessages and do not fail the build.
func (e *Emitter) Build(ctx context.Context, cfg *Config) (*Statistics, error) {
	if !e.lock.TryAcquire() {
		return nil, ErrBuildInProgress
	}
	defer e.lock.Release()

	startTime := time.Now()
	p, err := e.newPipeline(cfg)
	if err != nil {
		return nil, err
	}
	ctx = tasks.WithEngine(ctx, e.engine)

	project, err := e.getOrCreateProject(ctx, p.config)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create project: %w", err)
	}

	entries, err := discoverEntries(p.config.ProjectRoot, p.config.Entries)
	if err != nil {
		return nil, fmt.Errorf("failed to discover entries: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %v", ErrNoEntries, p.config.Entries)
	}

	build := &storage.Build{ProjectID: project.ID, StartedAt: startTime}
	if err := e.storage.CreateBuild(ctx, build); err != nil {
		return nil, err
	}
	stats := &Statistics{BuildID: build.ID, ErrorMessages: make([]string, 0)}
	e.logger.Info("building", "root", p.config.ProjectRoot, "entries", len(entries), "build", build.ID)

	results := e.buildEntries(ctx, p, entries, stats)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	chunks, err := e.writeChunks(ctx, p, project, build, results, stats)
	if err != nil {
		return nil, fmt.Errorf("failed to write chunks: %w", err)
	}

	stale, err := e.recordBuild(ctx, project, build, results, chunks, stats, startTime)
	if err != nil {
		return nil, fmt.Errorf("failed to record build: %w", err)
	}
	stats.ChunksPruned = pruneFiles(p.config.OutputDir, stale)

	stats.Duration = time.Since(startTime)
	e.logger.Info("build finished",
		"entries", stats.EntriesBuilt,
		"written", stats.ChunksWritten,
		"skipped", stats.ChunksSkipped,
		"errors", len(stats.ErrorMessages),
		"duration", stats.Duration)
	return stats, nil
}

// getOrCreateProject retrieves an existing project or creates a new one
func (e *Emitter) getOrCreateProject(ctx context.Context, cfg *Config) (*storage.Project, error) {
	project, err := e.storage.GetProject(ctx, cfg.ProjectRoot)
	if err == nil {
		if project.OutputDir != cfg.OutputDir {
			project.OutputDir = cfg.OutputDir
			if err := e.storage.UpdateProject(ctx, project); err != nil {
				return nil, err
			}
		}
		return project, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	project = &storage.Project{
		RootPath:      cfg.ProjectRoot,
		OutputDir:     cfg.OutputDir,
		SchemaVersion: storage.CurrentSchemaVersion,
	}
	if err := e.storage.CreateProject(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// buildEntries builds every entry concurrently. Failed entries are left out
// of the result.
func (e *Emitter) buildEntries(ctx context.Context, p *pipeline, entries []string, stats *Statistics) []*entryResult {
	semaphore := make(chan struct{}, p.config.Workers)
	results := make([]*entryResult, len(entries))
	var mu sync.Mutex // Protect stats.ErrorMessages
	var wg sync.WaitGroup

	for i, rel := range entries {
		select {
		case <-ctx.Done():
			wg.Wait()
			return nil
		case semaphore <- struct{}{}:
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-semaphore }()

			result, err := p.buildEntry(ctx, rel)
			if err != nil {
				e.logger.Warn("entry failed", "entry", rel, "err", err)
				mu.Lock()
				stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("%s: %v", rel, err))
				mu.Unlock()
				return
			}
			results[i] = result
		}()
	}
	wg.Wait()

	built := results[:0]
	for _, r := range results {
		if r != nil {
			built = append(built, r)
		}
	}
	stats.EntriesBuilt = len(built)
	stats.EntriesFailed = len(entries) - len(built)
	return built
}

// writeChunks renders and writes the chunks of every entry once. Chunks
// whose content hash matches the previous build and whose file still exists
// are skipped.
func (e *Emitter) writeChunks(ctx context.Context, p *pipeline, project *storage.Project,
	build *storage.Build, results []*entryResult, stats *Statistics) ([]*storage.Chunk, error) {

	previous, err := e.storage.ListChunks(ctx, project.ID)
	if err != nil {
		return nil, err
	}
	known := make(map[string]*storage.Chunk, len(previous))
	for _, c := range previous {
		known[c.Path] = c
	}

	type job struct {
		rel   string
		chunk core.Chunk
	}
	var jobs []job
	seen := make(map[string]struct{})
	for _, r := range results {
		for _, c := range r.chunks {
			path, err := c.Path(ctx)
			if err != nil {
				return nil, err
			}
			rel, err := p.outputRel(path)
			if err != nil {
				return nil, err
			}
			if _, ok := seen[rel]; ok {
				continue
			}
			seen[rel] = struct{}{}
			jobs = append(jobs, job{rel: rel, chunk: c})
		}
	}

	var (
		written atomic.Int32
		skipped atomic.Int32
		total   atomic.Int64
		mu      sync.Mutex
	)
	records := make([]*storage.Chunk, len(jobs))
	semaphore := make(chan struct{}, p.config.Workers)
	g, gctx := errgroup.WithContext(ctx)

	for i, j := range jobs {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			content, err := j.chunk.Content(gctx)
			if err != nil {
				mu.Lock()
				stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("%s: %v", j.rel, err))
				mu.Unlock()
				return nil
			}
			record := &storage.Chunk{
				ProjectID:   project.ID,
				BuildID:     build.ID,
				Path:        j.rel,
				ContentHash: content.ComputeContentHash(),
				SizeBytes:   int64(len(content.Bytes)),
				Compressed:  p.config.Precompress,
			}
			records[i] = record

			target := filepath.Join(p.config.OutputDir, filepath.FromSlash(j.rel))
			if prev, ok := known[j.rel]; ok && prev.ContentHash == record.ContentHash &&
				prev.Compressed == record.Compressed && fileExists(target) {
				skipped.Add(1)
				return nil
			}

			if err := writeFile(target, content.Bytes); err != nil {
				return err
			}
			n := int64(len(content.Bytes))
			if p.config.Precompress {
				gz, err := compress(content.Bytes)
				if err != nil {
					return err
				}
				if err := writeFile(target+".gz", gz); err != nil {
					return err
				}
				n += int64(len(gz))
			}
			written.Add(1)
			total.Add(n)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats.ChunksWritten = int(written.Load())
	stats.ChunksSkipped = int(skipped.Load())
	stats.BytesWritten = total.Load()

	out := records[:0]
	for _, r := range records {
		if r != nil {
			out = append(out, r)
		}
	}
	return out, nil
}

// recordBuild stores the manifest of the build within a transaction. Stale
// rows are only removed after a build without errors; their paths are
// returned.
func (e *Emitter) recordBuild(ctx context.Context, project *storage.Project, build *storage.Build,
	results []*entryResult, chunks []*storage.Chunk, stats *Statistics, startTime time.Time) ([]*storage.Chunk, error) {

	tx, err := e.storage.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, r := range results {
		entry := &storage.Entry{
			ProjectID:    project.ID,
			BuildID:      build.ID,
			EntryPath:    r.path,
			ModuleID:     r.moduleID,
			ChunkPath:    r.chunkPath,
			ClientChunks: r.clientChunks,
		}
		if err := tx.UpsertEntry(ctx, entry); err != nil {
			return nil, err
		}
	}
	for _, c := range chunks {
		if err := tx.UpsertChunk(ctx, c); err != nil {
			return nil, err
		}
	}

	var stale []*storage.Chunk
	if len(stats.ErrorMessages) == 0 {
		all, err := tx.ListChunks(ctx, project.ID)
		if err != nil {
			return nil, err
		}
		for _, c := range all {
			if c.BuildID != build.ID {
				stale = append(stale, c)
			}
		}
		if _, err := tx.DeleteChunksNotInBuild(ctx, project.ID, build.ID); err != nil {
			return nil, err
		}
		if _, err := tx.DeleteEntriesNotInBuild(ctx, project.ID, build.ID); err != nil {
			return nil, err
		}
	}

	build.EntriesCount = stats.EntriesBuilt
	build.ChunksWritten = stats.ChunksWritten
	build.ChunksSkipped = stats.ChunksSkipped
	build.BytesWritten = stats.BytesWritten
	build.ErrorCount = len(stats.ErrorMessages)
	build.FinishedAt = time.Now()
	build.Duration = build.FinishedAt.Sub(startTime)
	if err := tx.FinishBuild(ctx, build); err != nil {
		return nil, err
	}

	entries, err := tx.ListEntries(ctx, project.ID)
	if err != nil {
		return nil, err
	}
	stored, err := tx.ListChunks(ctx, project.ID)
	if err != nil {
		return nil, err
	}
	project.TotalEntries = len(entries)
	project.TotalChunks = len(stored)
	project.LastBuiltAt = build.FinishedAt
	if err := tx.UpdateProject(ctx, project); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return stale, nil
}

// pruneFiles removes the files of stale chunks and returns how many were
// removed
func pruneFiles(outputDir string, stale []*storage.Chunk) int {
	removed := 0
	for _, c := range stale {
		target := filepath.Join(outputDir, filepath.FromSlash(c.Path))
		if err := os.Remove(target); err == nil {
			removed++
		}
		if c.Compressed {
			_ = os.Remove(target + ".gz")
		}
	}
	return removed
}
