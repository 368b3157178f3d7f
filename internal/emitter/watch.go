package emitter

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/chunkgraph/internal/fs"
	"github.com/dshills/chunkgraph/internal/resolve"
)

// DefaultDebounce is the quiet period after the last change before a rebuild
const DefaultDebounce = 200 * time.Millisecond

// Invalidate drops every cached result that read the changed path. Files
// appearing or disappearing also drop every cached resolution.
func (e *Emitter) Invalidate(ev fs.Event) int {
	subject := ev.Path.String()
	return e.engine.InvalidateWhere(func(op, s string) bool {
		switch op {
		case fs.ReadOp:
			return s == subject || strings.HasPrefix(s, subject+"/")
		case resolve.ResolveOp:
			return ev.Op != fs.OpWrite
		}
		return false
	})
}

// Watch builds the project, then rebuilds it after every burst of source
// changes until ctx is done. onBuild receives the outcome of every build.
func (e *Emitter) Watch(ctx context.Context, cfg *Config, debounce time.Duration, onBuild func(*Statistics, error)) error {
	p, err := e.newPipeline(cfg)
	if err != nil {
		return err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	changes := make(chan struct{}, 1)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return p.project.Watch(gctx, e.logger, func(ev fs.Event) {
			evicted := e.Invalidate(ev)
			e.logger.Debug("source changed", "path", ev.Path, "op", ev.Op, "evicted", evicted)
			select {
			case changes <- struct{}{}:
			default:
			}
		})
	})

	g.Go(func() error {
		onBuild(e.Build(gctx, cfg))
		timer := time.NewTimer(debounce)
		timer.Stop()
		defer timer.Stop()
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-changes:
				timer.Reset(debounce)
			case <-timer.C:
				onBuild(e.Build(gctx, cfg))
			}
		}
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
