package tasks

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheSize is the number of results kept when Config.CacheSize is unset
const DefaultCacheSize = 50000

// Config configures an Engine
type Config struct {
	CacheSize int         // Maximum cached results (default: DefaultCacheSize)
	Logger    *log.Logger // Optional; debug output for invalidations
}

// Stats is a snapshot of engine counters
type Stats struct {
	Hits          int64
	Misses        int64
	Coalesced     int64
	Invalidations int64
	Cached        int
}

// Engine memoizes computations by Key, coalesces concurrent identical
// requests and invalidates results together with everything that read them.
type Engine struct {
	cache  *lru.Cache[Key, any]
	group  singleflight.Group
	logger *log.Logger

	mu          sync.Mutex
	dependents  map[Key]map[Key]struct{} // child -> parents that read it
	keys        map[Key]struct{}         // every key ever computed and not invalidated
	generations map[Key]uint64

	hits          atomic.Int64
	misses        atomic.Int64
	coalesced     atomic.Int64
	invalidations atomic.Int64
}

// New creates an Engine
func New(cfg Config) *Engine {
	size := cfg.CacheSize
	if size <= 0 {
		size = DefaultCacheSize
	}
	e := &Engine{
		logger:      cfg.Logger,
		dependents:  make(map[Key]map[Key]struct{}),
		keys:        make(map[Key]struct{}),
		generations: make(map[Key]uint64),
	}
	cache, err := lru.New[Key, any](size)
	if err != nil {
		// Only fails for non-positive sizes, which were replaced above
		panic("tasks: cache initialization failed: " + err.Error())
	}
	e.cache = cache
	return e
}

type engineKey struct{}

type parentKey struct{}

// WithEngine returns a context that carries e. Memo calls made under the
// returned context are cached by e.
func WithEngine(ctx context.Context, e *Engine) context.Context {
	return context.WithValue(ctx, engineKey{}, e)
}

// FromContext returns the engine carried by ctx, or nil.
func FromContext(ctx context.Context) *Engine {
	e, _ := ctx.Value(engineKey{}).(*Engine)
	return e
}

// Memo returns the cached result for key or computes it with fn. Concurrent
// callers with the same key share one computation. Errors are returned to
// every waiting caller but never cached. Without an engine in ctx, fn runs
// directly.
//
// When Memo runs inside another Memo computation, the outer key is recorded
// as a dependent of key, so invalidating key also invalidates the outer one.
func Memo[T any](ctx context.Context, key Key, fn func(ctx context.Context) (T, error)) (T, error) {
	e := FromContext(ctx)
	if e == nil {
		return fn(ctx)
	}

	if parent, ok := ctx.Value(parentKey{}).(Key); ok && parent != key {
		e.addDependent(key, parent)
	}

	if v, ok := e.cache.Get(key); ok {
		e.hits.Add(1)
		t, _ := v.(T)
		return t, nil
	}

	v, err, shared := e.group.Do(key.String(), func() (any, error) {
		if v, ok := e.cache.Get(key); ok {
			return v, nil
		}
		e.misses.Add(1)
		gen := e.generation(key)

		out, err := fn(context.WithValue(ctx, parentKey{}, key))
		if err != nil {
			return nil, err
		}
		e.store(key, gen, out)
		return out, nil
	})
	if shared {
		e.coalesced.Add(1)
	}
	if err != nil {
		var zero T
		return zero, err
	}
	t, _ := v.(T)
	return t, nil
}

// store caches a result unless key was invalidated while it was computing
func (e *Engine) store(key Key, gen uint64, v any) {
	e.mu.Lock()
	current := e.generations[key]
	if current == gen {
		e.keys[key] = struct{}{}
	}
	e.mu.Unlock()

	if current == gen {
		e.cache.Add(key, v)
	}
}

func (e *Engine) generation(key Key) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.generations[key]
}

func (e *Engine) addDependent(child, parent Key) {
	e.mu.Lock()
	defer e.mu.Unlock()
	set, ok := e.dependents[child]
	if !ok {
		set = make(map[Key]struct{})
		e.dependents[child] = set
	}
	set[parent] = struct{}{}
}

// Invalidate evicts key and, transitively, every result that read it.
// It returns the number of evicted keys.
func (e *Engine) Invalidate(key Key) int {
	return e.invalidate([]Key{key})
}

// InvalidateWhere evicts every known key for which match returns true,
// together with its dependents.
func (e *Engine) InvalidateWhere(match func(op, subject string) bool) int {
	e.mu.Lock()
	var roots []Key
	for k := range e.keys {
		if match(k.op, k.subject) {
			roots = append(roots, k)
		}
	}
	e.mu.Unlock()
	return e.invalidate(roots)
}

func (e *Engine) invalidate(roots []Key) int {
	e.mu.Lock()
	seen := make(map[Key]struct{})
	queue := append([]Key(nil), roots...)
	for len(queue) > 0 {
		k := queue[0]
		queue = queue[1:]
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		for parent := range e.dependents[k] {
			queue = append(queue, parent)
		}
		delete(e.dependents, k)
		delete(e.keys, k)
		e.generations[k]++
	}
	e.mu.Unlock()

	// Cache calls happen outside e.mu; the LRU has its own lock.
	for k := range seen {
		e.cache.Remove(k)
		e.group.Forget(k.String())
	}
	e.invalidations.Add(int64(len(seen)))
	if e.logger != nil && len(seen) > 0 {
		e.logger.Debug("invalidated tasks", "roots", len(roots), "evicted", len(seen))
	}
	return len(seen)
}

// Purge drops every cached result
func (e *Engine) Purge() {
	e.mu.Lock()
	for k := range e.keys {
		e.generations[k]++
	}
	e.dependents = make(map[Key]map[Key]struct{})
	e.keys = make(map[Key]struct{})
	e.mu.Unlock()
	e.cache.Purge()
}

// Stats returns a snapshot of the engine counters
func (e *Engine) Stats() Stats {
	return Stats{
		Hits:          e.hits.Load(),
		Misses:        e.misses.Load(),
		Coalesced:     e.coalesced.Load(),
		Invalidations: e.invalidations.Load(),
		Cached:        e.cache.Len(),
	}
}
