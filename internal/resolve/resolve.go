package resolve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dshills/chunkgraph/internal/fs"
	"github.com/dshills/chunkgraph/internal/tasks"
	"github.com/dshills/chunkgraph/pkg/types"
)

// ResolveOp labels memoized resolutions. The subject is the importing
// directory.
const ResolveOp = "resolve"

// DefaultExtensions are probed, in order, for specifiers without a file
var DefaultExtensions = []string{".js", ".jsx", ".mjs", ".cjs", ".ts", ".tsx"}

// Resolver implements the subset of the node resolution algorithm needed for
// browser bundles
type Resolver struct {
	fs         fs.FileSystem
	extensions []string
}

// New creates a resolver over fsys. Nil extensions select DefaultExtensions.
func New(fsys fs.FileSystem, extensions []string) *Resolver {
	if extensions == nil {
		extensions = DefaultExtensions
	}
	return &Resolver{fs: fsys, extensions: extensions}
}

// FileSystem returns the file system the resolver reads
func (r *Resolver) FileSystem() fs.FileSystem {
	return r.fs
}

// Resolve returns the file that specifier, imported from a module in
// fromDir, refers to. Failures wrap types.ErrUnresolved.
func (r *Resolver) Resolve(ctx context.Context, fromDir types.FileSystemPath, specifier string) (types.FileSystemPath, error) {
	if specifier == "" {
		return types.FileSystemPath{}, types.ErrEmptySpecifier
	}
	key := tasks.NewKey(ResolveOp, fromDir.String(), specifier)
	return tasks.Memo(ctx, key, func(ctx context.Context) (types.FileSystemPath, error) {
		return r.resolve(ctx, fromDir, specifier)
	})
}

func (r *Resolver) resolve(ctx context.Context, fromDir types.FileSystemPath, specifier string) (types.FileSystemPath, error) {
	var candidates []types.FileSystemPath
	switch {
	case isRelative(specifier):
		candidates = append(candidates, fromDir.Join(specifier))
	case strings.HasPrefix(specifier, "/"):
		candidates = append(candidates, r.fs.Root().Join(specifier))
	default:
		for dir := fromDir; ; dir = dir.Parent() {
			if dir.Base() != "node_modules" {
				candidates = append(candidates, dir.Join("node_modules", specifier))
			}
			if dir.IsRoot() {
				break
			}
		}
	}

	for _, c := range candidates {
		p, ok, err := r.loadAsFile(ctx, c)
		if err != nil {
			return types.FileSystemPath{}, err
		}
		if ok {
			return p, nil
		}
		p, ok, err = r.loadAsDirectory(ctx, c)
		if err != nil {
			return types.FileSystemPath{}, err
		}
		if ok {
			return p, nil
		}
	}
	return types.FileSystemPath{}, fmt.Errorf("%w: %q from %s", types.ErrUnresolved, specifier, fromDir)
}

func isRelative(specifier string) bool {
	return specifier == "." || specifier == ".." ||
		strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../")
}

func (r *Resolver) isFile(ctx context.Context, p types.FileSystemPath) (bool, error) {
	info, err := r.fs.Stat(ctx, p)
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", p, err)
	}
	return info.Exists && !info.IsDir, nil
}

func (r *Resolver) loadAsFile(ctx context.Context, p types.FileSystemPath) (types.FileSystemPath, bool, error) {
	if p.IsRoot() {
		return types.FileSystemPath{}, false, nil
	}
	ok, err := r.isFile(ctx, p)
	if err != nil || ok {
		return p, ok, err
	}
	for _, ext := range r.extensions {
		c := types.FileSystemPath{FS: p.FS, Path: p.Path + ext}
		ok, err := r.isFile(ctx, c)
		if err != nil || ok {
			return c, ok, err
		}
	}
	return types.FileSystemPath{}, false, nil
}

type packageJSON struct {
	Main string `json:"main"`
}

func (r *Resolver) loadAsDirectory(ctx context.Context, dir types.FileSystemPath) (types.FileSystemPath, bool, error) {
	data, err := r.fs.Read(ctx, dir.Join("package.json"))
	switch {
	case errors.Is(err, types.ErrNotFound):
	case err != nil:
		return types.FileSystemPath{}, false, err
	default:
		var pkg packageJSON
		if err := json.Unmarshal(data, &pkg); err != nil {
			return types.FileSystemPath{}, false, fmt.Errorf("failed to parse %s: %w", dir.Join("package.json"), err)
		}
		if pkg.Main != "" {
			main := dir.Join(pkg.Main)
			if p, ok, err := r.loadAsFile(ctx, main); err != nil || ok {
				return p, ok, err
			}
			if p, ok, err := r.loadIndex(ctx, main); err != nil || ok {
				return p, ok, err
			}
		}
	}
	return r.loadIndex(ctx, dir)
}

func (r *Resolver) loadIndex(ctx context.Context, dir types.FileSystemPath) (types.FileSystemPath, bool, error) {
	for _, ext := range r.extensions {
		c := dir.Join("index" + ext)
		ok, err := r.isFile(ctx, c)
		if err != nil || ok {
			return c, ok, err
		}
	}
	return types.FileSystemPath{}, false, nil
}
