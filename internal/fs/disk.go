package fs

import (
	"context"
	"errors"
	"fmt"
	iofs "io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/dshills/chunkgraph/pkg/types"
)

// DiskFileSystem exposes a directory on disk as a FileSystem
type DiskFileSystem struct {
	name string
	dir  string
}

// NewDiskFileSystem roots a file system named name at dir. dir is made
// absolute.
func NewDiskFileSystem(name, dir string) (*DiskFileSystem, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	return &DiskFileSystem{name: name, dir: abs}, nil
}

func (d *DiskFileSystem) Name() string { return d.name }

// Dir returns the absolute directory backing the file system
func (d *DiskFileSystem) Dir() string { return d.dir }

func (d *DiskFileSystem) Root() types.FileSystemPath {
	return types.FileSystemPath{FS: d.name}
}

// ToSys converts a path of this file system to an OS path
func (d *DiskFileSystem) ToSys(p types.FileSystemPath) (string, error) {
	if p.FS != d.name {
		return "", fmt.Errorf("%w: %s", ErrWrongFileSystem, p)
	}
	return filepath.Join(d.dir, filepath.FromSlash(p.Path)), nil
}

// FromSys converts an OS path below the root directory to a FileSystemPath
func (d *DiskFileSystem) FromSys(sys string) (types.FileSystemPath, bool) {
	rel, err := filepath.Rel(d.dir, sys)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return types.FileSystemPath{}, false
	}
	return types.NewPath(d.name, filepath.ToSlash(rel)), true
}

func (d *DiskFileSystem) Read(ctx context.Context, p types.FileSystemPath) ([]byte, error) {
	sys, err := d.ToSys(p)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(sys)
	if errors.Is(err, iofs.ErrNotExist) {
		return nil, fmt.Errorf("read %s: %w", p, types.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

func (d *DiskFileSystem) Stat(ctx context.Context, p types.FileSystemPath) (FileInfo, error) {
	sys, err := d.ToSys(p)
	if err != nil {
		return FileInfo{}, err
	}
	info, err := os.Stat(sys)
	if errors.Is(err, iofs.ErrNotExist) {
		return FileInfo{}, nil
	}
	if err != nil {
		return FileInfo{}, err
	}
	return FileInfo{Exists: true, IsDir: info.IsDir(), Size: info.Size()}, nil
}

// Watch reports changes below the root directory until ctx is done. Hidden
// directories and node_modules are not watched.
func (d *DiskFileSystem) Watch(ctx context.Context, logger *log.Logger, onChange func(Event)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := d.addTree(watcher, d.dir); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if logger != nil {
				logger.Warn("watch error", "err", err)
			}
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			p, inside := d.FromSys(ev.Name)
			if !inside || skipWatch(p.Path) {
				continue
			}
			op, relevant := translateOp(ev)
			if !relevant {
				continue
			}
			if op == OpCreate {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					_ = d.addTree(watcher, ev.Name)
				}
			}
			onChange(Event{Path: p, Op: op})
		}
	}
}

func (d *DiskFileSystem) addTree(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, entry iofs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() {
			return nil
		}
		if path != d.dir {
			if p, ok := d.FromSys(path); ok && skipWatch(p.Path) {
				return filepath.SkipDir
			}
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

func skipWatch(rel string) bool {
	for _, part := range strings.Split(rel, "/") {
		if part == "node_modules" || (strings.HasPrefix(part, ".") && part != "." && part != "..") {
			return true
		}
	}
	return false
}

func translateOp(ev fsnotify.Event) (Op, bool) {
	switch {
	case ev.Has(fsnotify.Create):
		return OpCreate, true
	case ev.Has(fsnotify.Remove):
		return OpRemove, true
	case ev.Has(fsnotify.Rename):
		return OpRename, true
	case ev.Has(fsnotify.Write):
		return OpWrite, true
	default:
		return 0, false
	}
}
