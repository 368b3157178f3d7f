package fs

import (
	"context"
	"errors"

	"github.com/dshills/chunkgraph/pkg/types"
)

var (
	// ErrWrongFileSystem is returned when a path belongs to another file system
	ErrWrongFileSystem = errors.New("path belongs to a different file system")
)

// FileInfo describes a path on a FileSystem
type FileInfo struct {
	Exists bool
	IsDir  bool
	Size   int64
}

// FileSystem is a named tree of files addressed by types.FileSystemPath
type FileSystem interface {
	// Name is the file system name carried by every path it owns
	Name() string

	// Root returns the root path of the file system
	Root() types.FileSystemPath

	// Read returns file contents; missing files yield an error wrapping
	// types.ErrNotFound
	Read(ctx context.Context, p types.FileSystemPath) ([]byte, error)

	// Stat describes a path. A missing path is not an error.
	Stat(ctx context.Context, p types.FileSystemPath) (FileInfo, error)
}

// Op is a file change kind reported by watchers
type Op int

const (
	OpWrite Op = iota
	OpCreate
	OpRemove
	OpRename
)

func (o Op) String() string {
	switch o {
	case OpWrite:
		return "write"
	case OpCreate:
		return "create"
	case OpRemove:
		return "remove"
	case OpRename:
		return "rename"
	default:
		return "unknown"
	}
}

// Event is a change to one path
type Event struct {
	Path types.FileSystemPath
	Op   Op
}
