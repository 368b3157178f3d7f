package types

import (
	"path"
	"strings"
)

// FileSystemPath is a location inside a named file system. Path is slash
// separated, relative to the file system root and never starts with "/".
// The empty Path denotes the root itself.
type FileSystemPath struct {
	FS   string
	Path string
}

// NewPath builds a FileSystemPath from a slash separated path, absolute or
// relative. The result is cleaned.
func NewPath(fs, p string) FileSystemPath {
	return FileSystemPath{FS: fs, Path: cleanPath(p)}
}

func cleanPath(p string) string {
	p = path.Clean("/" + strings.ReplaceAll(p, "\\", "/"))
	return strings.TrimPrefix(p, "/")
}

// Join appends the given elements to the path.
func (p FileSystemPath) Join(elem ...string) FileSystemPath {
	parts := append([]string{p.Path}, elem...)
	return FileSystemPath{FS: p.FS, Path: cleanPath(path.Join(parts...))}
}

// Parent returns the directory containing the path. The parent of the root is
// the root.
func (p FileSystemPath) Parent() FileSystemPath {
	dir := path.Dir(p.Path)
	if dir == "." {
		dir = ""
	}
	return FileSystemPath{FS: p.FS, Path: dir}
}

// Base returns the last element of the path.
func (p FileSystemPath) Base() string {
	if p.Path == "" {
		return ""
	}
	return path.Base(p.Path)
}

// Extension returns the file extension including the dot, or "".
func (p FileSystemPath) Extension() string {
	return path.Ext(p.Path)
}

// IsRoot reports whether p is the root of its file system.
func (p FileSystemPath) IsRoot() bool {
	return p.Path == ""
}

// IsInside reports whether p is strictly below root.
func (p FileSystemPath) IsInside(root FileSystemPath) bool {
	if p.FS != root.FS || p.Path == root.Path {
		return false
	}
	if root.Path == "" {
		return true
	}
	return strings.HasPrefix(p.Path, root.Path+"/")
}

// GetPathTo returns target relative to p when target is p itself or one of its
// descendants on the same file system. It returns false otherwise.
func (p FileSystemPath) GetPathTo(target FileSystemPath) (string, bool) {
	if p.FS != target.FS {
		return "", false
	}
	if p.Path == "" {
		return target.Path, true
	}
	if target.Path == p.Path {
		return "", true
	}
	if rest, ok := strings.CutPrefix(target.Path, p.Path+"/"); ok {
		return rest, true
	}
	return "", false
}

// String renders the path as "[fs]/path".
func (p FileSystemPath) String() string {
	return "[" + p.FS + "]/" + p.Path
}
