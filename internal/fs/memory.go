package fs

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/dshills/chunkgraph/pkg/types"
)

// MemoryFileSystem keeps files in memory. Directories exist implicitly when
// a file lives below them.
type MemoryFileSystem struct {
	name string

	mu    sync.RWMutex
	files map[string][]byte
}

// NewMemoryFileSystem creates an empty in-memory file system
func NewMemoryFileSystem(name string) *MemoryFileSystem {
	return &MemoryFileSystem{name: name, files: make(map[string][]byte)}
}

func (m *MemoryFileSystem) Name() string { return m.name }

func (m *MemoryFileSystem) Root() types.FileSystemPath {
	return types.FileSystemPath{FS: m.name}
}

// Write stores a file. p may be written with or without a leading slash.
func (m *MemoryFileSystem) Write(p string, content string) types.FileSystemPath {
	fp := types.NewPath(m.name, p)
	m.mu.Lock()
	m.files[fp.Path] = []byte(content)
	m.mu.Unlock()
	return fp
}

// Remove deletes a file
func (m *MemoryFileSystem) Remove(p string) {
	fp := types.NewPath(m.name, p)
	m.mu.Lock()
	delete(m.files, fp.Path)
	m.mu.Unlock()
}

// Files lists every stored path in sorted order
func (m *MemoryFileSystem) Files() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.files))
	for p := range m.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func (m *MemoryFileSystem) Read(ctx context.Context, p types.FileSystemPath) ([]byte, error) {
	if p.FS != m.name {
		return nil, fmt.Errorf("%w: %s", ErrWrongFileSystem, p)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[p.Path]
	if !ok {
		return nil, fmt.Errorf("read %s: %w", p, types.ErrNotFound)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (m *MemoryFileSystem) Stat(ctx context.Context, p types.FileSystemPath) (FileInfo, error) {
	if p.FS != m.name {
		return FileInfo{}, fmt.Errorf("%w: %s", ErrWrongFileSystem, p)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if data, ok := m.files[p.Path]; ok {
		return FileInfo{Exists: true, Size: int64(len(data))}, nil
	}
	if p.Path == "" {
		return FileInfo{Exists: true, IsDir: true}, nil
	}
	prefix := p.Path + "/"
	for f := range m.files {
		if strings.HasPrefix(f, prefix) {
			return FileInfo{Exists: true, IsDir: true}, nil
		}
	}
	return FileInfo{}, nil
}
