// Package fs provides the file systems the bundler reads sources from.
//
// Paths are types.FileSystemPath values tagged with the file system name, so
// a path from the output tree can never be read from the project tree by
// accident. DiskFileSystem is backed by a directory and can watch it with
// fsnotify; MemoryFileSystem backs tests and dry runs.
package fs
