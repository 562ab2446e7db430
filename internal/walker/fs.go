package walker

import (
	"io/fs"
	"os"
)

// FS is the filesystem surface the walker needs. The indirection exists so
// tests can count directory reads and inject per-entry failures; production
// walks use the operating system.
type FS interface {
	// Lstat returns metadata for name without following symlinks.
	Lstat(name string) (fs.FileInfo, error)
	// ReadDir returns the entries of the named directory, sorted by name.
	ReadDir(name string) ([]fs.DirEntry, error)
}

// osFS is the real filesystem.
type osFS struct{}

func (osFS) Lstat(name string) (fs.FileInfo, error)     { return os.Lstat(name) }
func (osFS) ReadDir(name string) ([]fs.DirEntry, error) { return os.ReadDir(name) }
