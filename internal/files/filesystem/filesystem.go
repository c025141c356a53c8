package filesystem

import (
	"io"
	"io/fs"
)

// FileInfo is an alias for fs.FileInfo from the standard library.
type FileInfo = fs.FileInfo

// FileSystemProvider is the read-only view of a filesystem csvlab needs.
type FileSystemProvider interface {
	// ReadDir returns the entries of the directory at path, sorted by name.
	// It does not descend into subdirectories.
	ReadDir(path string) ([]FileInfo, error)

	// ReadFile reads a whole file.
	ReadFile(path string) ([]byte, error)

	// Open opens a file for streaming reads. The caller closes it.
	Open(path string) (io.ReadCloser, error)

	// Stat returns file information for the given path.
	Stat(path string) (FileInfo, error)
}
