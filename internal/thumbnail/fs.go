package thumbnail

import (
	"os"

	"media-gallery/internal/filesystem"
)

// FileSystem is the read-only view of the media library the service needs.
type FileSystem interface {
	Stat(path string) (os.FileInfo, error)
	// ReadDir lists the immediate children of path in listing order.
	ReadDir(path string) ([]os.DirEntry, error)
	ReadFile(path string) ([]byte, error)
}

// OSFileSystem reads the local filesystem, retrying NFS stale handles.
type OSFileSystem struct {
	Retry filesystem.RetryConfig
}

// NewOSFileSystem returns an OSFileSystem with the default retry policy.
func NewOSFileSystem() *OSFileSystem {
	return &OSFileSystem{Retry: filesystem.DefaultRetryConfig()}
}

func (f *OSFileSystem) Stat(path string) (os.FileInfo, error) {
	return filesystem.StatWithRetry(path, f.Retry)
}

// ReadDir returns entries sorted by name, as os.ReadDir does.
func (f *OSFileSystem) ReadDir(path string) ([]os.DirEntry, error) {
	return filesystem.ReadDirWithRetry(path, f.Retry)
}

func (f *OSFileSystem) ReadFile(path string) ([]byte, error) {
	return filesystem.ReadFileWithRetry(path, f.Retry)
}
