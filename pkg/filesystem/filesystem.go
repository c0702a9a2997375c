// Package filesystem provides an abstraction layer for filesystem operations
// so the sync engine can run against the real disk or an in-memory tree.
package filesystem

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
)

// File is an interface that abstracts file operations.
type File interface {
	io.Reader
	io.Writer
	io.Closer
	Stat() (os.FileInfo, error)
}

// FileSystem is an interface that abstracts filesystem operations.
type FileSystem interface {
	// Scan returns an iterator over every entry below path (path itself excluded).
	Scan(path string) FileScanner

	// ReadDir lists the immediate children of a directory, sorted by name.
	ReadDir(path string) ([]os.FileInfo, error)

	Open(path string) (File, error)
	Create(path string) (File, error)
	MkdirAll(path string, perm os.FileMode) error
	Chtimes(path string, atime, mtime time.Time) error
	Chmod(path string, mode os.FileMode) error
	Remove(path string) error
	RemoveAll(path string) error
	Stat(path string) (os.FileInfo, error)
	Lstat(path string) (os.FileInfo, error)
}

// AferoFileSystem implements FileSystem on top of an afero.Fs.
type AferoFileSystem struct {
	fs afero.Fs
}

// New wraps an afero filesystem.
func New(fs afero.Fs) *AferoFileSystem {
	return &AferoFileSystem{fs: fs}
}

// NewRealFileSystem creates a FileSystem backed by the operating system.
func NewRealFileSystem() *AferoFileSystem {
	return New(afero.NewOsFs())
}

// NewMemFileSystem creates an empty in-memory FileSystem.
func NewMemFileSystem() *AferoFileSystem {
	return New(afero.NewMemMapFs())
}

// Afero returns the underlying afero filesystem.
func (a *AferoFileSystem) Afero() afero.Fs {
	return a.fs
}

// Chmod changes the permission bits of a file.
func (a *AferoFileSystem) Chmod(path string, mode os.FileMode) error {
	err := a.fs.Chmod(path, mode)
	if err != nil {
		return fmt.Errorf("failed to change mode for %s: %w", path, err)
	}

	return nil
}

// Chtimes changes the access and modification times of a file.
func (a *AferoFileSystem) Chtimes(path string, atime, mtime time.Time) error {
	err := a.fs.Chtimes(path, atime, mtime)
	if err != nil {
		return fmt.Errorf("failed to change times for %s: %w", path, err)
	}

	return nil
}

// Create creates a file for writing, truncating an existing one.
func (a *AferoFileSystem) Create(path string) (File, error) {
	file, err := a.fs.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}

	return file, nil
}

// Lstat returns file information without following a trailing symlink when
// the backing filesystem supports it.
func (a *AferoFileSystem) Lstat(path string) (os.FileInfo, error) {
	if lstater, ok := a.fs.(afero.Lstater); ok {
		info, _, err := lstater.LstatIfPossible(path)
		if err != nil {
			return nil, fmt.Errorf("failed to lstat %s: %w", path, err)
		}

		return info, nil
	}

	return a.Stat(path)
}

// MkdirAll creates a directory and all necessary parents.
func (a *AferoFileSystem) MkdirAll(path string, perm os.FileMode) error {
	err := a.fs.MkdirAll(path, perm)
	if err != nil {
		return fmt.Errorf("failed to create directory %s: %w", path, err)
	}

	return nil
}

// Open opens a file for reading.
func (a *AferoFileSystem) Open(path string) (File, error) {
	file, err := a.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	return file, nil
}

// ReadDir lists the immediate children of a directory.
func (a *AferoFileSystem) ReadDir(path string) ([]os.FileInfo, error) {
	entries, err := afero.ReadDir(a.fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", path, err)
	}

	return entries, nil
}

// Remove removes a file or empty directory.
func (a *AferoFileSystem) Remove(path string) error {
	err := a.fs.Remove(path)
	if err != nil {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}

	return nil
}

// RemoveAll removes a path and everything below it.
func (a *AferoFileSystem) RemoveAll(path string) error {
	err := a.fs.RemoveAll(path)
	if err != nil {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}

	return nil
}

// Scan returns an iterator over all entries in a directory tree.
func (a *AferoFileSystem) Scan(path string) FileScanner {
	return newWalkScanner(path, walkAdapter{fsys: a})
}

// Stat returns file information, following symlinks.
func (a *AferoFileSystem) Stat(path string) (os.FileInfo, error) {
	info, err := a.fs.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	return info, nil
}

// ScanFollowingLinks is like Scan but reports symlinks as their targets and
// descends into linked directories. Broken links are left out.
func ScanFollowingLinks(fsys FileSystem, path string) FileScanner {
	return newWalkScanner(path, walkAdapter{fsys: fsys, follow: true})
}

// walkAdapter satisfies the kr/fs FileSystem interface.
type walkAdapter struct {
	fsys   FileSystem
	follow bool
}

func (w walkAdapter) Join(elem ...string) string { return filepath.Join(elem...) }

func (w walkAdapter) Lstat(name string) (os.FileInfo, error) {
	if w.follow {
		return w.fsys.Stat(name)
	}

	return w.fsys.Lstat(name)
}

func (w walkAdapter) ReadDir(dirname string) ([]os.FileInfo, error) {
	infos, err := w.fsys.ReadDir(dirname)
	if err != nil || !w.follow {
		return infos, err
	}

	resolved := infos[:0]

	for _, info := range infos {
		if info.Mode()&os.ModeSymlink != 0 {
			target, statErr := w.fsys.Stat(filepath.Join(dirname, info.Name()))
			if statErr != nil {
				continue
			}

			info = namedInfo{FileInfo: target, name: info.Name()}
		}

		resolved = append(resolved, info)
	}

	return resolved, nil
}

// namedInfo reports a link target under the link's own name.
type namedInfo struct {
	os.FileInfo
	name string
}

func (n namedInfo) Name() string { return n.name }
