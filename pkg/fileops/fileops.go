// Package fileops provides the copy and remove primitives the sync engine
// applies to single entries.
package fileops

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/joe/servatio/pkg/filesystem"
)

// Exported constants.
const (
	// BufferSize is the size of the buffer used for file copy operations (64KB)
	BufferSize = 64 * 1024
	// DefaultDirPermissions is the default permission mode for created directories
	DefaultDirPermissions = 0o750
)

// Exported variables.
var (
	ErrNotRegular = errors.New("not a regular file")
)

// CopyFile copies a single file from src to dst, replacing dst if it exists.
// Size, permission bits and modification time are carried over so a later
// size+mtime comparison sees the two files as equal.
// Returns the number of bytes written.
func CopyFile(fsys filesystem.FileSystem, src, dst string) (int64, error) {
	sourceFile, err := fsys.Open(src)
	if err != nil {
		return 0, fmt.Errorf("failed to open source file %s: %w", src, err)
	}

	defer func() {
		_ = sourceFile.Close()
	}()

	sourceInfo, err := sourceFile.Stat()
	if err != nil {
		return 0, fmt.Errorf("failed to stat source file %s: %w", src, err)
	}

	if sourceInfo.IsDir() {
		return 0, fmt.Errorf("%s: %w", src, ErrNotRegular)
	}

	dstDir := filepath.Dir(dst)

	err = fsys.MkdirAll(dstDir, DefaultDirPermissions)
	if err != nil {
		return 0, fmt.Errorf("failed to create destination directory %s: %w", dstDir, err)
	}

	destFile, err := fsys.Create(dst)
	if err != nil {
		return 0, fmt.Errorf("failed to create destination file %s: %w", dst, err)
	}

	buf := make([]byte, BufferSize)

	written, err := io.CopyBuffer(onlyWriter{destFile}, onlyReader{sourceFile}, buf)
	if err != nil {
		_ = destFile.Close()

		return written, fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}

	// Close before touching metadata: some filesystems bump mtime on close.
	err = destFile.Close()
	if err != nil {
		return written, fmt.Errorf("failed to finish writing %s: %w", dst, err)
	}

	err = fsys.Chmod(dst, sourceInfo.Mode().Perm())
	if err != nil {
		return written, fmt.Errorf("failed to preserve permissions for %s: %w", dst, err)
	}

	err = fsys.Chtimes(dst, sourceInfo.ModTime(), sourceInfo.ModTime())
	if err != nil {
		return written, fmt.Errorf("failed to preserve modification time for %s: %w", dst, err)
	}

	return written, nil
}

// CopyDirMetadata applies the permission bits and modification time of the
// source directory to an already created destination directory.
func CopyDirMetadata(fsys filesystem.FileSystem, src, dst string) error {
	info, err := fsys.Stat(src)
	if err != nil {
		return fmt.Errorf("failed to stat source directory %s: %w", src, err)
	}

	err = fsys.Chmod(dst, info.Mode().Perm()|0o700)
	if err != nil {
		return fmt.Errorf("failed to preserve permissions for %s: %w", dst, err)
	}

	err = fsys.Chtimes(dst, info.ModTime(), info.ModTime())
	if err != nil {
		return fmt.Errorf("failed to preserve modification time for %s: %w", dst, err)
	}

	return nil
}

// Remove deletes a destination entry: files and symlinks are unlinked,
// directories are removed recursively.
func Remove(fsys filesystem.FileSystem, path string) error {
	info, err := fsys.Lstat(path)
	if err != nil {
		return fmt.Errorf("failed to inspect %s before removal: %w", path, err)
	}

	if info.IsDir() {
		return fsys.RemoveAll(path)
	}

	return fsys.Remove(path)
}

// onlyReader and onlyWriter hide ReaderFrom/WriterTo so io.CopyBuffer uses
// the supplied buffer.
type onlyReader struct{ io.Reader }

type onlyWriter struct{ io.Writer }
