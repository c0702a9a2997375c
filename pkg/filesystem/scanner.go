package filesystem

import (
	"time"
)

// FileScanner is an iterator over the entries of a directory tree.
type FileScanner interface {
	// Next advances to the next entry and returns its info.
	// Returns (FileInfo{}, false) when the walk is exhausted.
	Next() (FileInfo, bool)

	// SkipDir prevents the scanner from descending into the directory most
	// recently returned by Next. It is a no-op for files.
	SkipDir()

	// Err returns the first error met while walking. Entries that could not be
	// read are skipped, so a non-nil Err does not mean the walk stopped early.
	Err() error

	// Skipped reports how many entries were skipped because of errors.
	Skipped() int
}

// FileInfo contains metadata about a scanned entry.
type FileInfo struct {
	// RelativePath is the path relative to the scan root, using the OS separator.
	RelativePath string

	// Size is the file size in bytes
	Size int64

	// ModTime is the modification time
	ModTime time.Time

	// IsDir indicates if this is a directory
	IsDir bool
}
