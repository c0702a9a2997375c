// Package space estimates whether a destination can hold a source tree.
package space

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/joe/servatio/pkg/filesystem"
)

// ErrUnsupported is returned by FreeSpace on platforms without a free-space query.
var ErrUnsupported = errors.New("free space query not supported on this platform")

// FreeSpaceFunc reports the free bytes available to the current user at path.
type FreeSpaceFunc func(path string) (uint64, error)

// Advisory is the outcome of a space check. It never blocks a run.
type Advisory struct {
	Required  uint64
	Available uint64
	// Known is false when the free space could not be determined.
	Known bool
	Err   error
}

// Sufficient reports whether the destination has room for the source.
// An unknown amount of free space is treated as sufficient.
func (a Advisory) Sufficient() bool {
	return !a.Known || a.Available >= a.Required
}

// Estimator compares source size against destination free space.
type Estimator struct {
	FS   filesystem.FileSystem
	Free FreeSpaceFunc
}

// NewEstimator creates an Estimator over fsys using the platform free-space query.
func NewEstimator(fsys filesystem.FileSystem) *Estimator {
	return &Estimator{FS: fsys, Free: FreeSpace}
}

// Estimate sums the source tree and queries free space on the destination volume.
func (e *Estimator) Estimate(source, destination string) Advisory {
	advisory := Advisory{Required: uint64(FolderSize(e.FS, source))} //nolint:gosec // FolderSize is never negative

	available, err := e.Free(destination)
	if err != nil {
		advisory.Err = err

		return advisory
	}

	advisory.Available = available
	advisory.Known = true

	return advisory
}

// FolderSize returns the total size in bytes of the regular files below path.
// Unreadable entries contribute zero; a missing path has size zero.
func FolderSize(fsys filesystem.FileSystem, path string) int64 {
	scanner := fsys.Scan(path)

	var total int64

	for {
		info, ok := scanner.Next()
		if !ok {
			return total
		}

		if !info.IsDir {
			total += info.Size
		}
	}
}

// FreeSpace reports the bytes available at path. A path that does not exist
// yet is measured at its deepest existing ancestor.
func FreeSpace(path string) (uint64, error) {
	return freeSpace(existingAncestor(path))
}

func existingAncestor(path string) string {
	current := filepath.Clean(path)

	for {
		if _, err := os.Stat(current); err == nil {
			return current
		}

		parent := filepath.Dir(current)
		if parent == current {
			return current
		}

		current = parent
	}
}
