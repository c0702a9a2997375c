package syncengine

import (
	"os"
	"time"

	"github.com/joe/servatio/pkg/filesystem"
)

// ModTimeTolerance is the largest modification-time difference under which
// two files of equal size are treated as identical. It absorbs the coarse
// timestamp resolution of FAT and network filesystems.
const ModTimeTolerance = time.Second

// FilesEqual reports whether the destination file b already holds the content
// of the source file a. It never fails: a missing or unreadable side means the
// files are not equal and a copy is due.
func FilesEqual(fsys filesystem.FileSystem, a, b string) bool {
	infoA, err := fsys.Stat(a)
	if err != nil {
		return false
	}

	infoB, err := fsys.Stat(b)
	if err != nil {
		return false
	}

	return SameContentHeuristic(infoA, infoB)
}

// SameContentHeuristic compares two entries by size and modification time.
// Content is never read, so files edited within the same second without a
// size change look identical.
func SameContentHeuristic(a, b os.FileInfo) bool {
	if a.Size() != b.Size() {
		return false
	}

	diff := a.ModTime().Sub(b.ModTime())
	if diff < 0 {
		diff = -diff
	}

	return diff < ModTimeTolerance
}
