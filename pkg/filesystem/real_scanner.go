package filesystem

import (
	"path/filepath"

	"github.com/kr/fs"
)

// walkScanner implements FileScanner on a kr/fs Walker. Unlike the walker
// itself it never surfaces per-entry errors to the caller; they are
// remembered and the entry is skipped.
type walkScanner struct {
	root    string
	walker  *fs.Walker
	err     error
	skipped int
	started bool
}

func newWalkScanner(root string, adapter fs.FileSystem) *walkScanner {
	return &walkScanner{
		root:   root,
		walker: fs.WalkFS(root, adapter),
	}
}

// Err returns the first error met while walking.
func (s *walkScanner) Err() error {
	return s.err
}

// Next advances to the next entry and returns its info.
func (s *walkScanner) Next() (FileInfo, bool) {
	for s.walker.Step() {
		if err := s.walker.Err(); err != nil {
			s.record(err)

			continue
		}

		// Skip the root directory itself
		if !s.started {
			s.started = true
			if s.walker.Path() == s.root {
				continue
			}
		}

		relPath, err := filepath.Rel(s.root, s.walker.Path())
		if err != nil {
			s.record(err)

			continue
		}

		info := s.walker.Stat()

		return FileInfo{
			RelativePath: relPath,
			Size:         info.Size(),
			ModTime:      info.ModTime(),
			IsDir:        info.IsDir(),
		}, true
	}

	return FileInfo{}, false
}

// SkipDir prevents descent into the directory last returned by Next.
func (s *walkScanner) SkipDir() {
	s.walker.SkipDir()
}

// Skipped reports how many entries were skipped because of errors.
func (s *walkScanner) Skipped() int {
	return s.skipped
}

func (s *walkScanner) record(err error) {
	s.skipped++
	if s.err == nil {
		s.err = err
	}
}
