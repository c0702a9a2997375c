// Package syncengine mirrors a source directory tree onto a destination.
package syncengine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/joe/servatio/internal/task"
	apperrors "github.com/joe/servatio/pkg/errors"
	"github.com/joe/servatio/pkg/fileops"
	"github.com/joe/servatio/pkg/filesystem"
	"github.com/joe/servatio/pkg/pathguard"
)

// LogFunc receives one human-readable line per copy, delete or failure.
type LogFunc func(message string)

// ProgressFunc is called after the ProgressSnapshot advanced.
type ProgressFunc func()

// Engine runs mirror passes. It is not safe to run two passes that share a
// ProgressSnapshot at the same time.
type Engine struct {
	FS       filesystem.FileSystem
	Progress *ProgressSnapshot
	// Logger receives debug detail that is too noisy for the run log.
	Logger zerolog.Logger
	Hints  apperrors.Enricher
	// FoldNames pairs source and destination entries whose names differ
	// only in case, as the volume does on Windows and macOS.
	FoldNames bool
}

// NewEngine creates an engine over fsys. A nil fsys selects the real disk.
func NewEngine(fsys filesystem.FileSystem) *Engine {
	if fsys == nil {
		fsys = filesystem.NewRealFileSystem()
	}

	return &Engine{
		FS:        fsys,
		Progress:  NewProgressSnapshot(),
		Logger:    zerolog.Nop(),
		Hints:     apperrors.NewEnricher(),
		FoldNames: pathguard.CaseInsensitive,
	}
}

// CountFiles returns the number of non-excluded files below the task source.
// Excluded directories are not descended into. A missing source counts zero.
// Symlinks count as their targets, the way Mirror treats them.
func (e *Engine) CountFiles(t task.BackupTask) int {
	filter := NewExcluder(t.ExcludePatterns)
	scanner := filesystem.ScanFollowingLinks(e.FS, t.Source)

	count := 0

	for {
		info, ok := scanner.Next()
		if !ok {
			break
		}

		if filter.MatchRelative(filepath.ToSlash(info.RelativePath)) {
			if info.IsDir {
				scanner.SkipDir()
			}

			continue
		}

		if !info.IsDir {
			count++
		}
	}

	if err := scanner.Err(); err != nil {
		e.Logger.Debug().Err(err).Int("skipped", scanner.Skipped()).Str("source", t.Source).Msg("entries skipped while counting")
	}

	return count
}

// Mirror makes t.Destination a copy of t.Source. Per-entry failures are
// logged through onLog and counted in metrics; the walk always goes on with
// the next sibling. A cancelled ctx stops the walk between entries.
func (e *Engine) Mirror(ctx context.Context, t task.BackupTask, metrics *SyncMetrics, onLog LogFunc, onProgress ProgressFunc) {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}

	if onLog == nil {
		onLog = func(string) {}
	}

	if onProgress == nil {
		onProgress = func() {}
	}

	if e.Progress == nil {
		e.Progress = NewProgressSnapshot()
	}

	run := &mirrorRun{
		ctx:        ctx,
		engine:     e,
		task:       t,
		filter:     NewExcluder(t.ExcludePatterns),
		metrics:    metrics,
		onLog:      onLog,
		onProgress: onProgress,
	}

	info, err := e.FS.Stat(t.Source)
	if err != nil || !info.IsDir() {
		onLog("Source directory does not exist: " + t.Source)

		return
	}

	run.mirrorDir(t.Source, t.Destination)
}

// mirrorRun carries the state of one Mirror call through the recursion.
type mirrorRun struct {
	ctx        context.Context //nolint:containedctx // Scoped to a single Mirror call
	engine     *Engine
	task       task.BackupTask
	filter     *Excluder
	metrics    *SyncMetrics
	onLog      LogFunc
	onProgress ProgressFunc
	stopped    bool
}

type entry struct {
	name  string
	path  string
	isDir bool
}

func (r *mirrorRun) cancelled() bool {
	if r.stopped {
		return true
	}

	if err := r.ctx.Err(); err != nil {
		r.stopped = true
		r.onLog(fmt.Sprintf("Sync cancelled: %v", err))

		return true
	}

	return false
}

func (r *mirrorRun) mirrorDir(src, dst string) {
	if r.cancelled() {
		return
	}

	fsys := r.engine.FS

	err := fsys.MkdirAll(dst, fileops.DefaultDirPermissions)
	if err != nil {
		r.fail(fmt.Sprintf("Cannot create %s", dst), err, dst)

		return
	}

	srcEntries, err := r.list(src, true)
	if err != nil {
		r.fail(fmt.Sprintf("Cannot access %s or %s", src, dst), err, src)

		return
	}

	dstEntries, err := r.list(dst, false)
	if err != nil {
		r.fail(fmt.Sprintf("Cannot access %s or %s", src, dst), err, dst)

		return
	}

	dstByName := make(map[string]entry, len(dstEntries))
	for _, d := range dstEntries {
		dstByName[r.nameKey(d.name)] = d
	}

	srcNames := make(map[string]struct{}, len(srcEntries))

	for _, s := range srcEntries {
		srcNames[r.nameKey(s.name)] = struct{}{}

		if r.cancelled() {
			return
		}

		target := filepath.Join(dst, s.name)
		existing, found := dstByName[r.nameKey(s.name)]
		if found && !existing.isDir && !s.isDir {
			target = existing.path
		}

		switch {
		case !found:
			r.copyEntry(s, target)
		case s.isDir && existing.isDir:
			r.mirrorDir(s.path, existing.path)
		case !s.isDir && !existing.isDir:
			if FilesEqual(fsys, s.path, existing.path) {
				r.skipUpToDate(s.path)
			} else {
				r.copyEntry(s, target)
			}
		default:
			if r.remove(existing.path) {
				r.copyEntry(s, target)
			} else if s.isDir {
				r.abandonTree(s.path)
			} else {
				r.advance(s.path)
			}
		}
	}

	if !r.task.DeleteExtra {
		return
	}

	for _, d := range dstEntries {
		if _, ok := srcNames[r.nameKey(d.name)]; ok {
			continue
		}

		if r.cancelled() {
			return
		}

		if !r.task.DeleteExcluded && r.destinationExcluded(d.path) {
			r.engine.Logger.Debug().Str("path", d.path).Msg("kept excluded destination entry")

			continue
		}

		r.remove(d.path)
	}
}

func (r *mirrorRun) nameKey(name string) string {
	if r.engine.FoldNames {
		return strings.ToLower(name)
	}

	return name
}

// list returns the children of dir. Source listings drop excluded entries.
// Entries are classified through Stat so symlinks count as their target.
func (r *mirrorRun) list(dir string, source bool) ([]entry, error) {
	infos, err := r.engine.FS.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	entries := make([]entry, 0, len(infos))

	for _, info := range infos {
		path := filepath.Join(dir, info.Name())

		if source && r.filter.IsExcluded(path, r.task.Source) {
			r.engine.Logger.Debug().Str("path", path).Msg("excluded")

			continue
		}

		isDir := info.IsDir()

		if info.Mode()&os.ModeSymlink != 0 {
			target, statErr := r.engine.FS.Stat(path)
			if statErr == nil {
				isDir = target.IsDir()
			} else if source {
				r.fail("Cannot read "+path, statErr, path)

				continue
			}
		}

		entries = append(entries, entry{name: info.Name(), path: path, isDir: isDir})
	}

	return entries, nil
}

func (r *mirrorRun) copyEntry(s entry, target string) {
	if s.isDir {
		r.copyDir(s.path, target)

		return
	}

	size, err := fileops.CopyFile(r.engine.FS, s.path, target)
	if err != nil {
		r.fail(fmt.Sprintf("Error copying %s → %s", s.path, target), err, s.path)
		r.advance(s.path)

		return
	}

	r.metrics.AddCopied(size)
	r.onLog(fmt.Sprintf("Copied: %s → %s", s.path, target))
	r.advance(s.path)
}

// copyDir copies a directory absent from the destination. It recurses so
// exclusions apply below it and every file is counted. A new directory whose
// whole content is excluded is not left behind.
func (r *mirrorRun) copyDir(src, dst string) {
	err := r.engine.FS.MkdirAll(dst, fileops.DefaultDirPermissions)
	if err != nil {
		r.fail(fmt.Sprintf("Error copying %s → %s", src, dst), err, dst)
		r.abandonTree(src)

		return
	}

	r.mirrorDir(src, dst)

	if r.stopped {
		return
	}

	if r.onlyExcludedContent(src, dst) {
		_ = r.engine.FS.Remove(dst)
		r.engine.Logger.Debug().Str("path", src).Msg("new directory holds only excluded entries")

		return
	}

	err = fileops.CopyDirMetadata(r.engine.FS, src, dst)
	if err != nil {
		r.fail(fmt.Sprintf("Error copying %s → %s", src, dst), err, dst)

		return
	}

	r.onLog(fmt.Sprintf("Copied: %s → %s", src, dst))
}

// onlyExcludedContent reports whether a freshly mirrored dst stayed empty
// because everything below src is excluded. A dst left empty by failed
// copies does not qualify.
func (r *mirrorRun) onlyExcludedContent(src, dst string) bool {
	copied, err := r.engine.FS.ReadDir(dst)
	if err != nil || len(copied) > 0 {
		return false
	}

	return r.excludedTree(src)
}

// excludedTree reports whether dir has children and each of them is either
// excluded or a directory for which excludedTree holds.
func (r *mirrorRun) excludedTree(dir string) bool {
	fsys := r.engine.FS

	children, err := fsys.ReadDir(dir)
	if err != nil || len(children) == 0 {
		return false
	}

	for _, child := range children {
		path := filepath.Join(dir, child.Name())
		if r.filter.IsExcluded(path, r.task.Source) {
			continue
		}

		info, err := fsys.Stat(path)
		if err != nil || !info.IsDir() || !r.excludedTree(path) {
			return false
		}
	}

	return true
}

func (r *mirrorRun) remove(path string) bool {
	err := fileops.Remove(r.engine.FS, path)
	if err != nil {
		r.fail("Failed to delete "+path, err, path)

		return false
	}

	r.metrics.AddDeleted()
	r.onLog("Deleted: " + path)

	return true
}

func (r *mirrorRun) skipUpToDate(path string) {
	r.engine.Logger.Debug().Str("path", path).Msg("up to date")
	r.metrics.AddSkipped()
	r.advance(path)
}

// abandonTree advances progress past the files of a source subtree that
// could not be mirrored, so the percentage still reaches its end.
func (r *mirrorRun) abandonTree(src string) {
	sub := r.task
	sub.Source = src

	for range r.engine.CountFiles(sub) {
		r.engine.Progress.Advance(src)
	}

	r.onProgress()
}

func (r *mirrorRun) advance(path string) {
	rel, err := filepath.Rel(r.task.Source, path)
	if err != nil {
		rel = path
	}

	r.engine.Progress.Advance(rel)
	r.onProgress()
}

func (r *mirrorRun) destinationExcluded(path string) bool {
	return r.filter.IsExcluded(path, r.task.Destination)
}

func (r *mirrorRun) fail(message string, err error, path string) {
	r.metrics.AddError()

	line := fmt.Sprintf("✗ %s: %v", message, err)

	if r.engine.Hints != nil {
		if hint := r.engine.Hints.Hint(err, path); hint != "" {
			line += " (" + hint + ")"
		}
	}

	r.onLog(line)
	r.engine.Logger.Debug().Err(err).Str("path", path).Msg(message)
}
