// Package logging sets up the console logger and the per-run log files.
package logging

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/joe/servatio/internal/task"
	"github.com/joe/servatio/pkg/filesystem"
)

// Exported constants.
const (
	// ConsoleTimeFormat is the timestamp layout of console lines.
	ConsoleTimeFormat = "2006-01-02 15:04:05"
	// FileTimeFormat is the timestamp layout of run log lines.
	FileTimeFormat = "15:04:05"
	// FileNameTimeFormat is the timestamp layout inside run log file names.
	FileNameTimeFormat = "20060102_150405"
	// LogRetention is how long run logs are kept.
	LogRetention = 30 * 24 * time.Hour

	logDirPermissions = 0o750
)

// NewConsoleLogger creates a human-readable logger on w. Debug lines are
// shown only when verbose is set.
func NewConsoleLogger(w io.Writer, verbose, noColor bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	writer := zerolog.ConsoleWriter{Out: w, TimeFormat: ConsoleTimeFormat, NoColor: noColor}

	return zerolog.New(writer).With().Timestamp().Logger().Level(level)
}

// RunLog is the log file of one task run. Every line reads "HH:MM:SS | message".
type RunLog struct {
	path   string
	runID  string
	file   io.Closer
	mu     sync.Mutex
	logger zerolog.Logger
}

// OpenRunLog creates <dir>/<SafeName>_<YYYYmmdd_HHMMSS>.log and writes a
// header line carrying a fresh run id.
func OpenRunLog(fsys filesystem.FileSystem, dir string, t task.BackupTask, clock clockwork.Clock) (*RunLog, error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	err := fsys.MkdirAll(dir, logDirPermissions)
	if err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_%s.log", t.SafeName(), clock.Now().Format(FileNameTimeFormat)))

	file, err := fsys.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create run log %s: %w", path, err)
	}

	writer := zerolog.ConsoleWriter{
		Out:        file,
		NoColor:    true,
		TimeFormat: FileTimeFormat,
		PartsOrder: []string{zerolog.TimestampFieldName, zerolog.MessageFieldName},
		FormatMessage: func(i any) string {
			return fmt.Sprintf("| %v", i)
		},
	}

	runLog := &RunLog{
		path:   path,
		runID:  uuid.NewString(),
		file:   file,
		logger: zerolog.New(writer).With().Timestamp().Logger(),
	}

	runLog.logger.Info().
		Str("run_id", runLog.runID).
		Str("source", t.Source).
		Str("destination", t.Destination).
		Msg("Backup started: " + t.Name)

	return runLog, nil
}

// Path returns the log file path.
func (r *RunLog) Path() string {
	return r.path
}

// RunID returns the id written into the header line.
func (r *RunLog) RunID() string {
	return r.runID
}

// Log appends one line. Safe for concurrent use.
func (r *RunLog) Log(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger.Info().Msg(message)
}

// Close flushes and closes the file.
func (r *RunLog) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.file.Close()
	if err != nil {
		return fmt.Errorf("failed to close run log %s: %w", r.path, err)
	}

	return nil
}

// CleanupOldLogs removes *.log files in dir last modified more than maxAge
// before now. It keeps going past failures and returns the first one.
func CleanupOldLogs(fsys filesystem.FileSystem, dir string, maxAge time.Duration, now time.Time) (int, error) {
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to list log directory %s: %w", dir, err)
	}

	cutoff := now.Add(-maxAge)
	removed := 0

	var firstErr error

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".log") || !entry.ModTime().Before(cutoff) {
			continue
		}

		err := fsys.Remove(filepath.Join(dir, entry.Name()))
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}

			continue
		}

		removed++
	}

	return removed, firstErr
}
