// Package runner drives task runs: checks, run log, mirror pass and reporting.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/joe/servatio/internal/logging"
	"github.com/joe/servatio/internal/syncengine"
	"github.com/joe/servatio/internal/task"
	"github.com/joe/servatio/pkg/filesystem"
	"github.com/joe/servatio/pkg/pathguard"
	"github.com/joe/servatio/pkg/space"
)

// Result describes a finished run.
type Result struct {
	Task    task.BackupTask
	RunID   string
	LogPath string
	Space   space.Advisory
	Metrics syncengine.MetricsSnapshot
}

// Runner executes single task runs. The zero value is not usable; see New.
type Runner struct {
	FS     filesystem.FileSystem
	LogFS  filesystem.FileSystem
	LogDir string
	Clock  clockwork.Clock
	Logger zerolog.Logger
	Space  *space.Estimator
	// MetricsDir, when set, receives a Prometheus textfile per task.
	MetricsDir string
	// Canonicalize resolves symlinks in task paths before the run.
	Canonicalize func(path string) string
}

// New creates a runner working on the real disk.
func New(logDir string, logger zerolog.Logger) *Runner {
	fsys := filesystem.NewRealFileSystem()

	return &Runner{
		FS:           fsys,
		LogFS:        fsys,
		LogDir:       logDir,
		Clock:        clockwork.NewRealClock(),
		Logger:       logger,
		Space:        space.NewEstimator(fsys),
		Canonicalize: pathguard.Canonical,
	}
}

// Run mirrors one task. It fails only when the task is invalid or the run
// log cannot be created; per-entry failures end up in Result.Metrics.Errors.
// progress may be nil.
func (r *Runner) Run(
	ctx context.Context,
	t task.BackupTask,
	progress *syncengine.ProgressSnapshot,
	onLog syncengine.LogFunc,
	onProgress syncengine.ProgressFunc,
) (*Result, error) {
	err := t.Validate()
	if err != nil {
		return nil, err //nolint:wrapcheck // Already names the task
	}

	err = pathguard.Validate(t.Source, t.Destination)
	if err != nil {
		return nil, fmt.Errorf("task %q: %w", t.Name, err)
	}

	if r.Canonicalize != nil {
		t.Source = r.Canonicalize(t.Source)
		t.Destination = r.Canonicalize(t.Destination)
	}

	if progress == nil {
		progress = syncengine.NewProgressSnapshot()
	}

	if onLog == nil {
		onLog = func(string) {}
	}

	logger := r.Logger.With().Str("task", t.Name).Logger()

	runLog, err := logging.OpenRunLog(r.LogFS, r.LogDir, t, r.Clock)
	if err != nil {
		return nil, err //nolint:wrapcheck // Already names the file
	}

	defer func() {
		if closeErr := runLog.Close(); closeErr != nil {
			logger.Warn().Err(closeErr).Msg("closing run log")
		}
	}()

	logger = logger.With().Str("run_id", runLog.RunID()).Logger()

	logLine := func(message string) {
		runLog.Log(message)
		onLog(message)
	}

	result := &Result{Task: t, RunID: runLog.RunID(), LogPath: runLog.Path()}

	logLine("Starting task: " + t.Name)
	logLine("Log: " + runLog.Path())

	if r.Space != nil {
		result.Space = r.Space.Estimate(t.Source, t.Destination)
		logger.Debug().
			Uint64("required", result.Space.Required).
			Uint64("available", result.Space.Available).
			AnErr("free_space_error", result.Space.Err).
			Msg("space check")

		if !result.Space.Sufficient() {
			logLine(fmt.Sprintf("⚠ Not enough free space: size %s, free %s; continuing",
				formatGiB(result.Space.Required), formatGiB(result.Space.Available)))
		}
	}

	engine := syncengine.NewEngine(r.FS)
	engine.Progress = progress
	engine.Logger = logger

	metrics := syncengine.NewMetrics(r.Clock)
	total := engine.CountFiles(t)
	metrics.SetTotal(total)
	progress.SetTotal(total)

	metrics.Start()
	engine.Mirror(ctx, t, metrics, logLine, onProgress)
	metrics.Finish()

	result.Metrics = metrics.Snapshot()
	logLine(completionLine(result.Metrics, ctx.Err() != nil))

	logger.Info().
		Int("copied", result.Metrics.CopiedFiles).
		Int("skipped", result.Metrics.SkippedFiles).
		Int("deleted", result.Metrics.DeletedEntries).
		Int("errors", result.Metrics.Errors).
		Msg("run finished")

	r.afterRun(logger, result)

	return result, nil
}

func (r *Runner) afterRun(logger zerolog.Logger, result *Result) {
	if r.MetricsDir != "" {
		err := ExportMetrics(r.MetricsDir, result)
		if err != nil {
			logger.Warn().Err(err).Msg("metrics export failed")
		}
	}

	removed, err := logging.CleanupOldLogs(r.LogFS, r.LogDir, logging.LogRetention, r.Clock.Now())
	if err != nil {
		logger.Debug().Err(err).Msg("log cleanup incomplete")
	}

	if removed > 0 {
		logger.Debug().Int("removed", removed).Msg("old run logs removed")
	}
}

func completionLine(m syncengine.MetricsSnapshot, cancelled bool) string {
	duration, _ := m.Duration()
	summary := fmt.Sprintf("copied %d, up to date %d, deleted %d, errors %d in %s",
		m.CopiedFiles, m.SkippedFiles, m.DeletedEntries, m.Errors, duration.Round(time.Millisecond))

	switch {
	case cancelled:
		return "Task cancelled: " + summary
	case m.Errors > 0:
		return "⚠ Task finished with errors: " + summary
	default:
		return "✅ Task completed: " + summary
	}
}

func formatGiB(bytes uint64) string {
	return fmt.Sprintf("%.2f GB", float64(bytes)/(1<<30))
}
