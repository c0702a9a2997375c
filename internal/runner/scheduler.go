package runner

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/joe/servatio/internal/task"
)

// ErrNoSchedule is returned when a task without a schedule is added.
var ErrNoSchedule = errors.New("task has no schedule")

// Scheduler submits tasks to a Queue on their cron schedules.
type Scheduler struct {
	cron   *cron.Cron
	queue  *Queue
	logger zerolog.Logger
}

// NewScheduler creates a scheduler using standard five-field cron syntax.
func NewScheduler(queue *Queue, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithLogger(cronLogger{logger: logger})),
		queue:  queue,
		logger: logger,
	}
}

// Add schedules t.
func (s *Scheduler) Add(ctx context.Context, t task.BackupTask) (cron.EntryID, error) {
	if t.Schedule == "" {
		return 0, fmt.Errorf("%w: %q", ErrNoSchedule, t.Name)
	}

	id, err := s.cron.AddFunc(t.Schedule, func() {
		logger := s.logger.With().Str("task", t.Name).Logger()
		logger.Info().Msg("scheduled run due")

		result, shared, err := s.queue.Submit(ctx, t)
		if err != nil {
			logger.Error().Err(err).Msg("scheduled run failed")

			return
		}

		logger.Info().
			Bool("coalesced", shared).
			Int("copied", result.Metrics.CopiedFiles).
			Int("errors", result.Metrics.Errors).
			Msg("scheduled run finished")
	})
	if err != nil {
		return 0, fmt.Errorf("invalid schedule %q for task %q: %w", t.Schedule, t.Name, err)
	}

	return id, nil
}

// Len returns the number of scheduled tasks.
func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}

// Start begins firing entries in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop prevents new runs and returns a context done once running jobs end.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// cronLogger routes cron's own messages into zerolog.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
