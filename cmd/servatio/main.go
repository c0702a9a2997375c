// Package main is the entry point for the servatio backup tool.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alexflint/go-arg"
	"github.com/rs/zerolog"
	"golang.org/x/term" //nolint:depguard // Required for TTY detection

	"github.com/joe/servatio/internal/config"
	"github.com/joe/servatio/internal/logging"
	"github.com/joe/servatio/internal/runner"
	"github.com/joe/servatio/internal/syncengine"
	"github.com/joe/servatio/internal/task"
	"github.com/joe/servatio/internal/tui"
	"github.com/joe/servatio/internal/tui/shared"
)

// Exported variables.
var (
	ErrRunFailed = errors.New("one or more tasks failed")
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(argv []string, stdout, stderr io.Writer) int {
	args := &config.Args{}

	parser, err := config.NewParser(args)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)

		return 1
	}

	err = config.Parse(parser, args, argv)

	switch {
	case errors.Is(err, arg.ErrHelp):
		parser.WriteHelpForSubcommand(stdout, parser.SubcommandNames()...) //nolint:errcheck // Best effort

		return 0
	case errors.Is(err, arg.ErrVersion):
		fmt.Fprintln(stdout, args.Version())

		return 0
	case err != nil:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		parser.WriteUsage(stderr)

		return 1
	}

	cli := &app{
		args:   args,
		store:  config.NewStore(args.Config),
		stdout: stdout,
		logger: logging.NewConsoleLogger(stderr, args.Verbose, shared.ColorsDisabled()),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = cli.dispatch(ctx)
	if err != nil {
		cli.logger.Error().Err(err).Msg("servatio failed")

		return 1
	}

	return 0
}

type app struct {
	args   *config.Args
	store  *config.Store
	stdout io.Writer
	logger zerolog.Logger
}

func (a *app) dispatch(ctx context.Context) error {
	file, err := a.store.Load()
	if err != nil {
		return err //nolint:wrapcheck // Already names the file
	}

	switch {
	case a.args.List != nil:
		a.list(file)

		return nil
	case a.args.Add != nil:
		return a.add(file, a.args.Add)
	case a.args.Edit != nil:
		return a.edit(file, a.args.Edit)
	case a.args.SetLogDir != nil:
		file.LogDir = a.args.SetLogDir.Dir

		return a.save(file, "Log directory: "+file.LogDir)
	case a.args.Remove != nil:
		err = file.Remove(a.args.Remove.Name)
		if err != nil {
			return err //nolint:wrapcheck // Already names the task
		}

		return a.save(file, "Removed task: "+a.args.Remove.Name)
	case a.args.Run != nil:
		return a.runTasks(ctx, file)
	case a.args.Serve != nil:
		return a.serve(ctx, file)
	}

	return config.ErrNoCommand
}

func (a *app) list(file *config.TaskFile) {
	if len(file.Tasks) == 0 {
		fmt.Fprintln(a.stdout, "No tasks configured.")

		return
	}

	for i, t := range file.Tasks {
		fmt.Fprintf(a.stdout, "%d. %s\n", i+1, t.Name)
		fmt.Fprintf(a.stdout, "   %s → %s\n", t.Source, t.Destination)
		fmt.Fprintf(a.stdout, "   delete extra: %t, excludes: %d", t.DeleteExtra, len(t.ExcludePatterns))

		if t.Schedule != "" {
			fmt.Fprintf(a.stdout, ", schedule: %s", t.Schedule)
		}

		fmt.Fprintln(a.stdout)
	}
}

func (a *app) add(file *config.TaskFile, cmd *config.AddCmd) error {
	t := newTask(cmd)

	err := file.Add(t)
	if err != nil {
		return err //nolint:wrapcheck // Already names the task
	}

	return a.save(file, "Added task: "+t.Name)
}

func (a *app) edit(file *config.TaskFile, cmd *config.EditCmd) error {
	t := newTask(&cmd.AddCmd)
	if cmd.Rename != "" {
		t.Name = cmd.Rename
	}

	err := file.Update(cmd.Name, t)
	if err != nil {
		return err //nolint:wrapcheck // Already names the task
	}

	return a.save(file, "Updated task: "+t.Name)
}

// newTask builds a task from add or edit arguments. Defaults come first,
// then the -x patterns; --no-default-excludes alone means "exclude nothing".
func newTask(cmd *config.AddCmd) task.BackupTask {
	var patterns []string
	if !cmd.NoDefaultExcludes {
		patterns = task.DefaultExcludePatterns()
	}

	patterns = append(patterns, cmd.Exclude...)
	if patterns == nil {
		patterns = []string{}
	}

	t := task.New(cmd.Name, cmd.Source, cmd.Destination, patterns, !cmd.KeepExtra)
	t.DeleteExcluded = cmd.DeleteExcluded
	t.Schedule = cmd.Schedule

	return t
}

func (a *app) save(file *config.TaskFile, message string) error {
	err := a.store.Save(file)
	if err != nil {
		return err //nolint:wrapcheck // Already names the file
	}

	fmt.Fprintln(a.stdout, message)

	return nil
}

func (a *app) newRunner(logger zerolog.Logger, logDir string) *runner.Runner {
	r := runner.New(logDir, logger)
	r.MetricsDir = a.args.MetricsDir

	return r
}

// runTasks runs the selected tasks one after another. A task that cannot
// start does not stop the following ones.
func (a *app) runTasks(ctx context.Context, file *config.TaskFile) error {
	selected := file.Tasks
	if !a.args.Run.All {
		selected = make([]task.BackupTask, 0, len(a.args.Run.Names))

		for _, name := range a.args.Run.Names {
			t, err := task.Find(file.Tasks, name)
			if err != nil {
				return err //nolint:wrapcheck // Already names the task
			}

			selected = append(selected, t)
		}
	}

	interactive := !a.args.Plain && isTerminal(a.stdout)

	logger := a.logger
	if interactive {
		logger = logger.Level(zerolog.ErrorLevel)
	}

	r := a.newRunner(logger, file.LogDir)
	failed := 0

	for _, t := range selected {
		if ctx.Err() != nil {
			break
		}

		var (
			result *runner.Result
			err    error
		)

		if interactive {
			result, err = tui.Run(ctx, t.Name, func(
				ctx context.Context, progress *syncengine.ProgressSnapshot, onLog syncengine.LogFunc,
			) (*runner.Result, error) {
				return r.Run(ctx, t, progress, onLog, nil)
			})
		} else {
			result, err = r.Run(ctx, t, nil, func(line string) { fmt.Fprintln(a.stdout, line) }, nil)
		}

		if err != nil {
			a.logger.Error().Err(err).Str("task", t.Name).Msg("task not run")

			failed++

			continue
		}

		if result.Metrics.Errors > 0 {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrRunFailed, failed, len(selected))
	}

	return ctx.Err() //nolint:wrapcheck // Cancellation is reported as is
}

// serve runs scheduled tasks until ctx is cancelled.
func (a *app) serve(ctx context.Context, file *config.TaskFile) error {
	r := a.newRunner(a.logger, file.LogDir)

	queue := runner.NewQueue(ctx, func(ctx context.Context, t task.BackupTask) (*runner.Result, error) {
		return r.Run(ctx, t, nil, nil, nil)
	})
	defer queue.Close()

	scheduler := runner.NewScheduler(queue, a.logger)

	for _, t := range file.Tasks {
		if t.Schedule == "" {
			a.logger.Debug().Str("task", t.Name).Msg("no schedule, skipped")

			continue
		}

		_, err := scheduler.Add(ctx, t)
		if err != nil {
			return err //nolint:wrapcheck // Already names the task
		}
	}

	if scheduler.Len() == 0 {
		return fmt.Errorf("nothing to serve: %w", runner.ErrNoSchedule)
	}

	a.logger.Info().Int("tasks", scheduler.Len()).Str("config", a.store.Path).Msg("serving scheduled tasks")
	scheduler.Start()

	<-ctx.Done()

	a.logger.Info().Msg("stopping, waiting for running tasks")
	<-scheduler.Stop().Done()

	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)

	return ok && term.IsTerminal(int(f.Fd()))
}
