package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/joe/servatio/internal/runner"
	"github.com/joe/servatio/internal/syncengine"
)

// Job performs the run shown by the display.
type Job func(ctx context.Context, progress *syncengine.ProgressSnapshot, onLog syncengine.LogFunc) (*runner.Result, error)

// Run shows the progress display while job runs and returns its outcome.
// Pressing ctrl+c or q cancels the job's context; Run still waits for the
// job to return.
func Run(ctx context.Context, taskName string, job Job, opts ...tea.ProgramOption) (*runner.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	snapshot := syncengine.NewProgressSnapshot()
	program := tea.NewProgram(NewModel(taskName, snapshot, cancel), opts...)

	finished := make(chan DoneMsg, 1)

	go func() {
		result, err := job(ctx, snapshot, func(line string) { program.Send(LogMsg(line)) })
		done := DoneMsg{Result: result, Err: err}
		finished <- done

		program.Send(done)
	}()

	_, err := program.Run()
	if err != nil {
		cancel()
		<-finished

		return nil, fmt.Errorf("progress display failed: %w", err)
	}

	outcome := <-finished

	return outcome.Result, outcome.Err
}
