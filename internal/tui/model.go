// Package tui shows the progress of a running task in the terminal.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/joe/servatio/internal/runner"
	"github.com/joe/servatio/internal/syncengine"
	"github.com/joe/servatio/internal/tui/shared"
)

// maxKeptLines bounds the log lines held in memory.
const maxKeptLines = 200

// LogMsg carries one run log line.
type LogMsg string

// DoneMsg reports the end of the run.
type DoneMsg struct {
	Result *runner.Result
	Err    error
}

// Model polls a ProgressSnapshot and renders it.
type Model struct {
	taskName   string
	progress   *syncengine.ProgressSnapshot
	cancel     func()
	bar        progress.Model
	spinner    spinner.Model
	state      syncengine.ProgressState
	lines      []string
	width      int
	cancelling bool
	done       bool
	result     *runner.Result
	err        error
}

// NewModel creates a model for taskName. cancel is invoked when the user
// asks to stop; the model then waits for DoneMsg.
func NewModel(taskName string, snapshot *syncengine.ProgressSnapshot, cancel func()) Model {
	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = shared.LabelStyle()

	if cancel == nil {
		cancel = func() {}
	}

	return Model{
		taskName: taskName,
		progress: snapshot,
		cancel:   cancel,
		bar:      shared.NewProgressModel(shared.ProgressBarWidth),
		spinner:  spin,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(shared.TickCmd(), m.spinner.Tick)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case shared.KeyCtrlC, shared.KeyQuit:
			if m.done {
				return m, tea.Quit
			}

			if !m.cancelling {
				m.cancelling = true
				m.cancel()
			}
		}

		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = min(max(msg.Width-shared.DefaultPadding*2, shared.ProgressBarWidth), shared.MaxProgressBarWidth)

		return m, nil

	case shared.TickMsg:
		m.state = m.progress.Snapshot()
		if m.done {
			return m, nil
		}

		return m, shared.TickCmd()

	case LogMsg:
		m.lines = append(m.lines, string(msg))
		if len(m.lines) > maxKeptLines {
			m.lines = m.lines[len(m.lines)-maxKeptLines:]
		}

		return m, nil

	case DoneMsg:
		m.done = true
		m.result = msg.Result
		m.err = msg.Err
		m.state = m.progress.Snapshot()

		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd

		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	var builder strings.Builder

	builder.WriteString(shared.RenderTitle("Servatio · " + m.taskName))
	builder.WriteString("\n")

	switch {
	case m.done:
		builder.WriteString(m.renderSummary())
		builder.WriteString("\n")

		return builder.String()
	case m.cancelling:
		builder.WriteString(shared.RenderWarning("Cancelling after the current entry..."))
	default:
		builder.WriteString(m.spinner.View() + " Mirroring")
	}

	builder.WriteString("\n\n")
	builder.WriteString(shared.RenderProgress(m.bar, m.state.Percent()/syncengine.ProgressPercentageScale))
	builder.WriteString("\n")
	builder.WriteString(fmt.Sprintf("%d / %d files", m.state.ProcessedFiles, m.state.TotalFiles))

	if m.state.CurrentFile != "" {
		width := m.width - shared.DefaultPadding*8
		builder.WriteString(shared.RenderDim("  " + shared.TruncatePath(m.state.CurrentFile, width)))
	}

	builder.WriteString("\n\n")
	builder.WriteString(shared.RenderActivityLog("Activity", m.lines, shared.ActivityLogLines))
	builder.WriteString("\n")

	return builder.String()
}

// Result returns the outcome once DoneMsg arrived.
func (m Model) Result() (*runner.Result, error) {
	return m.result, m.err
}

func (m Model) renderSummary() string {
	if m.err != nil {
		return shared.RenderError("✗ " + m.err.Error())
	}

	if m.result == nil {
		return shared.RenderWarning("No result")
	}

	metrics := m.result.Metrics
	duration, _ := metrics.Duration()

	var status string

	switch {
	case m.cancelling:
		status = shared.RenderWarning("Cancelled")
	case metrics.Errors > 0:
		status = shared.RenderWarning(fmt.Sprintf("Finished with %d errors", metrics.Errors))
	default:
		status = shared.RenderSuccess("✅ Completed")
	}

	rows := []string{
		status,
		"",
		fmt.Sprintf("%s %d (%s)", shared.RenderLabel("Copied:    "), metrics.CopiedFiles, shared.FormatBytes(metrics.BytesCopied)),
		fmt.Sprintf("%s %d", shared.RenderLabel("Up to date:"), metrics.SkippedFiles),
		fmt.Sprintf("%s %d", shared.RenderLabel("Deleted:   "), metrics.DeletedEntries),
		fmt.Sprintf("%s %d", shared.RenderLabel("Errors:    "), metrics.Errors),
		fmt.Sprintf("%s %s", shared.RenderLabel("Duration:  "), shared.FormatDuration(duration)),
		shared.RenderDim("Log: " + m.result.LogPath),
	}

	return shared.RenderBox(strings.Join(rows, "\n"))
}
