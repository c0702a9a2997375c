package tui

import (
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/joe/servatio/internal/runner"
	"github.com/joe/servatio/internal/syncengine"
	"github.com/joe/servatio/internal/task"
	"github.com/joe/servatio/internal/tui/shared"
)

var _ = Describe("Model", func() {
	var (
		snapshot  *syncengine.ProgressSnapshot
		cancelled int
		model     Model
	)

	update := func(msg tea.Msg) (Model, tea.Cmd) {
		next, cmd := model.Update(msg)

		return next.(Model), cmd
	}

	BeforeEach(func() {
		snapshot = syncengine.NewProgressSnapshot()
		cancelled = 0
		model = NewModel("Photos", snapshot, func() { cancelled++ })
	})

	Describe("Progress polling", func() {
		It("copies the snapshot on each tick", func() {
			snapshot.SetTotal(4)
			snapshot.Advance("/src/a.txt")

			next, cmd := update(shared.TickMsg(time.Now()))

			Expect(next.state.TotalFiles).To(Equal(4))
			Expect(next.state.ProcessedFiles).To(Equal(1))
			Expect(next.state.CurrentFile).To(Equal("/src/a.txt"))
			Expect(cmd).NotTo(BeNil())
		})

		It("shows counts and the current file", func() {
			snapshot.SetTotal(2)
			snapshot.Advance("/src/a.txt")
			model, _ = update(shared.TickMsg(time.Now()))

			view := model.View()

			Expect(view).To(ContainSubstring("Photos"))
			Expect(view).To(ContainSubstring("1 / 2 files"))
			Expect(view).To(ContainSubstring("a.txt"))
		})
	})

	Describe("Activity log", func() {
		It("shows the newest lines", func() {
			model, _ = update(LogMsg("Copied: /src/a.txt → /dst/a.txt"))
			model, _ = update(LogMsg("Deleted: /dst/old.txt"))

			view := model.View()

			Expect(view).To(ContainSubstring("Copied: /src/a.txt"))
			Expect(view).To(ContainSubstring("Deleted: /dst/old.txt"))
		})

		It("bounds the retained lines", func() {
			for i := range maxKeptLines + 10 {
				model, _ = update(LogMsg(fmt.Sprintf("line %d", i)))
			}

			Expect(model.lines).To(HaveLen(maxKeptLines))
			Expect(model.lines[0]).To(Equal("line 10"))
		})
	})

	Describe("Cancellation", func() {
		It("cancels once on ctrl+c and keeps running", func() {
			var cmd tea.Cmd

			model, cmd = update(tea.KeyMsg{Type: tea.KeyCtrlC})
			Expect(cmd).To(BeNil())

			model, _ = update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})

			Expect(cancelled).To(Equal(1))
			Expect(model.View()).To(ContainSubstring("Cancelling"))
		})

		It("ignores other keys", func() {
			_, cmd := update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})

			Expect(cmd).To(BeNil())
			Expect(cancelled).To(Equal(0))
		})
	})

	Describe("Completion", func() {
		var result *runner.Result

		BeforeEach(func() {
			start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
			result = &runner.Result{
				Task:    task.BackupTask{Name: "Photos"},
				LogPath: "/logs/backup_Photos_20260301_100000.log",
				Metrics: syncengine.MetricsSnapshot{
					StartTime:    start,
					EndTime:      start.Add(3 * time.Second),
					CopiedFiles:  2,
					SkippedFiles: 5,
					BytesCopied:  2048,
				},
			}
		})

		It("quits and renders the summary", func() {
			next, cmd := update(DoneMsg{Result: result})

			Expect(cmd).NotTo(BeNil())
			Expect(cmd()).To(Equal(tea.Quit()))

			view := next.View()
			Expect(view).To(ContainSubstring("Completed"))
			Expect(view).To(ContainSubstring("2.0 KB"))
			Expect(view).To(ContainSubstring("backup_Photos_20260301_100000.log"))

			got, err := next.Result()
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(BeIdenticalTo(result))
		})

		It("reports errors counted during the run", func() {
			result.Metrics.Errors = 3

			next, _ := update(DoneMsg{Result: result})

			Expect(next.View()).To(ContainSubstring("Finished with 3 errors"))
		})

		It("reports a failed run", func() {
			next, _ := update(DoneMsg{Err: errors.New("invalid task")})

			Expect(next.View()).To(ContainSubstring("invalid task"))
		})

		It("quits on a key press after completion", func() {
			model, _ = update(DoneMsg{Result: result})

			_, cmd := update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})

			Expect(cmd).NotTo(BeNil())
			Expect(cancelled).To(Equal(0))
		})
	})

	Describe("Window size", func() {
		It("stretches the progress bar within bounds", func() {
			next, _ := update(tea.WindowSizeMsg{Width: 500, Height: 40})
			Expect(next.bar.Width).To(Equal(shared.MaxProgressBarWidth))

			next, _ = update(tea.WindowSizeMsg{Width: 20, Height: 40})
			Expect(next.bar.Width).To(Equal(shared.ProgressBarWidth))
		})
	})
})
