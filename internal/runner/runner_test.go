//nolint:varnamelen // Test files use idiomatic short variable names (t, g, etc.)
package runner_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	. "github.com/onsi/gomega" //nolint:revive // Gomega convention
	"github.com/rs/zerolog"

	"github.com/joe/servatio/internal/runner"
	"github.com/joe/servatio/internal/syncengine"
	"github.com/joe/servatio/internal/task"
	"github.com/joe/servatio/pkg/filesystem"
	"github.com/joe/servatio/pkg/pathguard"
	"github.com/joe/servatio/pkg/space"
)

var now = time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC) //nolint:gochecknoglobals // Shared test fixture

func writeFile(t *testing.T, fsys filesystem.FileSystem, path, content string) {
	t.Helper()

	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}

	file, err := fsys.Create(path)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := file.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}

	if err := file.Close(); err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, fsys filesystem.FileSystem, path string) string {
	t.Helper()

	file, err := fsys.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		t.Fatal(err)
	}

	return string(data)
}

func newRunner(fsys filesystem.FileSystem, free uint64) *runner.Runner {
	return &runner.Runner{
		FS:     fsys,
		LogFS:  fsys,
		LogDir: "/logs",
		Clock:  clockwork.NewFakeClockAt(now),
		Logger: zerolog.Nop(),
		Space: &space.Estimator{FS: fsys, Free: func(string) (uint64, error) {
			return free, nil
		}},
	}
}

func TestRun_MirrorsAndWritesRunLog(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	fsys := filesystem.NewMemFileSystem()
	writeFile(t, fsys, "/src/a.txt", "alpha")
	writeFile(t, fsys, "/src/notes/b.txt", "bravo")
	writeFile(t, fsys, "/src/debug.log", "excluded by default")

	var lines []string

	progress := syncengine.NewProgressSnapshot()
	tk := task.New("Docs", "/src", "/dst", nil, true)

	result, err := newRunner(fsys, 1<<30).Run(context.Background(), tk, progress,
		func(line string) { lines = append(lines, line) }, nil)
	g.Expect(err).ToNot(HaveOccurred())

	g.Expect(result.Metrics.TotalFiles).To(Equal(2))
	g.Expect(result.Metrics.CopiedFiles).To(Equal(2))
	g.Expect(result.Metrics.Errors).To(Equal(0))
	g.Expect(result.LogPath).To(Equal(filepath.Join("/logs", "Docs_20240601_080000.log")))
	g.Expect(result.RunID).ToNot(BeEmpty())
	g.Expect(result.Space.Sufficient()).To(BeTrue())
	g.Expect(progress.Snapshot().Percent()).To(BeNumerically("==", 100))

	g.Expect(lines[0]).To(Equal("Starting task: Docs"))
	g.Expect(lines[len(lines)-1]).To(HavePrefix("✅ Task completed: copied 2"))

	logContent := readFile(t, fsys, result.LogPath)
	g.Expect(logContent).To(ContainSubstring("run_id=" + result.RunID))
	g.Expect(logContent).To(ContainSubstring("| Copied: /src/a.txt → /dst/a.txt"))
	g.Expect(logContent).To(ContainSubstring("| ✅ Task completed"))
}

func TestRun_RejectsUnsafePathsBeforeAnyIO(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		dst  string
		want error
	}{
		{"relative source", "src", "/dst", pathguard.ErrNotAbsolute},
		{"filesystem root", "/src", "/", pathguard.ErrDriveRootForbidden},
		{"destination inside source", "/src", "/src/backup", pathguard.ErrDestinationInsideSource},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := NewWithT(t)

			fsys := filesystem.NewMemFileSystem()
			writeFile(t, fsys, "/src/a.txt", "alpha")

			_, err := newRunner(fsys, 1<<30).Run(context.Background(), task.New("x", tt.src, tt.dst, nil, true), nil, nil, nil)
			g.Expect(errors.Is(err, tt.want)).To(BeTrue(), "got %v", err)

			_, statErr := fsys.Stat("/logs")
			g.Expect(statErr).To(HaveOccurred())
		})
	}
}

func TestRun_RejectsInvalidTask(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	fsys := filesystem.NewMemFileSystem()
	_, err := newRunner(fsys, 1<<30).Run(context.Background(), task.New("", "/src", "/dst", nil, true), nil, nil, nil)
	g.Expect(err).To(HaveOccurred())
}

func TestRun_LowSpaceWarnsButContinues(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	fsys := filesystem.NewMemFileSystem()
	writeFile(t, fsys, "/src/big.bin", strings.Repeat("x", 4096))

	var lines []string

	result, err := newRunner(fsys, 10).Run(context.Background(), task.New("Big", "/src", "/dst", []string{}, true), nil,
		func(line string) { lines = append(lines, line) }, nil)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(result.Space.Sufficient()).To(BeFalse())
	g.Expect(lines).To(ContainElement(HavePrefix("⚠ Not enough free space")))
	g.Expect(result.Metrics.CopiedFiles).To(Equal(1))
}

func TestRun_CancelledContext(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	fsys := filesystem.NewMemFileSystem()
	writeFile(t, fsys, "/src/a.txt", "alpha")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var lines []string

	result, err := newRunner(fsys, 1<<30).Run(ctx, task.New("C", "/src", "/dst", nil, true), nil,
		func(line string) { lines = append(lines, line) }, nil)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(result.Metrics.CopiedFiles).To(Equal(0))
	g.Expect(lines[len(lines)-1]).To(HavePrefix("Task cancelled"))
}

func TestRun_ExportsPrometheusTextfile(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	fsys := filesystem.NewMemFileSystem()
	writeFile(t, fsys, "/src/a.txt", "alpha")

	metricsDir := t.TempDir()
	r := newRunner(fsys, 1<<30)
	r.MetricsDir = metricsDir

	_, err := r.Run(context.Background(), task.New("My Docs", "/src", "/dst", nil, true), nil, nil, nil)
	g.Expect(err).ToNot(HaveOccurred())

	data, err := os.ReadFile(filepath.Join(metricsDir, "servatio_My_Docs.prom"))
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(string(data)).To(ContainSubstring(`servatio_last_run_copied_files{task="My Docs"} 1`))
	g.Expect(string(data)).To(ContainSubstring(`servatio_last_run_errors{task="My Docs"} 0`))
}

func TestRun_RemovesExpiredRunLogs(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	fsys := filesystem.NewMemFileSystem()
	writeFile(t, fsys, "/src/a.txt", "alpha")
	writeFile(t, fsys, "/logs/ancient.log", "old")
	g.Expect(fsys.Chtimes("/logs/ancient.log", now.AddDate(0, -2, 0), now.AddDate(0, -2, 0))).To(Succeed())

	_, err := newRunner(fsys, 1<<30).Run(context.Background(), task.New("Docs", "/src", "/dst", nil, true), nil, nil, nil)
	g.Expect(err).ToNot(HaveOccurred())

	_, err = fsys.Stat("/logs/ancient.log")
	g.Expect(err).To(HaveOccurred())
}
