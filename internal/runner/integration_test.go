//go:build integration

package runner_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers
	"github.com/rs/zerolog"

	"github.com/joe/servatio/internal/runner"
	"github.com/joe/servatio/internal/syncengine"
	"github.com/joe/servatio/internal/task"
)

// TestIntegration_RepeatedRunsOnDisk runs a task twice against real
// directories and checks that the second pass only confirms the mirror.
func TestIntegration_RepeatedRunsOnDisk(t *testing.T) {
	g := NewWithT(t)

	sourceDir := t.TempDir()
	destDir := filepath.Join(t.TempDir(), "mirror")
	logDir := t.TempDir()
	metricsDir := t.TempDir()

	for i := range 10 {
		path := filepath.Join(sourceDir, "nested", "file"+string(rune('a'+i))+".txt")
		g.Expect(os.MkdirAll(filepath.Dir(path), 0o755)).To(Succeed())
		g.Expect(os.WriteFile(path, []byte("content"), 0o644)).To(Succeed())
	}

	g.Expect(os.WriteFile(filepath.Join(sourceDir, "scratch.tmp"), []byte("x"), 0o644)).To(Succeed())

	r := runner.New(logDir, zerolog.Nop())
	r.MetricsDir = metricsDir
	backup := task.New("Disk Test", sourceDir, destDir, nil, true)

	progress := syncengine.NewProgressSnapshot()

	first, err := r.Run(context.Background(), backup, progress, nil, nil)
	g.Expect(err).ShouldNot(HaveOccurred())
	g.Expect(first.Metrics.TotalFiles).To(Equal(10))
	g.Expect(first.Metrics.CopiedFiles).To(Equal(10))
	g.Expect(first.Metrics.Errors).To(Equal(0))
	g.Expect(progress.Snapshot().Percent()).To(BeNumerically("==", 100))
	g.Expect(filepath.Join(destDir, "scratch.tmp")).ToNot(BeAnExistingFile())

	// An orphan appears in the destination between runs.
	g.Expect(os.WriteFile(filepath.Join(destDir, "orphan.txt"), []byte("old"), 0o644)).To(Succeed())

	second, err := r.Run(context.Background(), backup, nil, nil, nil)
	g.Expect(err).ShouldNot(HaveOccurred())
	g.Expect(second.Metrics.CopiedFiles).To(Equal(0))
	g.Expect(second.Metrics.SkippedFiles).To(Equal(10))
	g.Expect(second.Metrics.DeletedEntries).To(Equal(1))
	g.Expect(filepath.Join(destDir, "orphan.txt")).ToNot(BeAnExistingFile())

	logData, err := os.ReadFile(second.LogPath)
	g.Expect(err).ShouldNot(HaveOccurred())
	g.Expect(string(logData)).To(MatchRegexp(`Deleted: .*orphan\.txt`))
	g.Expect(strings.Count(string(logData), "Copied:")).To(Equal(0))

	prom, err := os.ReadFile(filepath.Join(metricsDir, runner.MetricsFileName(backup.SafeName())))
	g.Expect(err).ShouldNot(HaveOccurred())
	g.Expect(string(prom)).To(ContainSubstring(`servatio_last_run_skipped_files{task="Disk Test"} 10`))
}
