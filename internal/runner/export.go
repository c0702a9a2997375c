package runner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsFileName returns the textfile name used for a task.
func MetricsFileName(safeName string) string {
	return "servatio_" + strings.ReplaceAll(safeName, " ", "_") + ".prom"
}

// ExportMetrics writes the run's counters as a Prometheus textfile into dir,
// ready for the node_exporter textfile collector.
func ExportMetrics(dir string, result *Result) error {
	registry := prometheus.NewRegistry()
	labels := prometheus.Labels{"task": result.Task.Name}
	m := result.Metrics
	duration, _ := m.Duration()

	gauges := []struct {
		name  string
		help  string
		value float64
	}{
		{"servatio_last_run_timestamp_seconds", "Unix time the last run finished.", float64(m.EndTime.Unix())},
		{"servatio_last_run_duration_seconds", "Duration of the last run.", duration.Seconds()},
		{"servatio_last_run_files", "Files counted in the source before the last run.", float64(m.TotalFiles)},
		{"servatio_last_run_copied_files", "Files copied by the last run.", float64(m.CopiedFiles)},
		{"servatio_last_run_skipped_files", "Files already up to date in the last run.", float64(m.SkippedFiles)},
		{"servatio_last_run_deleted_entries", "Destination entries deleted by the last run.", float64(m.DeletedEntries)},
		{"servatio_last_run_errors", "Entries that failed in the last run.", float64(m.Errors)},
		{"servatio_last_run_copied_bytes", "Bytes copied by the last run.", float64(m.BytesCopied)},
	}

	for _, def := range gauges {
		gauge := prometheus.NewGauge(prometheus.GaugeOpts{Name: def.name, Help: def.help, ConstLabels: labels})
		gauge.Set(def.value)

		err := registry.Register(gauge)
		if err != nil {
			return fmt.Errorf("failed to register %s: %w", def.name, err)
		}
	}

	err := os.MkdirAll(dir, 0o750)
	if err != nil {
		return fmt.Errorf("failed to create metrics directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, MetricsFileName(result.Task.SafeName()))

	err = prometheus.WriteToTextfile(path, registry)
	if err != nil {
		return fmt.Errorf("failed to write metrics file %s: %w", path, err)
	}

	return nil
}
