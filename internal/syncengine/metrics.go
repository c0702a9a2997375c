package syncengine

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// ProgressPercentageScale converts a 0-1 ratio to a percentage.
const ProgressPercentageScale = 100.0

// MetricsSnapshot is a consistent copy of the counters of a run.
type MetricsSnapshot struct {
	StartTime      time.Time
	EndTime        time.Time
	TotalFiles     int
	CopiedFiles    int
	SkippedFiles   int
	DeletedEntries int
	Errors         int
	BytesCopied    int64
}

// Duration returns EndTime - StartTime, or false while either is unset.
func (m MetricsSnapshot) Duration() (time.Duration, bool) {
	if m.StartTime.IsZero() || m.EndTime.IsZero() {
		return 0, false
	}

	return m.EndTime.Sub(m.StartTime), true
}

// SyncMetrics accumulates the counters of one mirror run.
// All methods are safe for concurrent use.
type SyncMetrics struct {
	mu    sync.Mutex
	clock clockwork.Clock
	state MetricsSnapshot
}

// NewMetrics creates a metrics record. A nil clock selects the real clock.
func NewMetrics(clock clockwork.Clock) *SyncMetrics {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &SyncMetrics{clock: clock}
}

// Start records the start time. Only the first call has an effect.
func (m *SyncMetrics) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.StartTime.IsZero() {
		m.state.StartTime = m.clock.Now()
	}
}

// Finish records the end time. Only the first call has an effect.
func (m *SyncMetrics) Finish() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.EndTime.IsZero() {
		m.state.EndTime = m.clock.Now()
	}
}

// Duration returns the run time once both Start and Finish were called.
func (m *SyncMetrics) Duration() (time.Duration, bool) {
	return m.Snapshot().Duration()
}

// SetTotal stores the pre-counted number of files.
func (m *SyncMetrics) SetTotal(total int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.TotalFiles = total
}

// AddCopied counts one copied file of the given size.
func (m *SyncMetrics) AddCopied(bytes int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.CopiedFiles++
	m.state.BytesCopied += bytes
}

// AddSkipped counts one file that was already up to date.
func (m *SyncMetrics) AddSkipped() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.SkippedFiles++
}

// AddDeleted counts one removed destination entry.
func (m *SyncMetrics) AddDeleted() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.DeletedEntries++
}

// AddError counts one failed entry.
func (m *SyncMetrics) AddError() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.Errors++
}

// Snapshot returns a copy of the counters.
func (m *SyncMetrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state
}
