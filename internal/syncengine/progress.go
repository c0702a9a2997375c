package syncengine

import "sync"

// ProgressState is a consistent copy of a ProgressSnapshot.
type ProgressState struct {
	TotalFiles     int
	ProcessedFiles int
	CurrentFile    string
}

// Percent returns the completed share in the range 0-100. An empty run is
// reported as complete.
func (p ProgressState) Percent() float64 {
	if p.TotalFiles <= 0 {
		return ProgressPercentageScale
	}

	pct := float64(p.ProcessedFiles) / float64(p.TotalFiles) * ProgressPercentageScale
	if pct > ProgressPercentageScale {
		return ProgressPercentageScale
	}

	return pct
}

// ProgressSnapshot is the live progress of one run. The engine writes it and
// any number of pollers read it through Snapshot.
type ProgressSnapshot struct {
	mu    sync.Mutex
	state ProgressState
}

// NewProgressSnapshot returns an empty snapshot.
func NewProgressSnapshot() *ProgressSnapshot {
	return &ProgressSnapshot{}
}

// SetTotal sets the denominator and resets the processed count.
func (p *ProgressSnapshot) SetTotal(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.state = ProgressState{TotalFiles: total}
}

// Advance records that one more file was handled.
func (p *ProgressSnapshot) Advance(currentFile string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.state.ProcessedFiles++
	p.state.CurrentFile = currentFile
}

// Snapshot returns a copy of the current state.
func (p *ProgressSnapshot) Snapshot() ProgressState {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.state
}
