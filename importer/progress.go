package importer

import (
	"sync"
	"time"
)

// finishedRetention is how long a terminal run stays visible to late
// websocket readers before it is dropped.
const finishedRetention = 10 * time.Minute

// Import run statuses as reported over the progress websocket.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Progress is the externally visible state of one import run.
type Progress struct {
	Processed int    `json:"processed"`
	Total     int    `json:"total"`
	Percent   int    `json:"percent"`
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
}

// ProgressTracker holds in-flight import progress keyed by import ID so the
// websocket endpoint can stream it while the upload request is still running.
type ProgressTracker struct {
	mu   sync.RWMutex
	runs map[string]Progress
}

func NewProgressTracker() *ProgressTracker {
	return &ProgressTracker{runs: make(map[string]Progress)}
}

// Start registers a run before its first batch.
func (t *ProgressTracker) Start(id string, total int) {
	t.mu.Lock()
	t.runs[id] = Progress{Total: total, Status: StatusRunning}
	t.mu.Unlock()
}

// Update records batch progress. Percent is processed/total*100.
func (t *ProgressTracker) Update(id string, processed, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p := t.runs[id]
	p.Processed = processed
	p.Total = total
	if total > 0 {
		p.Percent = processed * 100 / total
	}
	p.Status = StatusRunning
	t.runs[id] = p
}

// Finish marks a run completed or failed with a final message. The entry is
// dropped after a retention window.
func (t *ProgressTracker) Finish(id string, status, message string) {
	t.mu.Lock()
	p := t.runs[id]
	p.Status = status
	p.Message = message
	if status == StatusCompleted {
		p.Percent = 100
	}
	t.runs[id] = p
	t.mu.Unlock()

	time.AfterFunc(finishedRetention, func() {
		t.Forget(id)
	})
}

// Get returns the progress for a run and whether it exists.
func (t *ProgressTracker) Get(id string) (Progress, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.runs[id]
	return p, ok
}

// Forget drops a finished run from the tracker.
func (t *ProgressTracker) Forget(id string) {
	t.mu.Lock()
	delete(t.runs, id)
	t.mu.Unlock()
}
