package pipeline

import (
	"sync"

	"sitechat/internal/models"
)

// Status is the shared progress state of ingestion. One active run writes
// it; any number of concurrent status queries read it through Snapshot.
type Status struct {
	mu sync.RWMutex
	s  models.IngestStatus
}

func NewStatus() *Status {
	return &Status{}
}

// Snapshot returns a copy safe to serialize while a run is mutating state.
func (st *Status) Snapshot() models.IngestStatus {
	st.mu.RLock()
	defer st.mu.RUnlock()

	snap := st.s
	snap.Errors = make([]string, len(st.s.Errors))
	copy(snap.Errors, st.s.Errors)
	return snap
}

// TryBegin atomically claims the status for a new run. It returns false,
// leaving the in-flight state untouched, when a run is already in progress.
func (st *Status) TryBegin(totalURLs int) bool {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.s.InProgress {
		return false
	}

	st.s = models.IngestStatus{
		InProgress: true,
		TotalURLs:  totalURLs,
		Errors:     []string{},
	}
	return true
}

// Reset clears the status between runs. It is a no-op while a run is in
// progress; an active run owns the state until it finishes.
func (st *Status) Reset() {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.s.InProgress {
		return
	}
	st.s = models.IngestStatus{}
}

func (st *Status) AppendError(msg string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.Errors = append(st.s.Errors, msg)
}

func (st *Status) SetProcessedURLs(n int) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.ProcessedURLs = n
}

func (st *Status) IncSuccessfulDocs() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.SuccessfulDocs++
}

// Finish marks a run complete. Completed flips true even when the errors
// list is non-empty; per-item failures do not fail the run.
func (st *Status) Finish() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.InProgress = false
	st.s.Completed = true
}

// Fail records a fatal error and releases the in-progress flag without
// marking the run complete.
func (st *Status) Fail(msg string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.InProgress = false
	st.s.Errors = append(st.s.Errors, msg)
}

// Completed reports whether the last run finished end to end.
func (st *Status) Completed() bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s.Completed
}

// InProgress reports whether a run is currently active.
func (st *Status) InProgress() bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s.InProgress
}
