package monitor

import (
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Monitor serializes the heavy work: the server runs at most one
// transcription or burn at a time and reports busy to everyone else.
// Callers that win TryAcquire MUST call Release when the job ends.
type Monitor struct {
	sem       *semaphore.Weighted
	activeCnt atomic.Int64
	current   atomic.Value // string: label of the running job
}

func New() *Monitor {
	m := &Monitor{
		sem: semaphore.NewWeighted(1),
	}
	m.current.Store("")
	return m
}

// TryAcquire attempts to claim the single job slot without blocking.
// label names the job for status reporting, e.g. "transcribe".
func (m *Monitor) TryAcquire(label string) bool {
	if !m.sem.TryAcquire(1) {
		return false
	}
	m.activeCnt.Add(1)
	m.current.Store(label)
	return true
}

// Release frees the job slot claimed by TryAcquire.
func (m *Monitor) Release() {
	m.current.Store("")
	m.activeCnt.Add(-1)
	m.sem.Release(1)
}

// Busy reports whether a job currently holds the slot.
func (m *Monitor) Busy() bool {
	return m.activeCnt.Load() > 0
}

// Current returns the label of the running job, or "" when idle.
func (m *Monitor) Current() string {
	s, _ := m.current.Load().(string)
	return s
}
