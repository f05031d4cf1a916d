// ============================================================================
// Chronoqueue Queue Manager — Ordered Pending-Job Container
// ============================================================================
//
// Package: internal/queue
// File: queue.go
// Purpose: Thread-safe, ordered container of Pending jobs, and the source of
// truth for snapshot generation.
//
// Ordering:
//   1. Smaller execution_time comes first.
//   2. Tie on time -> larger priority comes first.
//   3. Tie on both -> id breaks the tie, for a stable order under repeated
//      pops.
//
// Mutation-emits-snapshot invariant:
//   Every operation that changes membership pushes a fresh Snapshot() onto
//   the manager's snapshot channel before releasing the lock. The channel
//   holds only the latest snapshot: a slow consumer sees a monotone sequence
//   of complete states and never needs to reconstruct deltas.
//
// Concurrency:
//   A single mutex guards both the heap and the act of publishing a
//   snapshot, so a consumer observing snapshot n+1 is guaranteed that every
//   mutation reflected in snapshot n has already been applied.
//
// ============================================================================

package queue

import (
	"container/heap"
	"sort"
	"sync"
	"time"

	"github.com/ChuLiYu/chronoqueue/internal/metrics"
	"github.com/ChuLiYu/chronoqueue/pkg/job"
)

// Manager is an ordered, thread-safe container of Pending jobs.
type Manager struct {
	mu         sync.Mutex
	heap       itemHeap
	snapshotCh chan []job.Job
	metrics    *metrics.Collector
}

// New creates an empty Manager. Its snapshot channel (see Snapshots) holds at
// most the most recent unconsumed snapshot; persistence.Manager.Run drains it.
func New() *Manager {
	return &Manager{
		heap:       make(itemHeap, 0),
		snapshotCh: make(chan []job.Job, 1),
	}
}

// SetMetrics attaches a collector so Push can record the jobs-pushed
// counter; nil is a safe no-op. Wiring (see internal/cli) calls this once at
// startup, before the initial load/seed Push calls.
func (m *Manager) SetMetrics(mc *metrics.Collector) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metrics = mc
}

// Snapshots returns the channel on which fresh snapshots are published.
func (m *Manager) Snapshots() <-chan []job.Job {
	return m.snapshotCh
}

// Push inserts a Pending job and emits a snapshot.
func (m *Manager) Push(j job.Job) {
	m.mu.Lock()
	defer m.mu.Unlock()

	j.Status = job.StatusPending
	heap.Push(&m.heap, j)
	if m.metrics != nil {
		m.metrics.RecordPushed()
	}
	m.publishLocked()
}

// Pop removes and returns the single best job by the ordering above,
// regardless of readiness. Intended for testing and manual drain.
func (m *Manager) Pop() (job.Job, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.heap.Len() == 0 {
		return job.Job{}, false
	}
	j := heap.Pop(&m.heap).(job.Job)
	m.publishLocked()
	return j, true
}

// PopReady removes and returns all jobs whose execution time is at or
// before now, in the composite ordering above (execution time, then
// priority, then ID). The heap's root is always
// the global minimum under the composite ordering, so repeatedly popping
// while the root is due yields exactly the ready set and leaves the
// remainder untouched. Emits exactly one snapshot if anything was removed.
func (m *Manager) PopReady(now time.Time) []job.Job {
	m.mu.Lock()
	defer m.mu.Unlock()

	nowSec := now.Unix()
	var ready []job.Job
	for m.heap.Len() > 0 && m.heap[0].ExecutionTime <= nowSec {
		ready = append(ready, heap.Pop(&m.heap).(job.Job))
	}
	if len(ready) > 0 {
		m.publishLocked()
	}
	return ready
}

// Remove deletes the job with the matching ID, if present. Emits a
// snapshot iff a removal occurred, and reports whether it did.
func (m *Manager) Remove(id job.ID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, it := range m.heap {
		if it.ID == id {
			heap.Remove(&m.heap, i)
			m.publishLocked()
			return true
		}
	}
	return false
}

// Reinsert puts a job back into the queue as Pending, without going through
// Push's status overwrite semantics implicitly — callers are expected to
// have already set the job's status/retry fields (the worker's requeue
// path). Emits a snapshot.
func (m *Manager) Reinsert(j job.Job) {
	m.mu.Lock()
	defer m.mu.Unlock()

	heap.Push(&m.heap, j)
	m.publishLocked()
}

// Snapshot returns a consistent, point-in-time copy of the pending set,
// sorted by the ordering in the package doc comment.
func (m *Manager) Snapshot() []job.Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Len reports the number of pending jobs.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.heap.Len()
}

// IsEmpty reports whether the queue holds no pending jobs.
func (m *Manager) IsEmpty() bool {
	return m.Len() == 0
}

// Close closes the snapshot channel, signalling the persistence writer to
// flush and exit after draining.
func (m *Manager) Close() {
	close(m.snapshotCh)
}

func (m *Manager) snapshotLocked() []job.Job {
	out := make([]job.Job, len(m.heap))
	copy(out, m.heap)
	sort.Slice(out, func(i, k int) bool {
		return less(out[i], out[k])
	})
	return out
}

// publishLocked pushes a fresh snapshot onto the channel, dropping a
// previously queued but not-yet-consumed snapshot so the channel always
// holds the latest state rather than blocking the lock holder.
func (m *Manager) publishLocked() {
	snap := m.snapshotLocked()
	select {
	case <-m.snapshotCh:
	default:
	}
	m.snapshotCh <- snap
}

// itemHeap implements container/heap.Interface over the composite ordering.
type itemHeap []job.Job

func less(a, b job.Job) bool {
	if a.ExecutionTime != b.ExecutionTime {
		return a.ExecutionTime < b.ExecutionTime
	}
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	return a.ID < b.ID
}

func (h itemHeap) Len() int            { return len(h) }
func (h itemHeap) Less(i, k int) bool  { return less(h[i], h[k]) }
func (h itemHeap) Swap(i, k int)       { h[i], h[k] = h[k], h[i] }

func (h *itemHeap) Push(x interface{}) {
	*h = append(*h, x.(job.Job))
}

func (h *itemHeap) Pop() interface{} {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}
