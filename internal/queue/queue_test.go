package queue

import (
	"testing"
	"time"

	"github.com/ChuLiYu/chronoqueue/pkg/job"
)

func TestPushAndSnapshotOrdering(t *testing.T) {
	q := New()
	defer q.Close()

	now := time.Now()
	a := job.New(now.Add(10*time.Second).Unix(), 5, "a", "noop", 0)
	b := job.New(now.Add(5*time.Second).Unix(), 5, "b", "noop", 0)
	c := job.New(now.Add(5*time.Second).Unix(), 9, "c", "noop", 0)

	q.Push(a)
	q.Push(b)
	q.Push(c)

	snap := q.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("snapshot length = %d, want 3", len(snap))
	}

	// c has the earliest time and the highest priority, so it must lead.
	// b ties c on time but loses on priority, so it comes second.
	// a has the latest time, so it trails.
	if snap[0].Description != "c" || snap[1].Description != "b" || snap[2].Description != "a" {
		t.Fatalf("snapshot order = [%s %s %s], want [c b a]", snap[0].Description, snap[1].Description, snap[2].Description)
	}
}

func TestPopReadyOnlyReturnsDueJobs(t *testing.T) {
	q := New()
	defer q.Close()

	now := time.Now()
	due := job.New(now.Add(-time.Second).Unix(), 1, "due", "noop", 0)
	future := job.New(now.Add(time.Hour).Unix(), 1, "future", "noop", 0)

	q.Push(due)
	q.Push(future)

	ready := q.PopReady(now)
	if len(ready) != 1 || ready[0].Description != "due" {
		t.Fatalf("PopReady = %v, want exactly [due]", ready)
	}
	if q.Len() != 1 {
		t.Fatalf("queue length = %d, want 1 (future job should remain)", q.Len())
	}
}

func TestPopReadyOrdersAcrossMultipleDueJobs(t *testing.T) {
	q := New()
	defer q.Close()

	now := time.Now()
	low := job.New(now.Add(-time.Second).Unix(), 1, "low", "noop", 0)
	high := job.New(now.Add(-time.Second).Unix(), 9, "high", "noop", 0)
	earliest := job.New(now.Add(-2*time.Second).Unix(), 1, "earliest", "noop", 0)

	q.Push(low)
	q.Push(high)
	q.Push(earliest)

	ready := q.PopReady(now)
	if len(ready) != 3 {
		t.Fatalf("PopReady length = %d, want 3", len(ready))
	}
	if ready[0].Description != "earliest" || ready[1].Description != "high" || ready[2].Description != "low" {
		t.Fatalf("PopReady order = [%s %s %s], want [earliest high low]",
			ready[0].Description, ready[1].Description, ready[2].Description)
	}
}

func TestRemove(t *testing.T) {
	q := New()
	defer q.Close()

	j := job.New(time.Now().Add(time.Hour).Unix(), 1, "target", "noop", 0)
	q.Push(j)

	if !q.Remove(j.ID) {
		t.Fatal("Remove should report true for an existing job")
	}
	if q.Remove(j.ID) {
		t.Fatal("Remove should report false on a second call for the same ID")
	}
	if !q.IsEmpty() {
		t.Fatal("queue should be empty after removing the only job")
	}
}

func TestReinsertKeepsRetryCount(t *testing.T) {
	q := New()
	defer q.Close()

	now := time.Now()
	j := job.New(now.Add(-time.Second).Unix(), 5, "retry me", "noop", 1)
	q.Push(j)

	ready := q.PopReady(now)
	if len(ready) != 1 {
		t.Fatalf("expected one ready job, got %d", len(ready))
	}
	retried := ready[0]
	retried.Status = job.StatusPending
	retried.RetryCount++
	q.Reinsert(retried)

	if q.Len() != 1 {
		t.Fatalf("queue length after reinsert = %d, want 1", q.Len())
	}

	snap := q.Snapshot()
	if snap[0].RetryCount != 1 {
		t.Fatalf("reinserted job retry count = %d, want 1", snap[0].RetryCount)
	}
}

func TestSnapshotChannelHoldsOnlyLatest(t *testing.T) {
	q := New()
	defer q.Close()

	now := time.Now()
	q.Push(job.New(now.Unix(), 1, "first", "noop", 0))
	q.Push(job.New(now.Unix(), 1, "second", "noop", 0))

	select {
	case snap := <-q.Snapshots():
		if len(snap) != 2 {
			t.Fatalf("latest snapshot length = %d, want 2", len(snap))
		}
	case <-time.After(time.Second):
		t.Fatal("expected a snapshot to be available")
	}
}

func TestCloseDrainsSnapshotConsumer(t *testing.T) {
	q := New()
	q.Push(job.New(time.Now().Unix(), 1, "x", "noop", 0))

	done := make(chan struct{})
	go func() {
		for range q.Snapshots() {
		}
		close(done)
	}()

	q.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consumer should exit once the snapshot channel is closed")
	}
}
