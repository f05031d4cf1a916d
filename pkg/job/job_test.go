package job

import (
	"testing"
	"time"
)

func TestNewJobIsPending(t *testing.T) {
	j := New(time.Now().Unix(), 5, "test", "noop", 3)

	if j.Status != StatusPending {
		t.Fatalf("new job status = %s, want Pending", j.Status)
	}
	if j.ID == "" {
		t.Fatal("new job should be assigned a non-empty ID")
	}
	if j.RetryCount != 0 {
		t.Fatalf("new job retry count = %d, want 0", j.RetryCount)
	}
}

func TestNewJobIDsAreUnique(t *testing.T) {
	a := New(0, 0, "a", "noop", 0)
	b := New(0, 0, "b", "noop", 0)

	if a.ID == b.ID {
		t.Fatal("two jobs constructed separately must not share an ID")
	}
}

func TestLifecycleSuccessPath(t *testing.T) {
	j := New(time.Now().Unix(), 1, "test", "noop", 1)

	j.MarkRunning()
	if j.Status != StatusRunning {
		t.Fatalf("status after MarkRunning = %s, want Running", j.Status)
	}

	j.MarkSuccess()
	if j.Status != StatusSuccess {
		t.Fatalf("status after MarkSuccess = %s, want Success", j.Status)
	}
}

func TestLifecycleFailurePath(t *testing.T) {
	j := New(time.Now().Unix(), 1, "test", "noop", 1)
	j.MarkRunning()
	j.MarkFailed()

	if j.Status != StatusFailed {
		t.Fatalf("status after MarkFailed = %s, want Failed", j.Status)
	}
}

func TestLifecycleRetryPath(t *testing.T) {
	j := New(time.Now().Unix(), 1, "test", "noop", 2)
	j.MarkRunning()

	if !j.ShouldRetry() {
		t.Fatal("job with retry_count 0 < max_retries 2 should retry")
	}
	j.IncrementRetry()
	j.MarkPendingForRetry()

	if j.Status != StatusPending {
		t.Fatalf("status after MarkPendingForRetry = %s, want Pending", j.Status)
	}
	if j.RetryCount != 1 {
		t.Fatalf("retry count = %d, want 1", j.RetryCount)
	}
}

func TestShouldRetryRespectsMaxRetries(t *testing.T) {
	j := New(0, 0, "x", "noop", 1)
	j.RetryCount = 1

	if j.ShouldRetry() {
		t.Fatal("ShouldRetry should be false once retry_count reaches max_retries")
	}
}

// Status transitions outside the lifecycle graph are programmer errors: the
// spec requires they be detected, so each Mark* method panics rather than
// silently accepting an illegal transition.

func TestMarkRunningPanicsOutsidePending(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("MarkRunning on a non-Pending job should panic")
		}
	}()
	j := New(0, 0, "x", "noop", 0)
	j.MarkRunning()
	j.MarkRunning() // already Running, illegal
}

func TestMarkSuccessPanicsOutsideRunning(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("MarkSuccess on a Pending job should panic")
		}
	}()
	j := New(0, 0, "x", "noop", 0)
	j.MarkSuccess()
}

func TestMarkFailedPanicsOutsideRunning(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("MarkFailed on a Pending job should panic")
		}
	}()
	j := New(0, 0, "x", "noop", 0)
	j.MarkFailed()
}

func TestMarkPendingForRetryPanicsOutsideRunning(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("MarkPendingForRetry on a Pending job should panic")
		}
	}()
	j := New(0, 0, "x", "noop", 1)
	j.MarkPendingForRetry()
}

func TestResolveExecutionTimeAbsolute(t *testing.T) {
	now := time.Unix(2_000_000_000, 0)
	const absolute int64 = 1_700_000_000 // >= 1e9, treated as an absolute timestamp

	got := ResolveExecutionTime(absolute, now)
	if got != absolute {
		t.Fatalf("ResolveExecutionTime(%d) = %d, want %d unchanged", absolute, got, absolute)
	}
}

func TestResolveExecutionTimeOffset(t *testing.T) {
	now := time.Unix(1_000, 0)
	const offset int64 = 30 // < 1e9, treated as seconds from now

	got := ResolveExecutionTime(offset, now)
	want := now.Unix() + offset
	if got != want {
		t.Fatalf("ResolveExecutionTime(%d) = %d, want %d", offset, got, want)
	}
}
