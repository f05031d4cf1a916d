// ============================================================================
// Chronoqueue CLI — Demo Seeding
// ============================================================================
//
// Package: internal/cli
// File: demo.go
// Purpose: Gives the scheduler a minimal concrete front-end to run
// end-to-end against when the persisted queue is empty on startup,
// grounded in the teacher's cmd/demo seeding of placeholder work.
//
// ============================================================================

package cli

import (
	"time"

	"github.com/ChuLiYu/chronoqueue/internal/queue"
	"github.com/ChuLiYu/chronoqueue/internal/worker"
	"github.com/ChuLiYu/chronoqueue/pkg/job"
)

// RegisterDemoFunctions registers the symbolic functions the demo jobs refer
// to by name.
func RegisterDemoFunctions(r *worker.Registry) {
	r.Register("backup_database", func(logCh chan<- string) {
		logCh <- "[Job] Backing up database..."
		time.Sleep(100 * time.Millisecond)
		logCh <- "[Job] Database backup complete"
	})
	r.Register("send_emails", func(logCh chan<- string) {
		logCh <- "[Job] Sending queued emails..."
		time.Sleep(50 * time.Millisecond)
		logCh <- "[Job] Emails sent"
	})
	r.Register("apply_hotfix", func(logCh chan<- string) {
		logCh <- "[Job] Applying hotfix..."
		panic("hotfix script exited non-zero")
	})
}

// seedDemoJobs pushes the scenario's three named jobs onto q: a low-priority
// backup due shortly, a routine email send, and an urgent hotfix that fails
// and exhausts its retries so the scheduler's retry path has something to
// demonstrate out of the box.
func seedDemoJobs(q *queue.Manager, defaultMaxRetries int) {
	now := time.Now()

	q.Push(job.New(now.Add(5*time.Second).Unix(), 1, "Backup Database", "backup_database", defaultMaxRetries))
	q.Push(job.New(now.Add(2*time.Second).Unix(), 5, "Send Emails", "send_emails", defaultMaxRetries))
	q.Push(job.New(now.Unix(), 10, "Urgent Hotfix", "apply_hotfix", 2))
}
