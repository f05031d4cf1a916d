// ============================================================================
// Chronoqueue Worker — Task Execution Unit
// ============================================================================
//
// Package: internal/worker
// File: worker.go
// Purpose: Resolves symbolic function names and executes jobs handed to it
// by the TimePriorityEngine.
//
// Execution protocol (spec §4.5):
//   1. Emit "[Worker] Executing '<description>'".
//   2. Look up job.Function in the registry.
//   3. Not found: apply retry policy as a failure, log "No function
//      registered for '<name>'".
//   4. Found: invoke it with the log channel. A panic is caught, converted
//      to a failure outcome, and does not terminate the worker loop.
//   5. Success: mark Success, log "[Worker] Done '<description>'".
//   6. Failure with retries left: increment retry_count, reset to Pending,
//      reinsert into the queue immediately — a message back to the queue
//      rather than a loop in worker control flow. Exhausted: mark Failed.
//
// Concurrency: a single dedicated goroutine drains the dispatch channel;
// jobs execute sequentially, matching spec's baseline (a multi-worker pool
// is a permissible but non-required extension — see pool.go).
//
// ============================================================================

package worker

import (
	"fmt"
	"time"

	"github.com/ChuLiYu/chronoqueue/internal/metrics"
	"github.com/ChuLiYu/chronoqueue/internal/queue"
	"github.com/ChuLiYu/chronoqueue/pkg/job"
)

// Worker executes jobs handed to it over a dispatch channel, resolving
// their Function against a Registry.
type Worker struct {
	registry   *Registry
	queue      *queue.Manager
	dispatchCh <-chan job.Job
	logCh      chan<- string
	metrics    *metrics.Collector
}

// New creates a Worker. metrics may be nil.
func New(registry *Registry, q *queue.Manager, dispatchCh <-chan job.Job, logCh chan<- string, mc *metrics.Collector) *Worker {
	return &Worker{
		registry:   registry,
		queue:      q,
		dispatchCh: dispatchCh,
		logCh:      logCh,
		metrics:    mc,
	}
}

// Run drains the dispatch channel until it is closed, executing jobs
// sequentially, and returns once any in-flight job has been handled.
func (w *Worker) Run() {
	for j := range w.dispatchCh {
		w.runJob(j)
	}
}

func (w *Worker) runJob(j job.Job) {
	w.emit("[Worker] Executing '%s'", j.Description)

	fn, ok := w.registry.Lookup(j.Function)
	if !ok {
		w.emit("[Worker] No function registered for '%s'", j.Function)
		w.handleFailure(&j)
		return
	}

	if w.invoke(fn) {
		j.MarkSuccess()
		w.emit("[Worker] Done '%s'", j.Description)
		if w.metrics != nil {
			w.metrics.RecordCompleted()
			w.observeLatency(j)
		}
		return
	}

	w.handleFailure(&j)
}

// invoke runs fn, catching any panic and converting it to a failure
// outcome so a misbehaving handler never takes down the worker loop.
func (w *Worker) invoke(fn Func) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			w.emit("[Worker] handler panicked: %v", r)
		}
	}()
	fn(w.logCh)
	return true
}

func (w *Worker) handleFailure(j *job.Job) {
	if j.ShouldRetry() {
		j.IncrementRetry()
		j.MarkPendingForRetry()
		w.queue.Reinsert(*j)
		w.emit("[Worker] Requeued '%s' (attempt %d/%d)", j.Description, j.RetryCount, j.MaxRetries)
		if w.metrics != nil {
			w.metrics.RecordRetried()
		}
		return
	}

	j.MarkFailed()
	w.emit("[Worker] Failed '%s' after %d attempts", j.Description, j.RetryCount)
	if w.metrics != nil {
		w.metrics.RecordDead()
		w.observeLatency(*j)
	}
}

// observeLatency records dispatch-to-terminal-outcome latency for a job
// that just reached Success or Failed. A job with a zero DispatchedAt was
// never stamped by the engine (only possible in tests that dispatch a job
// directly), so there's nothing to measure.
func (w *Worker) observeLatency(j job.Job) {
	if j.DispatchedAt.IsZero() {
		return
	}
	w.metrics.ObserveLatency(time.Since(j.DispatchedAt).Seconds())
}

// emit sends a log line, blocking until the consumer (an unbounded log
// channel pump, see internal/cli) accepts it, rather than dropping it when
// a bounded buffer would be full — spec §4.5/§6 requires the log channel to
// be unbounded.
func (w *Worker) emit(format string, args ...interface{}) {
	w.logCh <- fmt.Sprintf(format, args...)
}
