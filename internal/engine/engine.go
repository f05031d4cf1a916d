// ============================================================================
// Chronoqueue Time-Priority Engine — Dispatch Loop
// ============================================================================
//
// Package: internal/engine
// File: engine.go
// Purpose: Ticks at a fixed period, pulls every ready job off the queue in
// the queue's order (execution time, then priority, then ID), and hands each
// to the dispatch channel for the worker to execute.
//
// Loop (spec §4.4):
//   1. Every tick, call queue.PopReady(now).
//   2. For each ready job, in order: mark it Running, then send it on the
//      dispatch channel. Marking happens before the send so a job is never
//      observably Pending while simultaneously in flight.
//   3. Emit "[Engine] Dispatched '<description>' (priority <n>)".
//   4. A send that cannot complete (dispatch channel closed, consumer gone)
//      is treated as a soft stop: the in-flight job is reinserted as
//      Pending, the event is logged, and the loop exits rather than
//      blocking forever or dropping the job.
//
// Start()/Stop() are idempotent and safe to call from any goroutine. The tick
// loop goroutine does not read running; it exits when Stop closes the done
// channel. done and stopped are created once in New, so an Engine is
// single-use: it is not restarted by calling Start after Stop.
//
// ============================================================================

package engine

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ChuLiYu/chronoqueue/internal/metrics"
	"github.com/ChuLiYu/chronoqueue/internal/queue"
	"github.com/ChuLiYu/chronoqueue/pkg/job"
)

// TickPeriod is the interval at which the engine checks the queue for ready
// jobs.
const TickPeriod = 500 * time.Millisecond

// Engine polls the queue on a fixed tick and dispatches ready jobs.
type Engine struct {
	queue      *queue.Manager
	dispatchCh chan<- job.Job
	logCh      chan<- string
	metrics    *metrics.Collector

	running int32
	done    chan struct{}
	stopped chan struct{}
}

// New constructs an Engine. metrics may be nil.
func New(q *queue.Manager, dispatchCh chan<- job.Job, logCh chan<- string, mc *metrics.Collector) *Engine {
	return &Engine{
		queue:      q,
		dispatchCh: dispatchCh,
		logCh:      logCh,
		metrics:    mc,
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}
}

// Start launches the tick loop in its own goroutine. Calling Start on an
// already-running engine is a no-op.
func (e *Engine) Start() {
	if !atomic.CompareAndSwapInt32(&e.running, 0, 1) {
		return
	}
	e.emit("[Engine] Starting (tick period %s)", TickPeriod)
	go e.run()
}

// Stop signals the tick loop to exit and blocks until it has: wiring's
// shutdown order (stop the engine, then close the dispatch channel) only
// holds if the engine is guaranteed to have stopped dispatching by the time
// Stop returns. Calling Stop on an already-stopped engine is a no-op.
func (e *Engine) Stop() {
	if !atomic.CompareAndSwapInt32(&e.running, 1, 0) {
		return
	}
	close(e.done)
	<-e.stopped
}

// IsRunning reports whether the tick loop is active.
func (e *Engine) IsRunning() bool {
	return atomic.LoadInt32(&e.running) == 1
}

func (e *Engine) run() {
	ticker := time.NewTicker(TickPeriod)
	defer ticker.Stop()
	defer close(e.stopped)

	for {
		select {
		case <-e.done:
			e.emit("[Engine] Stopped")
			return
		case now := <-ticker.C:
			if !e.tick(now) {
				return
			}
		}
	}
}

// tick pops every ready job and dispatches it, in order. It returns false if
// a send failed and the loop should exit.
func (e *Engine) tick(now time.Time) bool {
	ready := e.queue.PopReady(now)
	for _, j := range ready {
		if !e.dispatch(j) {
			return false
		}
	}
	if e.metrics != nil {
		e.metrics.SetPending(e.queue.Len())
	}
	return true
}

// dispatch marks j Running and sends it on the dispatch channel, blocking
// until the worker accepts it — backpressure is the point, a busy worker
// should stall the engine rather than drop work. If the channel has been
// closed (worker shut down), the send panics; that panic is the signal for
// a soft stop: j is reinserted as Pending and the loop exits instead of
// dispatching into the void.
func (e *Engine) dispatch(j job.Job) (ok bool) {
	j.MarkRunning()
	j.DispatchedAt = time.Now()

	defer func() {
		if r := recover(); r != nil {
			j.Status = job.StatusPending
			e.queue.Reinsert(j)
			e.emit("[Engine] Dispatch channel closed, requeued '%s'", j.Description)
			ok = false
		}
	}()

	e.dispatchCh <- j
	e.emit("[Engine] Dispatched '%s' (priority %d)", j.Description, j.Priority)
	if e.metrics != nil {
		e.metrics.RecordDispatch()
	}
	return true
}

// emit sends a log line, blocking until the consumer (an unbounded log
// channel pump, see internal/cli) accepts it. Spec §4.4/§6 requires the log
// channel to be unbounded and guarantees at least one dispatch line per job;
// a drop-on-full send would silently break that guarantee.
func (e *Engine) emit(format string, args ...interface{}) {
	if e.logCh == nil {
		return
	}
	e.logCh <- fmt.Sprintf(format, args...)
}
