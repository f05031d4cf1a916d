// ============================================================================
// Chronoqueue Worker Pool — Optional Multi-Worker Extension
// ============================================================================
//
// Package: internal/worker
// File: pool.go
// Purpose: Spec §4.5 allows a multi-worker variant as a permissible
// extension; this runs N Workers concurrently over the same dispatch
// channel instead of the single dedicated goroutine in worker.go.
//
// ============================================================================

package worker

import (
	"sync"

	"github.com/ChuLiYu/chronoqueue/internal/metrics"
	"github.com/ChuLiYu/chronoqueue/internal/queue"
	"github.com/ChuLiYu/chronoqueue/pkg/job"
)

// Pool runs a fixed number of Workers draining a shared dispatch channel.
type Pool struct {
	workers []*Worker
	wg      sync.WaitGroup
}

// NewPool constructs count Workers sharing dispatchCh, registry, queue and
// log channel. count <= 1 behaves like a single Worker.
func NewPool(count int, registry *Registry, q *queue.Manager, dispatchCh <-chan job.Job, logCh chan<- string, mc *metrics.Collector) *Pool {
	if count < 1 {
		count = 1
	}
	p := &Pool{workers: make([]*Worker, 0, count)}
	for i := 0; i < count; i++ {
		p.workers = append(p.workers, New(registry, q, dispatchCh, logCh, mc))
	}
	return p
}

// Start launches every worker's Run loop in its own goroutine.
func (p *Pool) Start() {
	p.wg.Add(len(p.workers))
	for _, w := range p.workers {
		go func(w *Worker) {
			defer p.wg.Done()
			w.Run()
		}(w)
	}
}

// Wait blocks until every worker has drained and exited (i.e. the shared
// dispatch channel has been closed).
func (p *Pool) Wait() {
	p.wg.Wait()
}
