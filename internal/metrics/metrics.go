// ============================================================================
// Chronoqueue Metrics - Prometheus Monitoring
// ============================================================================
//
// Package: internal/metrics
// File: metrics.go
// Purpose: Collect and expose scheduler metrics for Prometheus monitoring
//
// Metric Categories:
//
//   1. Job Counters - Cumulative, monotonically increasing:
//      - scheduler_jobs_pushed_total: Total jobs pushed onto the queue
//      - scheduler_jobs_dispatched_total: Total jobs dispatched to the worker
//      - scheduler_jobs_completed_total: Total jobs that reached Success
//      - scheduler_jobs_retried_total: Total failed attempts that were requeued
//      - scheduler_jobs_dead_total: Total jobs that reached terminal Failed
//
//   2. Performance Metrics (Histogram):
//      - scheduler_job_latency_seconds: dispatch-to-terminal-outcome latency
//
//   3. Status Metrics (Gauge):
//      - scheduler_jobs_pending: Current size of the pending queue
//
// HTTP Endpoint:
//   Exposed via /metrics, scraped by Prometheus. Default port: 9090.
//
// ============================================================================

package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector collects Prometheus metrics for the scheduler.
type Collector struct {
	jobsPushed     prometheus.Counter
	jobsDispatched prometheus.Counter
	jobsCompleted  prometheus.Counter
	jobsRetried    prometheus.Counter
	jobsDead       prometheus.Counter

	jobLatency prometheus.Histogram

	jobsPending prometheus.Gauge
}

// NewCollector creates and registers a new metrics collector.
func NewCollector() *Collector {
	c := &Collector{
		jobsPushed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scheduler_jobs_pushed_total",
			Help: "Total number of jobs pushed onto the queue",
		}),
		jobsDispatched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scheduler_jobs_dispatched_total",
			Help: "Total number of jobs dispatched to the worker",
		}),
		jobsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scheduler_jobs_completed_total",
			Help: "Total number of jobs that completed successfully",
		}),
		jobsRetried: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scheduler_jobs_retried_total",
			Help: "Total number of failed attempts requeued for retry",
		}),
		jobsDead: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scheduler_jobs_dead_total",
			Help: "Total number of jobs that exhausted retries and failed terminally",
		}),
		jobLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "scheduler_job_latency_seconds",
			Help:    "Dispatch-to-terminal-outcome latency in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		jobsPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scheduler_jobs_pending",
			Help: "Current number of pending jobs in the queue",
		}),
	}

	prometheus.MustRegister(
		c.jobsPushed,
		c.jobsDispatched,
		c.jobsCompleted,
		c.jobsRetried,
		c.jobsDead,
		c.jobLatency,
		c.jobsPending,
	)

	return c
}

// RecordPushed records a job being pushed onto the queue.
func (c *Collector) RecordPushed() {
	c.jobsPushed.Inc()
}

// RecordDispatch records a job being removed from the queue and handed to
// the worker.
func (c *Collector) RecordDispatch() {
	c.jobsDispatched.Inc()
}

// RecordCompleted records a job reaching Success.
func (c *Collector) RecordCompleted() {
	c.jobsCompleted.Inc()
}

// RecordRetried records a failed attempt that still had retry budget left.
func (c *Collector) RecordRetried() {
	c.jobsRetried.Inc()
}

// RecordDead records a job exhausting its retries and reaching Failed.
func (c *Collector) RecordDead() {
	c.jobsDead.Inc()
}

// ObserveLatency records dispatch-to-terminal-outcome latency in seconds.
func (c *Collector) ObserveLatency(seconds float64) {
	c.jobLatency.Observe(seconds)
}

// SetPending updates the current pending-queue depth gauge.
func (c *Collector) SetPending(n int) {
	c.jobsPending.Set(float64(n))
}

// StartServer starts the Prometheus metrics HTTP server on the given port.
func StartServer(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	addr := fmt.Sprintf(":%d", port)
	return http.ListenAndServe(addr, mux)
}
