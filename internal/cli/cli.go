// ============================================================================
// Chronoqueue CLI - Command Line Interface
// ============================================================================
//
// Package: internal/cli
// File: cli.go
// Purpose: Cobra-based command line interface wiring the scheduler together.
//
// Command Structure:
//   chronoqueue                    # Root command
//   ├── run                        # Start the scheduler
//   │   └── --config, -c          # Specify config file
//   ├── enqueue                    # Submit jobs from a JSON file
//   │   └── --file, -f            # Specify job JSON file
//   ├── remove                     # Remove a pending job by ID
//   ├── status                     # Print queue status
//   └── --version                  # Display version information
//
// Configuration:
//   YAML (default: configs/default.yaml). Fields: worker count,
//   persistence path, metrics port/enabled.
//
// run Command — startup sequence (spec §4.6):
//   1. Load config.
//   2. PersistenceManager.Load() the prior snapshot.
//   3. Create the metrics collector and start its HTTP server, if enabled
//      (before the queue, so Push can record into it).
//   4. Construct the QueueManager; any loaded job left Running is reset to
//      Pending (the queue is the only legitimate home for a job with no
//      worker attached) before being pushed back in.
//   5. Seed the demo set if the queue came up empty.
//   6. Start the persistence writer draining the queue's snapshot channel.
//   7. Start the worker(s) draining the dispatch channel.
//   8. Start the TimePriorityEngine's tick loop.
//   9. Block on SIGINT/SIGTERM, then shut down in reverse order.
//
// ============================================================================

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ChuLiYu/chronoqueue/internal/engine"
	"github.com/ChuLiYu/chronoqueue/internal/metrics"
	"github.com/ChuLiYu/chronoqueue/internal/persistence"
	"github.com/ChuLiYu/chronoqueue/internal/queue"
	"github.com/ChuLiYu/chronoqueue/internal/worker"
	"github.com/ChuLiYu/chronoqueue/pkg/job"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var log = slog.Default()

// Config is the complete scheduler configuration, loaded from YAML.
type Config struct {
	Worker struct {
		Count      int `yaml:"count"`
		MaxRetries int `yaml:"max_retries"`
	} `yaml:"worker"`

	Persistence struct {
		Path string `yaml:"path"`
	} `yaml:"persistence"`

	Metrics struct {
		Enabled bool `yaml:"enabled"`
		Port    int  `yaml:"port"`
	} `yaml:"metrics"`
}

var configFile string

// BuildCLI assembles the root command and its subcommands.
func BuildCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "chronoqueue",
		Short: "Chronoqueue: an in-memory time- and priority-ordered job scheduler",
		Long: `Chronoqueue schedules jobs by absolute execution time and priority,
dispatching ready work to a worker that resolves each job's function by
name, retrying on failure up to a per-job budget, and durably snapshotting
the pending set so it survives a restart.`,
		Version: "1.0.0",
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "configs/default.yaml", "config file path")

	rootCmd.AddCommand(buildRunCommand())
	rootCmd.AddCommand(buildEnqueueCommand())
	rootCmd.AddCommand(buildRemoveCommand())
	rootCmd.AddCommand(buildStatusCommand())

	return rootCmd
}

func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}
	if cfg.Worker.Count < 1 {
		cfg.Worker.Count = 1
	}
	return &cfg, nil
}

// ----------------------------------------------------------------------------
// run
// ----------------------------------------------------------------------------

func buildRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the scheduler",
		Long:  "Load the persisted queue, seed demo jobs if empty, and run until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScheduler()
		},
	}
	return cmd
}

func runScheduler() error {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log.Info("starting chronoqueue", "config", configFile, "workers", cfg.Worker.Count)

	persistMgr := persistence.NewManager(cfg.Persistence.Path)
	loaded, err := persistMgr.Load()
	if err != nil {
		return fmt.Errorf("failed to load persisted queue: %w", err)
	}

	var mc *metrics.Collector
	if cfg.Metrics.Enabled {
		mc = metrics.NewCollector()
		go func() {
			if err := metrics.StartServer(cfg.Metrics.Port); err != nil {
				log.Error("metrics server stopped", "error", err)
			}
		}()
		log.Info("metrics server listening", "port", cfg.Metrics.Port)
	}

	q := queue.New()
	q.SetMetrics(mc)
	for _, j := range loaded {
		// A job persisted mid-flight has no worker attached to it anymore;
		// the queue is the only legitimate home for it now.
		if j.Status == job.StatusRunning {
			j.Status = job.StatusPending
		}
		q.Push(j)
	}
	log.Info("loaded persisted queue", "jobs", len(loaded))

	registry := worker.NewRegistry()
	RegisterDemoFunctions(registry)

	if q.IsEmpty() {
		seedDemoJobs(q, cfg.Worker.MaxRetries)
		log.Info("queue empty on startup, seeded demo jobs")
	}

	persistDone := make(chan struct{})
	go func() {
		persistMgr.Run(q.Snapshots())
		close(persistDone)
	}()

	dispatchCh := make(chan job.Job)
	logSendCh, logRecvCh := newUnboundedLogChannel()
	go drainLogChannel(logRecvCh)

	pool := worker.NewPool(cfg.Worker.Count, registry, q, dispatchCh, logSendCh, mc)
	pool.Start()

	eng := engine.New(q, dispatchCh, logSendCh, mc)
	eng.Start()

	log.Info("chronoqueue started", "registered_functions", registry.Names())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, stopping")

	// Reverse startup order: engine first so no new jobs are dispatched,
	// then the dispatch channel so workers drain and exit, then the
	// snapshot channel so the persistence writer flushes the final state.
	eng.Stop()
	close(dispatchCh)
	pool.Wait()
	q.Close()
	<-persistDone

	log.Info("chronoqueue stopped")
	return nil
}

func drainLogChannel(logCh <-chan string) {
	for line := range logCh {
		fmt.Println(line)
	}
}

// ----------------------------------------------------------------------------
// enqueue
// ----------------------------------------------------------------------------

type jobInput struct {
	ExecutionTime int64  `json:"execution_time"`
	Priority      int    `json:"priority"`
	Description   string `json:"description"`
	Function      string `json:"function"`
	MaxRetries    int    `json:"max_retries"`
}

var (
	ErrEmptyDescription   = errors.New("description must not be empty")
	ErrEmptyFunction      = errors.New("function must not be empty")
	ErrPriorityOutOfRange = errors.New("priority must be in [0, 255]")
)

// validateJobInput rejects malformed submissions before they ever reach the
// queue, per the input-validation row of the error taxonomy: these are
// recoverable errors surfaced to the caller, not failures the worker retries.
func validateJobInput(in jobInput) error {
	if in.Description == "" {
		return ErrEmptyDescription
	}
	if in.Function == "" {
		return ErrEmptyFunction
	}
	if in.Priority < 0 || in.Priority > 255 {
		return ErrPriorityOutOfRange
	}
	return nil
}

func buildEnqueueCommand() *cobra.Command {
	var jobFile string

	cmd := &cobra.Command{
		Use:   "enqueue",
		Short: "Enqueue jobs from a JSON file",
		Long:  "Read job definitions from a JSON file, append them to the persisted queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			if jobFile == "" {
				return fmt.Errorf("job file is required (use --file or -f)")
			}
			return enqueueJobs(jobFile)
		},
	}

	cmd.Flags().StringVarP(&jobFile, "file", "f", "", "JSON file containing job definitions")
	cmd.MarkFlagRequired("file")

	return cmd
}

func enqueueJobs(filePath string) error {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	inputs, err := readJobInputs(filePath)
	if err != nil {
		return err
	}

	persistMgr := persistence.NewManager(cfg.Persistence.Path)
	existing, err := persistMgr.Load()
	if err != nil {
		return fmt.Errorf("failed to load persisted queue: %w", err)
	}

	now := time.Now()
	for i, in := range inputs {
		if err := validateJobInput(in); err != nil {
			return fmt.Errorf("job %d: %w", i, err)
		}
		maxRetries := in.MaxRetries
		if maxRetries == 0 {
			maxRetries = cfg.Worker.MaxRetries
		}
		j := job.New(job.ResolveExecutionTime(in.ExecutionTime, now), in.Priority, in.Description, in.Function, maxRetries)
		existing = append(existing, j)
	}

	if err := persistMgr.Write(existing); err != nil {
		return fmt.Errorf("failed to persist enqueued jobs: %w", err)
	}

	fmt.Printf("Enqueued %d job(s) to %s\n", len(inputs), cfg.Persistence.Path)
	return nil
}

// ----------------------------------------------------------------------------
// remove
// ----------------------------------------------------------------------------

func buildRemoveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <job-id>",
		Short: "Remove a pending job by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return removeJob(job.ID(args[0]))
		},
	}
	return cmd
}

func removeJob(id job.ID) error {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	persistMgr := persistence.NewManager(cfg.Persistence.Path)
	jobs, err := persistMgr.Load()
	if err != nil {
		return fmt.Errorf("failed to load persisted queue: %w", err)
	}

	kept := jobs[:0]
	removed := false
	for _, j := range jobs {
		if j.ID == id {
			removed = true
			continue
		}
		kept = append(kept, j)
	}

	if !removed {
		return fmt.Errorf("no pending job with ID %s", id)
	}

	if err := persistMgr.Write(kept); err != nil {
		return fmt.Errorf("failed to persist queue after removal: %w", err)
	}

	fmt.Printf("Removed job %s\n", id)
	return nil
}

// ----------------------------------------------------------------------------
// status
// ----------------------------------------------------------------------------

func buildStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show queue status",
		Long:  "Display per-status counts of the persisted queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showStatus()
		},
	}
	return cmd
}

func showStatus() error {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	persistMgr := persistence.NewManager(cfg.Persistence.Path)
	jobs, err := persistMgr.Load()
	if err != nil {
		return fmt.Errorf("failed to load persisted queue: %w", err)
	}

	counts := map[job.Status]int{}
	for _, j := range jobs {
		counts[j.Status]++
	}

	fmt.Println()
	fmt.Println("Chronoqueue Status")
	fmt.Println("==================")
	fmt.Printf("Config file:   %s\n", configFile)
	fmt.Printf("Queue file:    %s\n", cfg.Persistence.Path)
	fmt.Printf("Worker count:  %d\n", cfg.Worker.Count)
	fmt.Println()
	fmt.Printf("Total jobs:    %d\n", len(jobs))
	fmt.Printf("  Pending:     %d\n", counts[job.StatusPending])
	fmt.Printf("  Running:     %d\n", counts[job.StatusRunning])
	fmt.Printf("  Success:     %d\n", counts[job.StatusSuccess])
	fmt.Printf("  Failed:      %d\n", counts[job.StatusFailed])
	fmt.Println()

	if cfg.Metrics.Enabled {
		fmt.Printf("Metrics:       enabled on http://localhost:%d/metrics\n", cfg.Metrics.Port)
	} else {
		fmt.Println("Metrics:       disabled")
	}
	fmt.Println()

	return nil
}

func readJobInputs(filePath string) ([]jobInput, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read job file: %w", err)
	}

	var inputs []jobInput
	if err := json.Unmarshal(data, &inputs); err != nil {
		return nil, fmt.Errorf("failed to parse job file: %w", err)
	}
	return inputs, nil
}
