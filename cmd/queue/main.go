// ============================================================================
// Chronoqueue - Main Entry Point
// ============================================================================
//
// File: cmd/queue/main.go
// Purpose: Application entry point and CLI initialization
//
// Responsibilities:
//   1. Version Management - Inject build info via ldflags
//   2. Panic Recovery - Catch unexpected panics gracefully
//   3. CLI Setup - Build and configure Cobra command interface
//
// Usage:
//   ./chronoqueue --help               # Show help
//   ./chronoqueue run                  # Start the scheduler
//   ./chronoqueue enqueue -f jobs.json  # Submit jobs
//   ./chronoqueue remove <job-id>       # Remove a pending job
//   ./chronoqueue status                # View queue status
//
// ============================================================================

package main

import (
	"fmt"
	"os"

	"github.com/ChuLiYu/chronoqueue/internal/cli"
)

// Build-time version injection via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "1.0.0"
	commit  = "dev"
	date    = "unknown"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Fatal error: %v\n", r)
			os.Exit(1)
		}
	}()

	rootCmd := cli.BuildCLI()
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
