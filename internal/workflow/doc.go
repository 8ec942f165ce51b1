// Package workflow drives pipeline runs. The Orchestrator executes one run's
// stage graph with batch parallelism, failure policies, and checkpointing at
// stage boundaries. The Supervisor owns run lifecycle across the process:
// starting, resuming, cancelling, and reporting runs, with a file lock
// guaranteeing a single live run per data directory.
package workflow
