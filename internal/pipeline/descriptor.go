package pipeline

import (
	"strings"

	"shortfilm/internal/artifact"
)

// Policy tags how the orchestrator reacts when a stage fails.
type Policy string

const (
	// PolicyFatal aborts the run on failure.
	PolicyFatal Policy = "fatal"
	// PolicySkippable records the failure and continues without the artifact.
	PolicySkippable Policy = "skippable"
	// PolicyRetryable retries with backoff, degrading to skippable when
	// attempts are exhausted.
	PolicyRetryable Policy = "retryable"
)

// ParsePolicy converts a string into a known Policy.
func ParsePolicy(value string) (Policy, bool) {
	switch Policy(strings.ToLower(strings.TrimSpace(value))) {
	case PolicyFatal:
		return PolicyFatal, true
	case PolicySkippable:
		return PolicySkippable, true
	case PolicyRetryable:
		return PolicyRetryable, true
	default:
		return "", false
	}
}

// Descriptor is the static metadata for one stage. Descriptors are created at
// orchestrator construction and immutable thereafter.
type Descriptor struct {
	// ID is the stage identifier, unique within a graph.
	ID string
	// Produces is the artifact identifier this stage writes.
	Produces artifact.ID
	// Requires lists artifacts that must be present for the stage to run.
	// A required artifact whose producer was skipped skips this stage too.
	Requires []artifact.ID
	// Optional lists artifacts the stage uses when present but can proceed
	// without.
	Optional []artifact.ID
	// Policy is the failure-policy tag applied when execution fails.
	Policy Policy
}

// Dependencies returns every artifact the stage consumes, required first.
func (d Descriptor) Dependencies() []artifact.ID {
	deps := make([]artifact.ID, 0, len(d.Requires)+len(d.Optional))
	deps = append(deps, d.Requires...)
	deps = append(deps, d.Optional...)
	return deps
}
