// Package pipeline models the static stage graph: descriptors declaring what
// each stage consumes and produces, failure-policy tags, and the dependency
// graph that yields deterministic execution order and ready sets.
//
// The graph is computed once at orchestrator construction and never mutated.
// Stage declaration order is the tie-break whenever several stages become
// ready simultaneously, which keeps single-threaded execution deterministic.
package pipeline
