// Package checkpoint persists run state and artifact payloads in SQLite so an
// interrupted pipeline can resume at its completed-stage frontier.
//
// The Store manages database connections, schema initialization, and the
// atomic save that writes one run-state row plus any newly produced artifacts
// in a single transaction. Checkpoints are only ever taken at stage
// boundaries, so a loaded checkpoint never describes a half-executed stage.
//
// The RunState model defined here is the single source of truth for run
// lifecycle semantics; the workflow package mutates it and everything else
// reads snapshots. Schema changes bump the version in schema.go; users clear
// the database to adopt the new schema.
package checkpoint
