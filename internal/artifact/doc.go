// Package artifact defines the typed outputs pipeline stages produce and the
// write-once in-memory store that holds them for the duration of a run.
//
// Each artifact identifier maps to exactly one payload type and one producing
// stage. Artifacts are immutable once stored; a second Put for the same
// identifier is a contract violation. The codec round-trips artifacts through
// JSON so the checkpoint store can persist and restore them losslessly.
package artifact
