// Package stage defines the contract the orchestrator needs from each
// concrete pipeline stage and the typed error stages fail with.
//
// A stage receives exactly the artifacts its descriptor declares and returns
// exactly one artifact. Anything a stage does internally, including retries
// against a generative backend, stays behind this seam.
package stage
