// Package generative wraps the HTTP API of the generative backend the
// pipeline stages call: JSON chat completions, image generation, speech
// synthesis, and asynchronous video synthesis jobs.
//
// The client retries transient failures with bounded exponential backoff and
// honours Retry-After hints. Everything stages need from the backend goes
// through this client so request headers, timeouts, and error classification
// stay in one place.
package generative
