// Package config loads, normalizes, and validates shortfilm configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// SHORTFILM_API_KEY. The Config type centralizes every knob the pipeline and
// CLI need: data/output directories, generative backend credentials and model
// names, orchestration timing, and per-stage failure policies.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical policy tags, and clear validation errors.
package config
