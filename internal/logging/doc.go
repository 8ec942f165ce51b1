// Package logging builds the slog loggers used across the pipeline and keeps
// structured field names consistent.
//
// It constructs console or JSON handlers from configuration, mirrors output to
// the run log file, re-exports slog attribute constructors so call sites stay
// terse, and derives standard fields (run, stage, correlation id) from context
// annotations set by the services package.
package logging
