// Package services holds cross-cutting helpers shared by the pipeline and its
// external collaborators: sentinel error markers with a uniform wrapping
// helper, and context annotations (run, stage, correlation identifiers) that
// loggers and clients read back out.
package services
