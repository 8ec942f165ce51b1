package checkpoint

import "errors"

var (
	// ErrNotFound reports that no checkpoint exists for the requested run.
	ErrNotFound = errors.New("checkpoint not found")
	// ErrCorrupt reports that a stored checkpoint cannot be deserialized.
	ErrCorrupt = errors.New("checkpoint corrupt")
)
