package stage

import (
	"errors"
	"fmt"
)

// ExecutionError reports that a concrete stage failed. The cause may be an
// upstream service failure, a malformed response, or a local I/O failure.
type ExecutionError struct {
	Stage string
	Cause error
}

func (e *ExecutionError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("stage %s failed", e.Stage)
	}
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Cause)
}

func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// Fail wraps a cause into an ExecutionError for the given stage. Already
// wrapped errors pass through unchanged.
func Fail(stageID string, cause error) error {
	if cause == nil {
		return nil
	}
	var execErr *ExecutionError
	if errors.As(cause, &execErr) {
		return cause
	}
	return &ExecutionError{Stage: stageID, Cause: cause}
}

// AsExecutionError extracts an ExecutionError from an error chain.
func AsExecutionError(err error) (*ExecutionError, bool) {
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr, true
	}
	return nil, false
}
