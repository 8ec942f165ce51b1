package workflow

import "errors"

var (
	// ErrSuspended reports that a run stopped at a stage boundary on request
	// and can be resumed later.
	ErrSuspended = errors.New("workflow: run suspended")
	// ErrRunFinished reports an attempt to run or resume a terminal run.
	ErrRunFinished = errors.New("workflow: run already finished")
	// ErrAlreadyRunning reports that another run holds the instance lock.
	ErrAlreadyRunning = errors.New("workflow: another run is already in progress")
)
