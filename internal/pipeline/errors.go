package pipeline

import "errors"

var (
	// ErrCycle reports that declared stage dependencies are not acyclic.
	ErrCycle = errors.New("dependency cycle")
	// ErrDeadlock reports that no stage is ready although the run is not
	// complete. Both indicate programming errors and always abort the run.
	ErrDeadlock = errors.New("pipeline deadlock")
)
