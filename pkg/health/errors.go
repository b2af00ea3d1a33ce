package health

import "errors"

// Check outcomes reported in readiness responses.
var (
	ErrCheckFailed   = errors.New("health: dependency check failed")
	ErrCheckPanicked = errors.New("health: dependency check panicked")
	ErrCheckTimeout  = errors.New("health: dependency check timed out")
)
