package job

import "errors"

// Job errors.
var (
	// ErrUnknownTask is returned when running a task that is not registered.
	ErrUnknownTask = errors.New("job: unknown task")

	// ErrDuplicateTask is returned when two tasks share a name.
	ErrDuplicateTask = errors.New("job: duplicate task")

	// ErrInvalidSchedule is returned for unparsable cron expressions.
	ErrInvalidSchedule = errors.New("job: invalid schedule")

	// ErrAlreadyStarted is returned when attempting to start a manager
	// that is already running.
	ErrAlreadyStarted = errors.New("job: already started")

	// ErrNotStarted is returned when attempting to stop a manager
	// that is not running.
	ErrNotStarted = errors.New("job: not started")

	// ErrStopped is returned when starting a manager that was stopped.
	ErrStopped = errors.New("job: manager stopped")
)
