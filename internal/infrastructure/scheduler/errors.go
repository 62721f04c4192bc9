package scheduler

import "errors"

var (
	// ErrSchedulerNotRunning is returned when submitting to a stopped scheduler
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrJobQueueFull is returned when the job queue is full
	ErrJobQueueFull = errors.New("job queue is full")

	// ErrJobAlreadyQueued is returned when a job with the same ID is queued or running
	ErrJobAlreadyQueued = errors.New("job already queued")

	// ErrRetryLater can be wrapped by executors for failures worth retrying
	ErrRetryLater = errors.New("retry later")
)
