package scheduler

import "errors"

var (
	// ErrSchedulerNotRunning is returned when a sweep is submitted to a stopped scheduler
	ErrSchedulerNotRunning = errors.New("sweep scheduler is not running")

	// ErrJobQueueFull is returned when the sweep queue has no room left
	ErrJobQueueFull = errors.New("sweep queue is full")

	// ErrJobNotFound is returned for unknown sweep job ids
	ErrJobNotFound = errors.New("sweep job not found")

	ErrInvalidConfig = errors.New("invalid sweep scheduler configuration")

	// ErrSweepTimeout is returned when a sweep job exceeds its timeout
	ErrSweepTimeout = errors.New("order sweep timed out")

	// ErrSweepSiteUnknown is returned for sites missing from the configured set
	ErrSweepSiteUnknown = errors.New("site is not configured for order sweeps")

	// ErrSweepInvalidWindow is returned when a manual sweep starts in the future
	ErrSweepInvalidWindow = errors.New("invalid order sweep window")
)
