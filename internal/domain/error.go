package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrTransport       = errors.New("transport failure")
	ErrJobFailed       = errors.New("job failed")
	ErrJobCancelled    = errors.New("job cancelled")
	ErrPollTimeout     = errors.New("poll deadline exceeded")
	ErrResultNotReady  = errors.New("job result not ready")
	ErrJobTerminal     = errors.New("job already in a terminal state")
	ErrRateLimited     = errors.New("rate limited")
)
