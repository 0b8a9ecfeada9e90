package reflow

import "errors"

// Sentinel errors returned by the Consumer.
var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrTransportRequired is returned when the transport is nil.
	ErrTransportRequired = errors.New("transport is required")

	// ErrQueueRequired is returned when no queue name is configured.
	ErrQueueRequired = errors.New("queue name is required")

	// ErrAlreadyRunning is returned when Run is called on a consumer that
	// is already running.
	ErrAlreadyRunning = errors.New("consumer already running")
)
