package stress

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidWorkers is returned when the worker count is below one.
	ErrInvalidWorkers = errors.New("worker count must be at least 1")
	// ErrInvalidMemorySize is returned when the memory block size is below one megabyte.
	ErrInvalidMemorySize = errors.New("memory size must be at least 1 MB")
	// ErrUnknownMethod is returned for a stress method other than cpu or memory.
	ErrUnknownMethod = errors.New("unknown stress method")
	// ErrUnknownIsolation is returned for an unsupported isolation mode.
	ErrUnknownIsolation = errors.New("unknown isolation mode")
	// ErrNoWorkersStarted is returned by Pool.Start when every worker failed to start.
	ErrNoWorkersStarted = errors.New("no workers could be started")
	// ErrAlreadyStarted is returned when Start is called twice on a worker.
	ErrAlreadyStarted = errors.New("worker already started")
)

// ConfigError reports an invalid setting. It is returned before any worker
// is created.
type ConfigError struct {
	Field string
	Value interface{}
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s %v: %v", e.Field, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// WorkerError reports a failure to start or stop a single worker.
type WorkerError struct {
	Worker string
	Op     string
	Err    error
}

func (e *WorkerError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Worker, e.Err)
}

func (e *WorkerError) Unwrap() error {
	return e.Err
}
