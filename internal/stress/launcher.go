package stress

import (
	"context"
	"fmt"
	"time"
)

// DefaultKillTimeout bounds how long a forced stop waits for the execution
// to actually end.
const DefaultKillTimeout = 5 * time.Second

// Launcher starts the execution of a worker's stress loop.
type Launcher interface {
	Launch(ctx context.Context, w *Worker) (Execution, error)
}

// Execution is a running worker loop.
type Execution interface {
	// Done is closed when the execution has ended.
	Done() <-chan struct{}

	// Err reports why the execution ended. It is nil while running and
	// after a requested Kill.
	Err() error

	// Kill forces the execution to end and waits for it to do so.
	// Killing an ended execution is a no-op.
	Kill() error
}

// NewLauncher returns the default launcher for an isolation mode.
func NewLauncher(isolation Isolation) (Launcher, error) {
	switch isolation {
	case IsolationProcess:
		return &ProcessLauncher{}, nil
	case IsolationGoroutine:
		return &GoroutineLauncher{}, nil
	default:
		return nil, &ConfigError{Field: "isolation", Value: string(isolation), Err: ErrUnknownIsolation}
	}
}

// GoroutineLauncher runs each worker loop in a goroutine of the current
// process.
type GoroutineLauncher struct {
	// KillTimeout bounds Kill (default: DefaultKillTimeout)
	KillTimeout time.Duration
}

// Launch implements Launcher.
func (l *GoroutineLauncher) Launch(ctx context.Context, w *Worker) (Execution, error) {
	unit, err := NewUnit(w.Method, w.MemorySizeMB)
	if err != nil {
		return nil, err
	}

	timeout := l.KillTimeout
	if timeout <= 0 {
		timeout = DefaultKillTimeout
	}

	runCtx, cancel := context.WithCancel(ctx)
	e := &goroutineExecution{
		cancel:  cancel,
		done:    make(chan struct{}),
		timeout: timeout,
	}

	go func() {
		defer close(e.done)
		defer cancel()
		_ = RunLoop(runCtx, unit, w.pause, w.recordIteration, w.iterationFailed)
	}()

	return e, nil
}

type goroutineExecution struct {
	cancel  context.CancelFunc
	done    chan struct{}
	timeout time.Duration
}

func (e *goroutineExecution) Done() <-chan struct{} {
	return e.done
}

// Err is always nil: the loop only ends through cancellation.
func (e *goroutineExecution) Err() error {
	return nil
}

func (e *goroutineExecution) Kill() error {
	e.cancel()

	timer := time.NewTimer(e.timeout)
	defer timer.Stop()

	select {
	case <-e.done:
		return nil
	case <-timer.C:
		return fmt.Errorf("worker loop did not exit within %s", e.timeout)
	}
}
