package stress

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wesleyorama2/strain/internal/logging"
	"github.com/wesleyorama2/strain/internal/metrics"
)

// DefaultPause is the sleep between two iterations of a worker.
const DefaultPause = 100 * time.Millisecond

// WorkerState is the lifecycle state of a Worker.
type WorkerState int32

const (
	// WorkerCreated indicates the worker has not been started.
	WorkerCreated WorkerState = iota
	// WorkerRunning indicates the worker's loop is executing.
	WorkerRunning
	// WorkerStopped indicates the loop ended, normally because of Stop.
	WorkerStopped
	// WorkerFailed indicates the worker could not start or its execution died.
	WorkerFailed
)

func (s WorkerState) String() string {
	switch s {
	case WorkerCreated:
		return "created"
	case WorkerRunning:
		return "running"
	case WorkerStopped:
		return "stopped"
	case WorkerFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// WorkerConfig contains the settings of a single worker.
type WorkerConfig struct {
	Method       Method
	MemorySizeMB int

	// Pause between iterations (default: DefaultPause, negative disables)
	Pause time.Duration

	// Launcher executes the loop (default: GoroutineLauncher)
	Launcher Launcher

	// Metrics receives iteration timings (optional)
	Metrics *metrics.Engine

	// Logger (default: no-op)
	Logger logging.Logger
}

// Worker runs one stress loop until it is stopped.
type Worker struct {
	ID           int
	Name         string
	Method       Method
	MemorySizeMB int

	counters *SharedCounters
	metrics  *metrics.Engine
	launcher Launcher
	log      logging.Logger
	pause    time.Duration

	state atomic.Int32

	mu   sync.Mutex
	exec Execution
}

// NewWorker creates a worker wired to counters. The worker does nothing
// until Start is called.
func NewWorker(id int, cfg WorkerConfig, counters *SharedCounters) *Worker {
	name := fmt.Sprintf("worker-%d", id)

	pause := cfg.Pause
	if pause == 0 {
		pause = DefaultPause
	}
	if pause < 0 {
		pause = 0
	}

	launcher := cfg.Launcher
	if launcher == nil {
		launcher = &GoroutineLauncher{}
	}

	var log logging.Logger = logging.NewNop()
	if cfg.Logger != nil {
		log = cfg.Logger
	}

	return &Worker{
		ID:           id,
		Name:         name,
		Method:       cfg.Method,
		MemorySizeMB: cfg.MemorySizeMB,
		counters:     counters,
		metrics:      cfg.Metrics,
		launcher:     launcher,
		log:          log.With("worker", name, "method", string(cfg.Method)),
		pause:        pause,
	}
}

// State returns the current lifecycle state.
func (w *Worker) State() WorkerState {
	if exec := w.execution(); exec != nil {
		select {
		case <-exec.Done():
			w.settle(exec)
		default:
		}
	}
	return WorkerState(w.state.Load())
}

// Start launches the worker's loop and returns without waiting for it.
//
// An unknown method or memory size is reported here as a *ConfigError; a
// launch failure is reported as a *WorkerError and leaves the worker Failed.
func (w *Worker) Start(ctx context.Context) error {
	if !w.Method.Valid() {
		return &ConfigError{Field: "method", Value: string(w.Method), Err: ErrUnknownMethod}
	}
	if w.Method == MethodMemory && w.MemorySizeMB < 1 {
		return &ConfigError{Field: "memorySizeMB", Value: w.MemorySizeMB, Err: ErrInvalidMemorySize}
	}

	if !w.state.CompareAndSwap(int32(WorkerCreated), int32(WorkerRunning)) {
		return &WorkerError{Worker: w.Name, Op: "start", Err: ErrAlreadyStarted}
	}

	exec, err := w.launcher.Launch(ctx, w)
	if err != nil {
		w.state.Store(int32(WorkerFailed))
		return &WorkerError{Worker: w.Name, Op: "start", Err: err}
	}

	w.mu.Lock()
	w.exec = exec
	w.mu.Unlock()

	go w.watch(exec)

	w.log.Debug("worker started")
	return nil
}

// watch records how the execution ended.
func (w *Worker) watch(exec Execution) {
	<-exec.Done()
	w.settle(exec)
}

// settle moves a running worker whose execution has ended to Stopped or
// Failed. Only the first caller changes the state.
func (w *Worker) settle(exec Execution) {
	if err := exec.Err(); err != nil {
		if w.state.CompareAndSwap(int32(WorkerRunning), int32(WorkerFailed)) {
			w.log.Error("worker died", "error", err)
		}
		return
	}
	w.state.CompareAndSwap(int32(WorkerRunning), int32(WorkerStopped))
}

func (w *Worker) execution() Execution {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.exec
}

// IsAlive reports whether the worker's loop is still executing.
func (w *Worker) IsAlive() bool {
	exec := w.execution()
	if exec == nil {
		return false
	}
	select {
	case <-exec.Done():
		return false
	default:
		return true
	}
}

// Join waits up to timeout for the loop to end and reports whether it has.
func (w *Worker) Join(timeout time.Duration) bool {
	return w.JoinContext(context.Background(), timeout)
}

// JoinContext is Join that also gives up when ctx is done.
func (w *Worker) JoinContext(ctx context.Context, timeout time.Duration) bool {
	exec := w.execution()
	if exec == nil {
		return true
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-exec.Done():
		return true
	case <-timer.C:
		return false
	case <-ctx.Done():
		return false
	}
}

// Stop forces the loop to end wherever it currently is. Stopping a worker
// that is not running is a no-op.
func (w *Worker) Stop() error {
	exec := w.execution()
	if exec == nil {
		return nil
	}

	select {
	case <-exec.Done():
		w.settle(exec)
		return nil
	default:
	}

	if err := exec.Kill(); err != nil {
		return &WorkerError{Worker: w.Name, Op: "stop", Err: err}
	}

	w.settle(exec)
	w.log.Debug("worker stopped")
	return nil
}

// recordIteration counts one completed iteration.
func (w *Worker) recordIteration(d time.Duration) {
	w.counters.Increment(w.Method)
	if w.metrics != nil {
		w.metrics.RecordIteration(string(w.Method), d)
	}
}

// iterationFailed logs a faulted iteration; the loop carries on.
func (w *Worker) iterationFailed(err error) {
	w.log.Error("iteration failed", "error", err)
	if w.metrics != nil {
		w.metrics.RecordFailure()
	}
}
