package stress

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tidwall/gjson"
)

// ProcessLauncher runs each worker in a child process started from the
// current executable.
type ProcessLauncher struct {
	// Executable to run (default: os.Executable())
	Executable string

	// Args precede the --spec argument (default: ["worker"])
	Args []string

	// Env is appended to the parent's environment
	Env []string

	// Stderr receives the child's stderr (default: os.Stderr)
	Stderr io.Writer

	// KillTimeout bounds Kill (default: DefaultKillTimeout)
	KillTimeout time.Duration

	// LogLevel is passed to the child's logger
	LogLevel string
}

// Launch implements Launcher.
func (l *ProcessLauncher) Launch(ctx context.Context, w *Worker) (Execution, error) {
	if !w.Method.Valid() {
		return nil, &ConfigError{Field: "method", Value: string(w.Method), Err: ErrUnknownMethod}
	}

	exe := l.Executable
	if exe == "" {
		var err error
		exe, err = os.Executable()
		if err != nil {
			return nil, fmt.Errorf("locate executable: %w", err)
		}
	}

	spec, err := ChildSpec{
		Worker:       w.Name,
		Method:       w.Method,
		MemorySizeMB: w.MemorySizeMB,
		Pause:        w.pause,
		LogLevel:     l.LogLevel,
	}.Encode()
	if err != nil {
		return nil, err
	}

	args := l.Args
	if args == nil {
		args = []string{"worker"}
	}
	args = append(append([]string{}, args...), "--spec", spec)

	cmd := exec.Command(exe, args...)
	cmd.Env = append(os.Environ(), l.Env...)
	cmd.Stderr = l.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	cmd.SysProcAttr = sysProcAttr()

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	timeout := l.KillTimeout
	if timeout <= 0 {
		timeout = DefaultKillTimeout
	}

	e := &processExecution{
		cmd:     cmd,
		done:    make(chan struct{}),
		timeout: timeout,
	}

	go e.run(stdout, w)
	go func() {
		select {
		case <-ctx.Done():
			_ = e.Kill()
		case <-e.done:
		}
	}()

	return e, nil
}

type processExecution struct {
	cmd     *exec.Cmd
	done    chan struct{}
	timeout time.Duration
	killed  atomic.Bool

	mu  sync.Mutex
	err error
}

// run consumes the child's progress stream, then reaps the child. Reading
// must finish before Wait, which closes the pipe.
func (e *processExecution) run(stdout io.Reader, w *Worker) {
	defer close(e.done)

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		handleChildEvent(w, scanner.Bytes())
	}

	err := e.cmd.Wait()
	if e.killed.Load() {
		err = nil
	}
	e.mu.Lock()
	e.err = err
	e.mu.Unlock()
}

func handleChildEvent(w *Worker, line []byte) {
	if !gjson.ValidBytes(line) {
		w.log.Warn("unrecognised worker output", "line", string(line))
		return
	}

	ev := gjson.ParseBytes(line)
	switch ev.Get("type").String() {
	case eventIteration:
		w.recordIteration(time.Duration(ev.Get("durationUs").Int()) * time.Microsecond)
	case eventError:
		w.iterationFailed(errors.New(ev.Get("error").String()))
	case eventReady:
		w.log.Debug("worker process ready", "pid", ev.Get("pid").Int())
	default:
		w.log.Warn("unknown worker event", "type", ev.Get("type").String())
	}
}

func (e *processExecution) Done() <-chan struct{} {
	return e.done
}

func (e *processExecution) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

func (e *processExecution) Kill() error {
	select {
	case <-e.done:
		return nil
	default:
	}

	e.killed.Store(true)
	if err := e.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("kill pid %d: %w", e.cmd.Process.Pid, err)
	}

	timer := time.NewTimer(e.timeout)
	defer timer.Stop()

	select {
	case <-e.done:
		return nil
	case <-timer.C:
		return fmt.Errorf("pid %d did not exit within %s", e.cmd.Process.Pid, e.timeout)
	}
}

// PID returns the child's process id.
func (e *processExecution) PID() int {
	return e.cmd.Process.Pid
}
