package stress

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/wesleyorama2/strain/internal/logging"
)

// Event types written by a worker process, one JSON object per line.
const (
	eventReady     = "ready"
	eventIteration = "iteration"
	eventError     = "error"
)

// ChildSpec tells a worker process what to run.
type ChildSpec struct {
	Worker       string        `json:"worker"`
	Method       Method        `json:"method"`
	MemorySizeMB int           `json:"memorySizeMB"`
	Pause        time.Duration `json:"pause"`
	LogLevel     string        `json:"logLevel,omitempty"`
}

// Encode renders the spec as a single command-line argument.
func (s ChildSpec) Encode() (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeChildSpec parses and checks an encoded spec.
func DecodeChildSpec(s string) (ChildSpec, error) {
	var spec ChildSpec
	if err := json.Unmarshal([]byte(s), &spec); err != nil {
		return spec, fmt.Errorf("decode worker spec: %w", err)
	}
	if !spec.Method.Valid() {
		return spec, &ConfigError{Field: "method", Value: string(spec.Method), Err: ErrUnknownMethod}
	}
	if spec.Method == MethodMemory && spec.MemorySizeMB < 1 {
		return spec, &ConfigError{Field: "memorySizeMB", Value: spec.MemorySizeMB, Err: ErrInvalidMemorySize}
	}
	return spec, nil
}

type childEvent struct {
	Type       string `json:"type"`
	PID        int    `json:"pid,omitempty"`
	DurationUs int64  `json:"durationUs,omitempty"`
	Error      string `json:"error,omitempty"`
}

// RunChild is the body of a worker process. It runs the stress loop for
// spec and reports progress to out until ctx is done or out stops
// accepting writes.
func RunChild(ctx context.Context, spec ChildSpec, out io.Writer, log logging.Logger) error {
	unit, err := NewUnit(spec.Method, spec.MemorySizeMB)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	bw := bufio.NewWriter(out)
	enc := json.NewEncoder(bw)
	var writeErr error
	emit := func(ev childEvent) {
		if writeErr != nil {
			return
		}
		if writeErr = enc.Encode(ev); writeErr == nil {
			writeErr = bw.Flush()
		}
		if writeErr != nil {
			cancel()
		}
	}

	emit(childEvent{Type: eventReady, PID: os.Getpid()})
	log.Debug("worker process running", "worker", spec.Worker, "method", spec.Method, "pid", os.Getpid())

	err = RunLoop(ctx, unit, spec.Pause,
		func(d time.Duration) {
			emit(childEvent{Type: eventIteration, DurationUs: d.Microseconds()})
		},
		func(err error) {
			log.Error("iteration failed", "worker", spec.Worker, "error", err)
			emit(childEvent{Type: eventError, Error: err.Error()})
		},
	)

	if writeErr != nil {
		return fmt.Errorf("report progress: %w", writeErr)
	}
	return err
}
