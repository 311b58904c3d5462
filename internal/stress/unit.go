package stress

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"
	"time"
)

const (
	// cpuValuesPerIteration is the amount of random values one CPU iteration generates.
	cpuValuesPerIteration = 1_000_000

	// cpuCheckMask sets how often the CPU unit looks at its context (every 64Ki values).
	cpuCheckMask = 1<<16 - 1

	pageSize = 4096
	mebibyte = 1 << 20
)

// Unit performs one stress iteration.
type Unit interface {
	Run(ctx context.Context) error
}

// NewUnit builds the stress unit for a method.
func NewUnit(method Method, memorySizeMB int) (Unit, error) {
	switch method {
	case MethodCPU:
		return newCPUUnit(cpuValuesPerIteration), nil
	case MethodMemory:
		if memorySizeMB < 1 {
			return nil, &ConfigError{Field: "memorySizeMB", Value: memorySizeMB, Err: ErrInvalidMemorySize}
		}
		return &memoryUnit{sizeMB: memorySizeMB}, nil
	default:
		return nil, &ConfigError{Field: "method", Value: string(method), Err: ErrUnknownMethod}
	}
}

type cpuUnit struct {
	rng    *rand.Rand
	values []float64
	sink   float64
}

func newCPUUnit(n int) *cpuUnit {
	return &cpuUnit{
		rng:    rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		values: make([]float64, n),
	}
}

// Run fills the value buffer with fresh random numbers and folds them into
// a sink so the work cannot be optimised away.
func (u *cpuUnit) Run(ctx context.Context) error {
	var sum float64
	for i := range u.values {
		if i&cpuCheckMask == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		u.values[i] = u.rng.Float64()
		sum += u.values[i]
	}
	u.sink = sum
	return nil
}

type memoryUnit struct {
	sizeMB int
}

// Run allocates a new block, writes one byte per page so the kernel has to
// back it, then drops it.
func (u *memoryUnit) Run(ctx context.Context) error {
	size := u.sizeMB * mebibyte
	block := make([]byte, size)
	if len(block) != size {
		return fmt.Errorf("allocated %d bytes, want %d", len(block), size)
	}

	for off := 0; off < size; off += pageSize {
		if off%mebibyte == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		block[off] = byte(off / pageSize)
	}
	runtime.KeepAlive(block)
	return nil
}

// RunLoop repeats unit until ctx is done. record is called with the
// duration of every completed iteration, fail with the fault of every
// failed one; a failed iteration does not end the loop. Between iterations
// the loop sleeps for pause.
func RunLoop(ctx context.Context, unit Unit, pause time.Duration, record func(time.Duration), fail func(error)) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		start := time.Now()
		err := runUnit(ctx, unit)
		switch {
		case err == nil:
			record(time.Since(start))
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			fail(err)
		}

		if pause > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(pause):
			}
		}
	}
}

// runUnit runs one iteration, turning a panic into an error.
func runUnit(ctx context.Context, unit Unit) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("iteration panicked: %v", r)
		}
	}()
	return unit.Run(ctx)
}
