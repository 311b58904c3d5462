package stress

import "sync/atomic"

// SharedCounters tallies completed iterations across all workers of a run.
//
// The zero value is ready to use. Counters only ever grow; a new run gets
// a new SharedCounters.
type SharedCounters struct {
	cpu    atomic.Int64
	memory atomic.Int64
}

// Counts is a snapshot of SharedCounters.
type Counts struct {
	CPU    int64 `json:"cpu"`
	Memory int64 `json:"memory"`
}

// Total returns the sum of both counters.
func (c Counts) Total() int64 {
	return c.CPU + c.Memory
}

// NewSharedCounters returns zeroed counters.
func NewSharedCounters() *SharedCounters {
	return &SharedCounters{}
}

// IncrementCPU records one completed CPU iteration.
func (c *SharedCounters) IncrementCPU() {
	c.cpu.Add(1)
}

// IncrementMemory records one completed memory iteration.
func (c *SharedCounters) IncrementMemory() {
	c.memory.Add(1)
}

// Increment records one completed iteration of the given method.
// Unknown methods are ignored.
func (c *SharedCounters) Increment(m Method) {
	switch m {
	case MethodCPU:
		c.IncrementCPU()
	case MethodMemory:
		c.IncrementMemory()
	}
}

// Snapshot reads both counters. Each field is read atomically; the pair is
// not read as a unit.
func (c *SharedCounters) Snapshot() Counts {
	return Counts{
		CPU:    c.cpu.Load(),
		Memory: c.memory.Load(),
	}
}
