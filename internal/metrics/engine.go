// Package metrics aggregates iteration timings and host resource readings
// for a stress run.
package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Engine collects per-method iteration durations using HDR histograms.
//
// # Thread Safety
//
// Engine is safe for concurrent use. Counters use atomic operations and
// each histogram is guarded by the engine mutex, since HDR histograms are
// not safe for concurrent writers.
type Engine struct {
	mu    sync.Mutex
	hists map[string]*hdrhistogram.Histogram

	iterations atomic.Int64
	failures   atomic.Int64

	startTime time.Time
	config    EngineConfig
}

// EngineConfig contains configuration for the metrics engine.
type EngineConfig struct {
	// HistogramMin is the minimum recordable value in microseconds (default: 1)
	HistogramMin int64

	// HistogramMax is the maximum recordable value in microseconds (default: 1 hour)
	HistogramMax int64

	// HistogramSigFigs is the number of significant figures (default: 3)
	HistogramSigFigs int
}

// DefaultEngineConfig returns the default configuration.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		HistogramMin:     1,
		HistogramMax:     3600000000,
		HistogramSigFigs: 3,
	}
}

// NewEngine creates a metrics engine with default configuration.
func NewEngine() *Engine {
	return NewEngineWithConfig(DefaultEngineConfig())
}

// NewEngineWithConfig creates a metrics engine with custom configuration.
func NewEngineWithConfig(config EngineConfig) *Engine {
	return &Engine{
		hists:     make(map[string]*hdrhistogram.Histogram),
		startTime: time.Now(),
		config:    config,
	}
}

// RecordIteration records the duration of one completed stress iteration.
func (e *Engine) RecordIteration(method string, d time.Duration) {
	micros := d.Microseconds()
	if micros < e.config.HistogramMin {
		micros = e.config.HistogramMin
	}
	if micros > e.config.HistogramMax {
		micros = e.config.HistogramMax
	}

	e.mu.Lock()
	hist, ok := e.hists[method]
	if !ok {
		hist = hdrhistogram.New(e.config.HistogramMin, e.config.HistogramMax, e.config.HistogramSigFigs)
		e.hists[method] = hist
	}
	_ = hist.RecordValue(micros)
	e.mu.Unlock()

	e.iterations.Add(1)
}

// RecordFailure counts an iteration that ended in a fault.
func (e *Engine) RecordFailure() {
	e.failures.Add(1)
}

// Snapshot returns a point-in-time view of the collected metrics.
func (e *Engine) Snapshot() *Snapshot {
	e.mu.Lock()
	methods := make(map[string]IterationStats, len(e.hists))
	for name, hist := range e.hists {
		methods[name] = statsFromHistogram(hist)
	}
	e.mu.Unlock()

	elapsed := time.Since(e.startTime)
	total := e.iterations.Load()

	rate := 0.0
	if elapsed.Seconds() > 0 {
		rate = float64(total) / elapsed.Seconds()
	}

	return &Snapshot{
		Iterations: total,
		Failures:   e.failures.Load(),
		Rate:       rate,
		Methods:    methods,
		Elapsed:    elapsed,
		StartTime:  e.startTime,
		Timestamp:  time.Now(),
	}
}

func statsFromHistogram(hist *hdrhistogram.Histogram) IterationStats {
	return IterationStats{
		Min:   time.Duration(hist.Min()) * time.Microsecond,
		Max:   time.Duration(hist.Max()) * time.Microsecond,
		Mean:  time.Duration(hist.Mean()) * time.Microsecond,
		P50:   time.Duration(hist.ValueAtQuantile(50)) * time.Microsecond,
		P99:   time.Duration(hist.ValueAtQuantile(99)) * time.Microsecond,
		Count: hist.TotalCount(),
	}
}

// Snapshot contains a point-in-time view of all metrics.
type Snapshot struct {
	Iterations int64                     `json:"iterations"`
	Failures   int64                     `json:"failures"`
	Rate       float64                   `json:"rate"`
	Methods    map[string]IterationStats `json:"methods"`
	Elapsed    time.Duration             `json:"elapsed"`
	StartTime  time.Time                 `json:"startTime"`
	Timestamp  time.Time                 `json:"timestamp"`
}

// MethodNames returns the recorded method names in sorted order.
func (s *Snapshot) MethodNames() []string {
	names := make([]string, 0, len(s.Methods))
	for name := range s.Methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IterationStats summarises iteration durations for one method.
type IterationStats struct {
	Min   time.Duration `json:"min"`
	Max   time.Duration `json:"max"`
	Mean  time.Duration `json:"mean"`
	P50   time.Duration `json:"p50"`
	P99   time.Duration `json:"p99"`
	Count int64         `json:"count"`
}
