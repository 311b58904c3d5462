package runner

import (
	"context"
	"sync"
	"time"

	"github.com/wesleyorama2/strain/internal/config"
	"github.com/wesleyorama2/strain/internal/logging"
	"github.com/wesleyorama2/strain/internal/metrics"
	"github.com/wesleyorama2/strain/internal/stress"
)

type (
	// Config is the configuration of a run.
	Config = config.Config
	// LogConfig contains logging settings.
	LogConfig = config.LogConfig
	// Duration is a time.Duration read from "30s"-style strings.
	Duration = config.Duration
	// Logger is the structured logger used by a run.
	Logger = logging.Logger
	// Snapshot holds iteration timings.
	Snapshot = metrics.Snapshot
)

// DefaultConfig returns the configuration used when nothing is specified.
func DefaultConfig() *Config {
	return config.Default()
}

// LoadConfig reads a YAML or JSON configuration file and fills unset
// fields with defaults.
func LoadConfig(path string) (*Config, error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	config.ApplyDefaults(cfg)
	return cfg, nil
}

// Result contains the outcome of a run.
type Result struct {
	// RunID identifies the run in log output
	RunID string `json:"runId"`

	// StartTime is when the workers were started
	StartTime time.Time `json:"startTime"`

	// EndTime is when the run ended
	EndTime time.Time `json:"endTime"`

	// Duration is the time workers were running
	Duration time.Duration `json:"duration"`

	// CPUIterations is the final CPU counter
	CPUIterations int64 `json:"cpuIterations"`

	// MemoryIterations is the final memory counter
	MemoryIterations int64 `json:"memoryIterations"`

	// Metrics contains iteration timings per method
	Metrics *Snapshot `json:"metrics"`

	// Started is false when the run was cancelled during the start delay
	Started bool `json:"started"`
}

// Progress is a sample taken while workers run.
type Progress struct {
	Elapsed          time.Duration
	Alive            int
	Workers          int
	CPUIterations    int64
	MemoryIterations int64
	Rate             float64
	Failures         int64
}

// Option customises a Runner.
type Option func(*Runner)

// WithLogger sets the logger of the run.
func WithLogger(l Logger) Option {
	return func(r *Runner) {
		r.log = l
	}
}

// WithProgress registers a callback called once per poll interval.
func WithProgress(fn func(Progress)) Option {
	return func(r *Runner) {
		r.progress = fn
	}
}

// WithPoolOptions passes options through to the worker pool.
func WithPoolOptions(opts ...stress.Option) Option {
	return func(r *Runner) {
		r.poolOpts = append(r.poolOpts, opts...)
	}
}

// Runner provides a high-level API for a single stress run.
type Runner struct {
	config     *Config
	poolConfig stress.Config
	log        Logger
	progress   func(Progress)
	poolOpts   []stress.Option

	engine *metrics.Engine
	pool   *stress.Pool
}

// NewRunner validates cfg and prepares a run.
func NewRunner(cfg *Config, opts ...Option) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	poolCfg, err := cfg.PoolConfig()
	if err != nil {
		return nil, err
	}

	r := &Runner{
		config:     cfg,
		poolConfig: poolCfg,
		engine:     metrics.NewEngine(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = logging.NewNop()
	}

	poolOpts := append([]stress.Option{stress.WithLogger(r.log), stress.WithMetrics(r.engine)}, r.poolOpts...)
	r.pool = stress.NewPool(poolCfg, poolOpts...)
	return r, nil
}

// RunID identifies the run.
func (r *Runner) RunID() string {
	return r.pool.RunID().String()
}

// PoolConfig returns the resolved pool settings.
func (r *Runner) PoolConfig() stress.Config {
	return r.poolConfig
}

// GetMetrics returns the current iteration timings.
// Can be called while the run is in progress.
func (r *Runner) GetMetrics() *Snapshot {
	return r.engine.Snapshot()
}

// Run waits out the start delay, runs the pool until ctx is done, the
// configured duration elapses or every worker has ended, and returns the
// final counters. Cancellation is not an error.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	defer r.pool.Exit()

	result := &Result{RunID: r.RunID()}

	if delay := time.Duration(r.config.StartDelay); delay > 0 {
		r.log.Info("starting after delay", "delay", delay.String())
		select {
		case <-ctx.Done():
			r.log.Info("cancelled before start")
			result.StartTime = time.Now()
			return r.finish(result), nil
		case <-time.After(delay):
		}
	}

	if d := time.Duration(r.config.Duration); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	result.StartTime = time.Now()
	result.Started = true

	done := make(chan struct{})
	var wg sync.WaitGroup
	if r.progress != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.reportProgress(done, result.StartTime)
		}()
	}

	err := r.pool.Start(ctx)
	close(done)
	wg.Wait()

	return r.finish(result), err
}

func (r *Runner) finish(result *Result) *Result {
	counts := r.pool.Counters().Snapshot()
	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	result.CPUIterations = counts.CPU
	result.MemoryIterations = counts.Memory
	result.Metrics = r.engine.Snapshot()
	return result
}

func (r *Runner) reportProgress(done <-chan struct{}, start time.Time) {
	ticker := time.NewTicker(r.poolConfig.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			counts := r.pool.Counters().Snapshot()
			snap := r.engine.Snapshot()
			r.progress(Progress{
				Elapsed:          time.Since(start),
				Alive:            r.pool.AliveCount(),
				Workers:          r.poolConfig.Workers,
				CPUIterations:    counts.CPU,
				MemoryIterations: counts.Memory,
				Rate:             snap.Rate,
				Failures:         snap.Failures,
			})
		}
	}
}
