package stress

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/wesleyorama2/strain/internal/logging"
	"github.com/wesleyorama2/strain/internal/metrics"
)

// Defaults for a pool.
const (
	DefaultWorkers      = 10
	DefaultMemorySizeMB = 100
	DefaultPollInterval = time.Second
)

// Config contains the settings of a Pool.
type Config struct {
	// Workers is the number of workers to start
	Workers int

	// Method is the kind of load every worker generates
	Method Method

	// MemorySizeMB is the block size of memory iterations
	MemorySizeMB int

	// Isolation selects the launcher when none is supplied via WithLauncher
	Isolation Isolation

	// Pause between iterations of a worker
	Pause time.Duration

	// PollInterval bounds each wait of the monitor loop
	PollInterval time.Duration
}

// DefaultConfig returns the default pool configuration.
func DefaultConfig() Config {
	return Config{
		Workers:      DefaultWorkers,
		Method:       MethodCPU,
		MemorySizeMB: DefaultMemorySizeMB,
		Isolation:    IsolationProcess,
		Pause:        DefaultPause,
		PollInterval: DefaultPollInterval,
	}
}

// Validate checks the configuration. Every problem is reported as a
// *ConfigError; several are combined.
func (c Config) Validate() error {
	var errs error
	if c.Workers < 1 {
		errs = multierr.Append(errs, &ConfigError{Field: "workers", Value: c.Workers, Err: ErrInvalidWorkers})
	}
	if !c.Method.Valid() {
		errs = multierr.Append(errs, &ConfigError{Field: "method", Value: string(c.Method), Err: ErrUnknownMethod})
	}
	if c.MemorySizeMB < 1 {
		errs = multierr.Append(errs, &ConfigError{Field: "memorySizeMB", Value: c.MemorySizeMB, Err: ErrInvalidMemorySize})
	}
	if c.Isolation != "" && !c.Isolation.Valid() {
		errs = multierr.Append(errs, &ConfigError{Field: "isolation", Value: string(c.Isolation), Err: ErrUnknownIsolation})
	}
	return errs
}

// Option customises a Pool.
type Option func(*Pool)

// WithLogger sets the pool's logger.
func WithLogger(l logging.Logger) Option {
	return func(p *Pool) {
		p.log = l
	}
}

// WithLauncher overrides the launcher chosen from Config.Isolation.
func WithLauncher(l Launcher) Option {
	return func(p *Pool) {
		p.launcher = l
	}
}

// WithMetrics attaches an iteration timing engine.
func WithMetrics(e *metrics.Engine) Option {
	return func(p *Pool) {
		p.metrics = e
	}
}

// WithHostSampler adds host load and memory to stats lines.
func WithHostSampler(h *metrics.HostSampler) Option {
	return func(p *Pool) {
		p.host = h
	}
}

// Pool owns a set of workers sharing one SharedCounters. It starts them,
// polls their liveness, reports progress and stops them on cancellation.
//
// A Pool is meant for a single run.
type Pool struct {
	config   Config
	counters *SharedCounters
	metrics  *metrics.Engine
	host     *metrics.HostSampler
	launcher Launcher
	log      logging.Logger
	runID    uuid.UUID

	mu      sync.Mutex
	workers []*Worker

	exitOnce sync.Once
}

// NewPool creates a pool. Nothing is validated or started until Start.
func NewPool(cfg Config, opts ...Option) *Pool {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.Isolation == "" {
		cfg.Isolation = IsolationProcess
	}

	p := &Pool{
		config:   cfg,
		counters: NewSharedCounters(),
		runID:    uuid.New(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		p.log = logging.NewNop()
	}
	p.log = p.log.With("run", p.runID.String())
	return p
}

// Config returns the pool configuration.
func (p *Pool) Config() Config {
	return p.config
}

// Counters returns the counters shared by the pool's workers.
func (p *Pool) Counters() *SharedCounters {
	return p.counters
}

// RunID identifies this run in log output.
func (p *Pool) RunID() uuid.UUID {
	return p.runID
}

// Workers returns the tracked workers in creation order.
func (p *Pool) Workers() []*Worker {
	p.mu.Lock()
	defer p.mu.Unlock()

	result := make([]*Worker, len(p.workers))
	copy(result, p.workers)
	return result
}

// AliveCount returns how many tracked workers are still executing.
func (p *Pool) AliveCount() int {
	count := 0
	for _, w := range p.Workers() {
		if w.IsAlive() {
			count++
		}
	}
	return count
}

// Start validates the configuration, starts the workers and monitors them
// until ctx is cancelled or every worker has ended.
//
// Configuration errors are returned before any worker is created. Workers
// that fail to start are logged and skipped. On cancellation every worker
// is stopped and final stats are logged before Start returns nil.
func (p *Pool) Start(ctx context.Context) error {
	if err := p.config.Validate(); err != nil {
		return err
	}

	if p.launcher == nil {
		launcher, err := NewLauncher(p.config.Isolation)
		if err != nil {
			return err
		}
		p.launcher = launcher
	}

	p.log.Info("pool starting",
		"workers", p.config.Workers,
		"method", string(p.config.Method),
		"memorySizeMB", p.config.MemorySizeMB,
		"isolation", string(p.config.Isolation),
	)

	if started := p.spawn(ctx); started == 0 {
		p.log.Error("no workers running")
		return ErrNoWorkersStarted
	}

	p.log.Debug("monitor starting")
	p.Monitor(ctx)
	return nil
}

// spawn creates and starts the configured number of workers and returns
// how many started.
func (p *Pool) spawn(ctx context.Context) int {
	cfg := WorkerConfig{
		Method:       p.config.Method,
		MemorySizeMB: p.config.MemorySizeMB,
		Pause:        p.config.Pause,
		Launcher:     p.launcher,
		Metrics:      p.metrics,
		Logger:       p.log,
	}

	started := 0
	for i := 0; i < p.config.Workers; i++ {
		w := NewWorker(i, cfg, p.counters)
		if err := w.Start(ctx); err != nil {
			p.log.Error("worker start failed", "worker", w.Name, "error", err)
			continue
		}

		p.mu.Lock()
		p.workers = append(p.workers, w)
		p.mu.Unlock()

		p.log.Info("worker started", "worker", w.Name)
		started++
	}
	return started
}

// Monitor polls the tracked workers until none remain or ctx is done.
// Each alive worker is waited on for at most PollInterval; ended workers
// are dropped. Stats are logged after every pass.
func (p *Pool) Monitor(ctx context.Context) {
	for len(p.Workers()) > 0 {
		for _, w := range p.Workers() {
			if ctx.Err() != nil {
				p.shutdown()
				return
			}

			if w.IsAlive() {
				w.JoinContext(ctx, p.config.PollInterval)
				continue
			}

			p.untrack(w)
			p.log.Info("worker ended", "worker", w.Name, "state", w.State().String())
		}

		if ctx.Err() != nil {
			p.shutdown()
			return
		}
		p.Stats()
	}
}

func (p *Pool) untrack(w *Worker) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, tracked := range p.workers {
		if tracked == w {
			p.workers = append(p.workers[:i], p.workers[i+1:]...)
			return
		}
	}
}

// shutdown is the cancellation path of the monitor loop.
func (p *Pool) shutdown() {
	p.log.Info("stopping all workers", "workers", len(p.Workers()))
	_ = p.StopAll()
	p.Stats()
}

// StopAll stops every tracked worker. A worker that fails to stop is
// logged and does not prevent the others from being stopped; all such
// failures are returned together.
func (p *Pool) StopAll() error {
	var errs error
	for _, w := range p.Workers() {
		if err := w.Stop(); err != nil {
			p.log.Error("worker stop failed", "worker", w.Name, "error", err)
			errs = multierr.Append(errs, err)
			continue
		}
		p.log.Info("worker stopped", "worker", w.Name)
	}
	return errs
}

// Stats logs the current counters, with iteration timings and host
// readings when available, and returns the counters. Read faults are
// logged and never propagated.
func (p *Pool) Stats() (counts Counts) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("stats read failed", "error", fmt.Sprint(r))
		}
	}()

	counts = p.counters.Snapshot()
	fields := []interface{}{
		"cpu", counts.CPU,
		"memory", counts.Memory,
		"alive", p.AliveCount(),
	}

	if p.metrics != nil {
		snap := p.metrics.Snapshot()
		fields = append(fields, "rate", fmt.Sprintf("%.2f/s", snap.Rate))
		for _, name := range snap.MethodNames() {
			st := snap.Methods[name]
			fields = append(fields, name+"P50", st.P50, name+"P99", st.P99)
		}
		if snap.Failures > 0 {
			fields = append(fields, "failures", snap.Failures)
		}
	}

	if p.host != nil {
		hs, err := p.host.Sample()
		if err != nil {
			p.log.Warn("host stats read failed", "error", err)
		} else {
			fields = append(fields,
				"load1", hs.Load1,
				"memAvailableMB", hs.MemAvailableKB/1024,
			)
		}
	}

	p.log.Info("stats", fields...)
	return counts
}

// Exit logs final stats and the shutdown. It runs once; later calls are
// no-ops.
func (p *Pool) Exit() {
	p.exitOnce.Do(func() {
		counts := p.Stats()
		p.log.Info("shutting down", "cpu", counts.CPU, "memory", counts.Memory)
	})
}
