package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/wesleyorama2/strain/internal/config"
	"github.com/wesleyorama2/strain/internal/logging"
	"github.com/wesleyorama2/strain/internal/metrics"
	"github.com/wesleyorama2/strain/internal/output"
	"github.com/wesleyorama2/strain/internal/stress"
	"github.com/wesleyorama2/strain/runner"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start stress workers",
		Long: `Start a pool of stress workers and keep them running until
interrupted or until --duration has elapsed.

Examples:
  strain run
  strain run -w 4 -m memory --memory-size 256
  strain run --config strain.yaml --duration 10m

Settings are taken from the defaults, then the config file, then any
flag given explicitly on the command line.`,
		Args: cobra.NoArgs,
		RunE: runStress,
	}

	def := config.Default()
	flags := cmd.Flags()
	flags.StringP("config", "c", "", "Configuration file (.yaml, .yml or .json)")
	flags.IntP("workers", "w", def.Workers, "Number of workers")
	flags.StringP("method", "m", def.Method, "Stress method: "+stress.Methods())
	flags.Int("memory-size", def.MemorySizeMB, "Memory block per iteration in MB")
	flags.String("isolation", def.Isolation, "Worker isolation: process|goroutine")
	flags.Duration("pause", time.Duration(def.Pause), "Pause between iterations of a worker")
	flags.Duration("poll-interval", time.Duration(def.PollInterval), "Monitor poll interval")
	flags.Duration("duration", 0, "Stop after this long (0 runs until interrupted)")
	flags.Duration("start-delay", 0, "Wait this long before starting workers")
	flags.Bool("debug", false, "Enable debug logging")
	flags.String("log-format", def.Log.Format, "Log format: console|json")
	flags.BoolP("quiet", "q", false, "Disable the banner and live progress, show only final counters")
	flags.String("cpu-profile", "", "Write a CPU profile of the parent process to this file")
	flags.String("mem-profile", "", "Write a heap profile of the parent process to this file on exit")

	return cmd
}

// runStress is the run command body. Configuration problems are returned
// before anything starts.
func runStress(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd.Flags())
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.LoggingOptions())
	if err != nil {
		return err
	}
	defer log.Sync()

	quiet, _ := cmd.Flags().GetBool("quiet")
	console := output.NewConsole(output.ConsoleConfig{
		Writer: cmd.OutOrStdout(),
		Quiet:  quiet,
	})

	stopProfiling, err := startProfiling(cmd.Flags(), log)
	if err != nil {
		return err
	}
	defer stopProfiling()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var opts []stress.Option
	if iso, _ := stress.ParseIsolation(cfg.Isolation); iso == stress.IsolationProcess {
		opts = append(opts, stress.WithLauncher(&stress.ProcessLauncher{LogLevel: cfg.Log.Level}))
	}
	if runtime.GOOS == "linux" {
		opts = append(opts, stress.WithHostSampler(metrics.NewHostSampler()))
	}

	return runPool(ctx, cfg, console, log, opts...)
}

// buildConfig layers defaults, the config file and explicitly set flags,
// then validates the result.
func buildConfig(flags *pflag.FlagSet) (*config.Config, error) {
	cfg := config.Default()

	if path, _ := flags.GetString("config"); path != "" {
		fileCfg, err := config.LoadConfig(path)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		config.ApplyDefaults(fileCfg)
		cfg = fileCfg
	}

	if flags.Changed("workers") {
		cfg.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("method") {
		cfg.Method, _ = flags.GetString("method")
	}
	if flags.Changed("memory-size") {
		cfg.MemorySizeMB, _ = flags.GetInt("memory-size")
	}
	if flags.Changed("isolation") {
		cfg.Isolation, _ = flags.GetString("isolation")
	}
	if flags.Changed("pause") {
		d, _ := flags.GetDuration("pause")
		cfg.Pause = config.Duration(d)
	}
	if flags.Changed("poll-interval") {
		d, _ := flags.GetDuration("poll-interval")
		cfg.PollInterval = config.Duration(d)
	}
	if flags.Changed("duration") {
		d, _ := flags.GetDuration("duration")
		cfg.Duration = config.Duration(d)
	}
	if flags.Changed("start-delay") {
		d, _ := flags.GetDuration("start-delay")
		cfg.StartDelay = config.Duration(d)
	}
	if flags.Changed("log-format") {
		cfg.Log.Format, _ = flags.GetString("log-format")
	}
	if debug, _ := flags.GetBool("debug"); debug {
		cfg.Log.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runPool drives one run through a runner and renders it on the console.
func runPool(ctx context.Context, cfg *config.Config, console *output.Console, log logging.Logger, opts ...stress.Option) error {
	r, err := runner.NewRunner(cfg,
		runner.WithLogger(log),
		runner.WithPoolOptions(opts...),
		runner.WithProgress(func(p runner.Progress) {
			console.Update(output.LiveStats{
				Elapsed:  p.Elapsed,
				Alive:    p.Alive,
				Workers:  p.Workers,
				Counts:   stress.Counts{CPU: p.CPUIterations, Memory: p.MemoryIterations},
				Rate:     p.Rate,
				Failures: p.Failures,
			})
		}),
	)
	if err != nil {
		return err
	}

	poolCfg := r.PoolConfig()
	console.PrintHeader(output.Header{
		RunID:        r.RunID(),
		Workers:      poolCfg.Workers,
		Method:       poolCfg.Method,
		MemorySizeMB: poolCfg.MemorySizeMB,
		Isolation:    poolCfg.Isolation,
		Duration:     time.Duration(cfg.Duration),
		StartDelay:   time.Duration(cfg.StartDelay),
	})

	result, runErr := r.Run(ctx)
	console.PrintSummary(output.Summary{
		Elapsed: result.Duration,
		Counts:  stress.Counts{CPU: result.CPUIterations, Memory: result.MemoryIterations},
		Metrics: result.Metrics,
		Err:     runErr,
	})
	return runErr
}
