// Package runner runs strain programmatically.
//
// A Runner drives one run end to end: optional start delay, a pool of
// stress workers, an optional time limit, periodic progress samples and
// a final Result.
//
// # Quick Start
//
//	cfg := runner.DefaultConfig()
//	cfg.Workers = 4
//	cfg.Isolation = "goroutine"
//	cfg.Duration = runner.Duration(30 * time.Second)
//
//	r, err := runner.NewRunner(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := r.Run(context.Background())
//
//	fmt.Printf("CPU iterations: %d\n", result.CPUIterations)
//	fmt.Printf("P99: %v\n", result.Metrics.Methods["cpu"].P99)
//
// # Configuration Files
//
// Configurations can be loaded from YAML or JSON:
//
//	cfg, err := runner.LoadConfig("strain.yaml")
//
// Fields left out of the file take their default values.
//
// # Progress
//
// WithProgress registers a callback invoked once per poll interval while
// workers run:
//
//	r, _ := runner.NewRunner(cfg, runner.WithProgress(func(p runner.Progress) {
//	    fmt.Printf("%d/%d alive, %.1f it/s\n", p.Alive, p.Workers, p.Rate)
//	}))
//
// Process isolation re-executes the current binary with a hidden worker
// subcommand, so it only works from the strain command. Library users
// normally want goroutine isolation.
package runner
