package cli

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/spf13/pflag"

	"github.com/wesleyorama2/strain/internal/logging"
)

// startProfiling honours --cpu-profile and --mem-profile. The returned
// function stops the CPU profile and writes the heap profile; it must be
// called once the run is over.
func startProfiling(flags *pflag.FlagSet, log logging.Logger) (func(), error) {
	cpuPath, _ := flags.GetString("cpu-profile")
	memPath, _ := flags.GetString("mem-profile")

	var cpuFile *os.File
	if cpuPath != "" {
		f, err := os.Create(cpuPath)
		if err != nil {
			return nil, fmt.Errorf("could not create CPU profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			f.Close()
			return nil, fmt.Errorf("could not start CPU profile: %w", err)
		}
		cpuFile = f
		log.Debug("cpu profiling enabled", "path", cpuPath)
	}

	return func() {
		if cpuFile != nil {
			pprof.StopCPUProfile()
			cpuFile.Close()
			log.Info("cpu profile written", "path", cpuPath)
		}
		if memPath != "" {
			if err := writeHeapProfile(memPath); err != nil {
				log.Error("memory profile failed", "error", err)
				return
			}
			log.Info("memory profile written", "path", memPath)
		}
	}, nil
}

func writeHeapProfile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create memory profile: %w", err)
	}
	defer f.Close()

	runtime.GC() // get up-to-date statistics
	if err := pprof.WriteHeapProfile(f); err != nil {
		return fmt.Errorf("could not write memory profile: %w", err)
	}
	return nil
}
