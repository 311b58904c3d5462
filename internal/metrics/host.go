package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/c9s/goprocinfo/linux"
)

// HostStats is a reading of machine-wide load and memory.
type HostStats struct {
	Load1          float64 `json:"load1"`
	Load5          float64 `json:"load5"`
	MemTotalKB     uint64  `json:"memTotalKb"`
	MemAvailableKB uint64  `json:"memAvailableKb"`
}

// HostSampler reads host statistics from a procfs mount.
type HostSampler struct {
	procRoot string
}

// NewHostSampler returns a sampler reading from /proc.
func NewHostSampler() *HostSampler {
	return &HostSampler{procRoot: "/proc"}
}

// NewHostSamplerAt returns a sampler reading from an alternative procfs root.
func NewHostSamplerAt(procRoot string) *HostSampler {
	return &HostSampler{procRoot: procRoot}
}

// Sample reads load averages and memory information.
func (h *HostSampler) Sample() (*HostStats, error) {
	load, err := linux.ReadLoadAvg(filepath.Join(h.procRoot, "loadavg"))
	if err != nil {
		return nil, fmt.Errorf("read loadavg: %w", err)
	}

	mem, err := linux.ReadMemInfo(filepath.Join(h.procRoot, "meminfo"))
	if err != nil {
		return nil, fmt.Errorf("read meminfo: %w", err)
	}

	return &HostStats{
		Load1:          load.Last1Min,
		Load5:          load.Last5Min,
		MemTotalKB:     mem.MemTotal,
		MemAvailableKB: mem.MemAvailable,
	}, nil
}

// ResidentKB returns the resident set size of a process in kilobytes.
func (h *HostSampler) ResidentKB(pid int) (uint64, error) {
	status, err := linux.ReadProcessStatus(filepath.Join(h.procRoot, strconv.Itoa(pid), "status"))
	if err != nil {
		return 0, fmt.Errorf("read process status: %w", err)
	}
	return status.VmRSS, nil
}

// SelfResidentKB returns the resident set size of the current process.
func (h *HostSampler) SelfResidentKB() (uint64, error) {
	return h.ResidentKB(os.Getpid())
}
