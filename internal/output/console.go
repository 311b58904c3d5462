// Package output renders the human-facing console view of a stress run.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/wesleyorama2/strain/internal/metrics"
	"github.com/wesleyorama2/strain/internal/stress"
)

const (
	ruleWidth = 56
	rule      = "━"

	clearLine = "\r\033[2K"
)

// Header describes a run about to start.
type Header struct {
	RunID        string
	Workers      int
	Method       stress.Method
	MemorySizeMB int
	Isolation    stress.Isolation
	Duration     time.Duration
	StartDelay   time.Duration
}

// LiveStats is one progress sample of a running pool.
type LiveStats struct {
	Elapsed  time.Duration
	Alive    int
	Workers  int
	Counts   stress.Counts
	Rate     float64
	Failures int64
}

// Summary describes a finished run.
type Summary struct {
	Elapsed time.Duration
	Counts  stress.Counts
	Metrics *metrics.Snapshot
	Err     error
}

// Console writes run progress for humans.
type Console struct {
	writer io.Writer
	colors *ColorScheme
	isTTY  bool
	quiet  bool

	mu       sync.Mutex
	liveLine bool
}

// ConsoleConfig contains configuration for Console.
type ConsoleConfig struct {
	Writer      io.Writer
	Quiet       bool
	NoColor     bool
	ForceColors bool
	ForceTTY    bool
}

// NewConsole creates a console writer.
func NewConsole(config ConsoleConfig) *Console {
	if config.Writer == nil {
		config.Writer = os.Stdout
	}

	isTTY := config.ForceTTY || isTerminal(config.Writer)

	var colors *ColorScheme
	switch {
	case config.NoColor:
		colors = NoColorScheme()
	case config.ForceColors || (isTTY && supportsColors()):
		colors = ForcedColorScheme()
	default:
		colors = NoColorScheme()
	}

	return &Console{
		writer: config.Writer,
		colors: colors,
		isTTY:  isTTY,
		quiet:  config.Quiet,
	}
}

// IsTTY returns whether the output is a terminal.
func (c *Console) IsTTY() bool {
	return c.isTTY
}

// PrintHeader prints the run banner.
func (c *Console) PrintHeader(h Header) {
	if c.quiet {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	line := strings.Repeat(rule, ruleWidth)
	c.writeln(c.colors.Rule.Sprint(line))
	c.writeln(c.colors.Title.Sprintf("strain - %d %s workers [%s]", h.Workers, h.Method, h.Isolation))
	c.writeln(c.colors.Rule.Sprint(line))

	c.field("Run ID", h.RunID)
	if h.Method == stress.MethodMemory {
		c.field("Block size", fmt.Sprintf("%d MB", h.MemorySizeMB))
	}
	if h.Duration > 0 {
		c.field("Duration", formatDuration(h.Duration))
	} else {
		c.field("Duration", "until interrupted")
	}
	if h.StartDelay > 0 {
		c.field("Starting in", formatDuration(h.StartDelay))
	}
	c.writeln("")
}

// Update shows a progress sample. On a terminal the previous sample is
// overwritten; otherwise one line is appended per call.
func (c *Console) Update(s LiveStats) {
	if c.quiet {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	line := fmt.Sprintf("[%s] workers %s/%d | cpu %s | memory %s | %s/s",
		formatDuration(s.Elapsed),
		c.aliveColor(s.Alive, s.Workers).Sprint(s.Alive), s.Workers,
		c.colors.Value.Sprint(formatNumber(s.Counts.CPU)),
		c.colors.Value.Sprint(formatNumber(s.Counts.Memory)),
		c.colors.Value.Sprintf("%.1f", s.Rate))
	if s.Failures > 0 {
		line += " | " + c.colors.Error.Sprintf("%d failed", s.Failures)
	}

	if c.isTTY {
		c.write(clearLine + line)
		c.liveLine = true
		return
	}
	c.writeln(line)
}

// PrintSummary prints the final counters and iteration timings.
func (c *Console) PrintSummary(s Summary) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.liveLine {
		c.write(clearLine)
		c.liveLine = false
	}

	if c.quiet {
		c.writeln(fmt.Sprintf("cpu=%d memory=%d", s.Counts.CPU, s.Counts.Memory))
		return
	}

	status := c.colors.Success.Sprint("Completed " + SuccessIcon(true))
	if s.Err != nil {
		status = c.colors.Error.Sprint("Failed " + ErrorIcon(true))
	}

	line := strings.Repeat(rule, ruleWidth)
	c.writeln("")
	c.writeln(c.colors.Rule.Sprint(line))
	c.writeln(fmt.Sprintf("%s - %s", c.colors.Title.Sprint("strain"), status))
	c.writeln(c.colors.Rule.Sprint(line))

	c.field("Elapsed", formatDuration(s.Elapsed))
	c.field("CPU iterations", formatNumber(s.Counts.CPU))
	c.field("Memory iterations", formatNumber(s.Counts.Memory))
	c.field("Total", formatNumber(s.Counts.Total()))
	if s.Err != nil {
		c.writeln(fmt.Sprintf("%s %s", c.colors.Label.Sprintf("%-18s", "Error:"), c.colors.Error.Sprint(s.Err.Error())))
	}

	if s.Metrics == nil || len(s.Metrics.Methods) == 0 {
		c.writeln("")
		return
	}

	c.field("Rate", fmt.Sprintf("%.1f/s", s.Metrics.Rate))
	if s.Metrics.Failures > 0 {
		c.field("Failed iterations", formatNumber(s.Metrics.Failures))
	}
	c.writeln("")

	for _, name := range s.Metrics.MethodNames() {
		st := s.Metrics.Methods[name]
		c.writeln(c.colors.Title.Sprintf("Iteration time (%s):", name))
		c.writeln(fmt.Sprintf("  Min:  %s", formatDurationShort(st.Min)))
		c.writeln(fmt.Sprintf("  Mean: %s", formatDurationShort(st.Mean)))
		c.writeln(fmt.Sprintf("  P50:  %s", formatDurationShort(st.P50)))
		c.writeln(fmt.Sprintf("  P99:  %s", formatDurationShort(st.P99)))
		c.writeln(fmt.Sprintf("  Max:  %s", formatDurationShort(st.Max)))
		c.writeln("")
	}
}

func (c *Console) aliveColor(alive, workers int) *color.Color {
	switch {
	case alive == 0:
		return c.colors.Error
	case alive < workers:
		return c.colors.Warn
	default:
		return c.colors.Success
	}
}

func (c *Console) field(label, value string) {
	// pad before coloring so escape codes do not skew alignment
	c.writeln(fmt.Sprintf("%s %s", c.colors.Label.Sprintf("%-18s", label+":"), c.colors.Value.Sprint(value)))
}

func (c *Console) write(s string) {
	fmt.Fprint(c.writer, s)
}

func (c *Console) writeln(s string) {
	fmt.Fprintln(c.writer, s)
}

// formatDuration formats a duration in a human-readable format.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm %02ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh %02dm %02ds", h, m, s)
}

// formatDurationShort formats an iteration time.
func formatDurationShort(d time.Duration) string {
	if d < time.Microsecond {
		return "0ms"
	}
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
	return fmt.Sprintf("%.1fm", d.Minutes())
}

// formatNumber formats a number with thousands separators.
func formatNumber(n int64) string {
	if n < 0 {
		return "-" + formatNumber(-n)
	}
	str := fmt.Sprintf("%d", n)
	if len(str) <= 3 {
		return str
	}

	var result strings.Builder
	offset := len(str) % 3
	if offset > 0 {
		result.WriteString(str[:offset])
	}
	for i := offset; i < len(str); i += 3 {
		if result.Len() > 0 {
			result.WriteString(",")
		}
		result.WriteString(str[i : i+3])
	}
	return result.String()
}
