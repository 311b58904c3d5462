package output

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wesleyorama2/strain/internal/metrics"
	"github.com/wesleyorama2/strain/internal/stress"
)

func newTestConsole(quiet bool) (*Console, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewConsole(ConsoleConfig{Writer: &buf, Quiet: quiet}), &buf
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		duration time.Duration
		expected string
	}{
		{500 * time.Millisecond, "500ms"},
		{1 * time.Second, "1.0s"},
		{1*time.Minute + 30*time.Second, "1m 30s"},
		{1*time.Hour + 2*time.Minute + 3*time.Second, "1h 02m 03s"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatDuration(tt.duration))
		})
	}
}

func TestFormatDurationShort(t *testing.T) {
	tests := []struct {
		duration time.Duration
		expected string
	}{
		{0, "0ms"},
		{500 * time.Microsecond, "500µs"},
		{50 * time.Millisecond, "50ms"},
		{1500 * time.Millisecond, "1.50s"},
		{90 * time.Second, "1.5m"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatDurationShort(tt.duration))
		})
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		number   int64
		expected string
	}{
		{0, "0"},
		{100, "100"},
		{1000, "1,000"},
		{12345, "12,345"},
		{1234567, "1,234,567"},
		{-4200, "-4,200"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatNumber(tt.number))
		})
	}
}

func TestNewConsole_BufferIsNotTTY(t *testing.T) {
	c, _ := newTestConsole(false)
	assert.False(t, c.IsTTY())

	forced := NewConsole(ConsoleConfig{Writer: &bytes.Buffer{}, ForceTTY: true})
	assert.True(t, forced.IsTTY())
}

func TestPrintHeader(t *testing.T) {
	c, buf := newTestConsole(false)
	c.PrintHeader(Header{
		RunID:        "run-1",
		Workers:      4,
		Method:       stress.MethodMemory,
		MemorySizeMB: 64,
		Isolation:    stress.IsolationProcess,
		StartDelay:   10 * time.Second,
	})

	out := buf.String()
	assert.Contains(t, out, "strain - 4 memory workers [process]")
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "64 MB")
	assert.Contains(t, out, "until interrupted")
	assert.Contains(t, out, "10.0s")
	assert.NotContains(t, out, "\x1b[", "no colors when not a terminal")
}

func TestPrintHeader_CPUWithDuration(t *testing.T) {
	c, buf := newTestConsole(false)
	c.PrintHeader(Header{Workers: 2, Method: stress.MethodCPU, Isolation: stress.IsolationGoroutine, Duration: 2 * time.Minute})

	out := buf.String()
	assert.Contains(t, out, "2m 00s")
	assert.NotContains(t, out, "Block size")
	assert.NotContains(t, out, "Starting in")
}

func TestPrintHeader_Quiet(t *testing.T) {
	c, buf := newTestConsole(true)
	c.PrintHeader(Header{Workers: 1})
	assert.Empty(t, buf.String())
}

func TestUpdate_NonTTYAppendsLines(t *testing.T) {
	c, buf := newTestConsole(false)
	c.Update(LiveStats{Elapsed: 2 * time.Second, Alive: 3, Workers: 4, Counts: stress.Counts{CPU: 1200}, Rate: 600})
	c.Update(LiveStats{Elapsed: 3 * time.Second, Alive: 3, Workers: 4, Counts: stress.Counts{CPU: 1800}, Rate: 600, Failures: 2})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 2)
	assert.Equal(t, "[2.0s] workers 3/4 | cpu 1,200 | memory 0 | 600.0/s", lines[0])
	assert.Contains(t, lines[1], "2 failed")
}

func TestUpdate_TTYOverwritesLine(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(ConsoleConfig{Writer: &buf, ForceTTY: true, NoColor: true})

	c.Update(LiveStats{Alive: 1, Workers: 1})
	assert.True(t, strings.HasPrefix(buf.String(), clearLine))
	assert.False(t, strings.HasSuffix(buf.String(), "\n"))

	c.PrintSummary(Summary{})
	assert.Contains(t, buf.String(), clearLine+"\n")
}

func TestPrintSummary(t *testing.T) {
	c, buf := newTestConsole(false)
	c.PrintSummary(Summary{
		Elapsed: 5 * time.Second,
		Counts:  stress.Counts{CPU: 1500, Memory: 20},
		Metrics: &metrics.Snapshot{
			Rate:     304,
			Failures: 1,
			Methods: map[string]metrics.IterationStats{
				"cpu": {Min: time.Millisecond, Mean: 2 * time.Millisecond, P50: 2 * time.Millisecond, P99: 5 * time.Millisecond, Max: 9 * time.Millisecond, Count: 1500},
			},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "Completed")
	assert.Contains(t, out, "1,500")
	assert.Contains(t, out, "1,520")
	assert.Contains(t, out, "304.0/s")
	assert.Contains(t, out, "Failed iterations")
	assert.Contains(t, out, "Iteration time (cpu):")
	assert.Contains(t, out, "P99:  5ms")
}

func TestPrintSummary_Error(t *testing.T) {
	c, buf := newTestConsole(false)
	c.PrintSummary(Summary{Err: errors.New("no workers started")})

	out := buf.String()
	assert.Contains(t, out, "Failed")
	assert.Contains(t, out, "no workers started")
	assert.NotContains(t, out, "Iteration time")
}

func TestPrintSummary_Quiet(t *testing.T) {
	c, buf := newTestConsole(true)
	c.PrintSummary(Summary{Counts: stress.Counts{CPU: 7, Memory: 3}})
	assert.Equal(t, "cpu=7 memory=3\n", buf.String())
}
