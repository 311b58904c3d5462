package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngine(t *testing.T) {
	engine := NewEngine()

	snapshot := engine.Snapshot()
	assert.Equal(t, int64(0), snapshot.Iterations)
	assert.Equal(t, int64(0), snapshot.Failures)
	assert.Empty(t, snapshot.Methods)
	assert.False(t, snapshot.StartTime.IsZero())
}

func TestEngine_RecordIteration(t *testing.T) {
	engine := NewEngine()

	engine.RecordIteration("cpu", 10*time.Millisecond)
	engine.RecordIteration("cpu", 20*time.Millisecond)
	engine.RecordIteration("memory", 50*time.Millisecond)
	engine.RecordFailure()

	snapshot := engine.Snapshot()
	assert.Equal(t, int64(3), snapshot.Iterations)
	assert.Equal(t, int64(1), snapshot.Failures)
	require.Contains(t, snapshot.Methods, "cpu")
	require.Contains(t, snapshot.Methods, "memory")

	cpu := snapshot.Methods["cpu"]
	assert.Equal(t, int64(2), cpu.Count)
	assert.InDelta(t, float64(10*time.Millisecond), float64(cpu.Min), float64(100*time.Microsecond))
	assert.InDelta(t, float64(20*time.Millisecond), float64(cpu.Max), float64(100*time.Microsecond))

	assert.Equal(t, []string{"cpu", "memory"}, snapshot.MethodNames())
	assert.Greater(t, snapshot.Rate, 0.0)
}

func TestEngine_Percentiles(t *testing.T) {
	engine := NewEngine()

	for i := 1; i <= 100; i++ {
		engine.RecordIteration("cpu", time.Duration(i)*time.Millisecond)
	}

	stats := engine.Snapshot().Methods["cpu"]
	assert.InDelta(t, float64(50*time.Millisecond), float64(stats.P50), float64(time.Millisecond))
	assert.InDelta(t, float64(99*time.Millisecond), float64(stats.P99), float64(time.Millisecond))
}

func TestEngine_ClampsOutOfRange(t *testing.T) {
	engine := NewEngineWithConfig(EngineConfig{
		HistogramMin:     1,
		HistogramMax:     1000,
		HistogramSigFigs: 3,
	})

	engine.RecordIteration("cpu", 0)
	engine.RecordIteration("cpu", time.Hour)

	stats := engine.Snapshot().Methods["cpu"]
	assert.Equal(t, int64(2), stats.Count)
	assert.LessOrEqual(t, stats.Max, 1001*time.Microsecond)
}

func TestEngine_ConcurrentRecording(t *testing.T) {
	engine := NewEngine()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				engine.RecordIteration("cpu", time.Millisecond)
			}
		}()
	}
	wg.Wait()

	snapshot := engine.Snapshot()
	assert.Equal(t, int64(4000), snapshot.Iterations)
	assert.Equal(t, int64(4000), snapshot.Methods["cpu"].Count)
}
