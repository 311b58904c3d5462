package stress

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSharedCounters_ConcurrentIncrements(t *testing.T) {
	counters := NewSharedCounters()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				counters.IncrementCPU()
			}
		}()
	}
	wg.Wait()

	got := counters.Snapshot()
	assert.Equal(t, int64(8000), got.CPU)
	assert.Equal(t, int64(0), got.Memory)
}

func TestSharedCounters_IncrementByMethod(t *testing.T) {
	var counters SharedCounters

	counters.Increment(MethodCPU)
	counters.Increment(MethodMemory)
	counters.Increment(MethodMemory)
	counters.Increment(Method("disk"))

	got := counters.Snapshot()
	assert.Equal(t, Counts{CPU: 1, Memory: 2}, got)
	assert.Equal(t, int64(3), got.Total())
}

func TestSharedCounters_Monotonic(t *testing.T) {
	counters := NewSharedCounters()
	done := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 5000; j++ {
				counters.IncrementCPU()
				counters.IncrementMemory()
			}
		}()
	}
	go func() {
		wg.Wait()
		close(done)
	}()

	var last Counts
	for {
		select {
		case <-done:
			final := counters.Snapshot()
			assert.Equal(t, Counts{CPU: 20000, Memory: 20000}, final)
			return
		default:
		}

		cur := counters.Snapshot()
		if cur.CPU < last.CPU || cur.Memory < last.Memory {
			t.Fatalf("counters decreased: %+v after %+v", cur, last)
		}
		last = cur
	}
}
