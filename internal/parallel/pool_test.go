package parallel

import (
	"runtime"
	"sync/atomic"
	"testing"
)

// =============================================================================
// WorkerPool Creation Tests
// =============================================================================

func TestWorkerPool_Create(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	if pool.Workers() != 4 {
		t.Errorf("Workers() = %d, want 4", pool.Workers())
	}
}

func TestWorkerPool_CreateDefaultWorkers(t *testing.T) {
	for _, n := range []int{0, -5} {
		pool := NewWorkerPool(n)
		if pool.Workers() != runtime.GOMAXPROCS(0) {
			t.Errorf("NewWorkerPool(%d).Workers() = %d, want GOMAXPROCS", n, pool.Workers())
		}
		pool.Close()
	}
}

// =============================================================================
// ExecuteAll Tests
// =============================================================================

func TestWorkerPool_ExecuteAll(t *testing.T) {
	pool := NewWorkerPool(3)
	defer pool.Close()

	var count atomic.Int32
	work := make([]func(), 100)
	for i := range work {
		work[i] = func() { count.Add(1) }
	}
	pool.ExecuteAll(work)

	if got := count.Load(); got != 100 {
		t.Errorf("executed %d items, want 100", got)
	}
}

func TestWorkerPool_ExecuteAllAfterClose(t *testing.T) {
	pool := NewWorkerPool(2)
	pool.Close()
	pool.Close()

	ran := false
	pool.ExecuteAll([]func(){func() { ran = true }})
	if !ran {
		t.Error("work on a closed pool must run on the caller")
	}
}

// =============================================================================
// Rows Tests
// =============================================================================

func TestWorkerPool_RowsCoverEveryRowOnce(t *testing.T) {
	for _, height := range []int{1, 2, 7, 64, 1081} {
		pool := NewWorkerPool(4)
		hits := make([]atomic.Int32, height)
		pool.Rows(height, func(y0, y1 int) {
			for y := y0; y < y1; y++ {
				hits[y].Add(1)
			}
		})
		pool.Close()
		for y := range hits {
			if n := hits[y].Load(); n != 1 {
				t.Fatalf("height %d: row %d visited %d times", height, y, n)
			}
		}
	}
}

func TestWorkerPool_RowsEmpty(t *testing.T) {
	pool := NewWorkerPool(2)
	defer pool.Close()
	pool.Rows(0, func(int, int) { t.Error("called for zero height") })
}

func BenchmarkWorkerPool_Rows(b *testing.B) {
	pool := NewWorkerPool(0)
	defer pool.Close()
	buf := make([]float32, 1920*1080)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		pool.Rows(1080, func(y0, y1 int) {
			for j := y0 * 1920; j < y1*1920; j++ {
				buf[j] = buf[j]*0.5 + 1
			}
		})
	}
}
