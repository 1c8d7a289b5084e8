package workq

import (
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// ============================================================================
// Construction Tests
// ============================================================================

func TestNew(t *testing.T) {
	q := newTestQueue(t, func(treeItem, func(treeItem)) {})
	defer q.Destroy()

	if s := q.Stats(); s.Workers != 0 || s.Engines != 0 {
		t.Errorf("Expected no workers before the first Add, got %+v", s)
	}
}

func TestNew_NilArguments(t *testing.T) {
	if _, err := New[treeItem](nil, BinaryCodec[treeItem]{}); !errors.Is(err, ErrNilRoutine) {
		t.Errorf("Expected ErrNilRoutine, got %v", err)
	}
	if _, err := New[treeItem](func(treeItem, func(treeItem)) {}, nil); !errors.Is(err, ErrNilCodec) {
		t.Errorf("Expected ErrNilCodec, got %v", err)
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"negative parallelism", WithParallelism(-1)},
		{"zero capacity", WithCapacity(0)},
		{"zero poll interval", WithPollInterval(0)},
		{"negative idle timeout", WithIdleTimeout(-time.Millisecond)},
		{"negative progress interval", WithProgressInterval(-time.Second)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(func(treeItem, func(treeItem)) {}, BinaryCodec[treeItem]{}, tt.opt)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("Expected ErrInvalidConfig, got %v", err)
			}
			if IsFatal(err) {
				t.Errorf("Config errors must not be fatal queue errors: %v", err)
			}
		})
	}
}

func TestNew_IdleTimeoutFollowsPollInterval(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		want time.Duration
	}{
		{"defaults", nil, 500 * time.Millisecond},
		{"custom poll", []Option{WithPollInterval(100 * time.Millisecond)}, 50 * time.Millisecond},
		{"explicit idle", []Option{WithIdleTimeout(3 * time.Second)}, 3 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := append([]Option{WithLogger(nil)}, tt.opts...)
			q, err := New(func(treeItem, func(treeItem)) {}, BinaryCodec[treeItem]{}, opts...)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			defer q.Destroy()

			if got := q.Config().IdleTimeout; got != tt.want {
				t.Errorf("IdleTimeout = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	q := newTestQueue(t, func(treeItem, func(treeItem)) {}, WithParallelism(0), WithSpillDir(""))
	defer q.Destroy()

	cfg := q.Config()
	if cfg.Parallelism != runtime.NumCPU() {
		t.Errorf("Expected parallelism %d, got %d", runtime.NumCPU(), cfg.Parallelism)
	}
	if cfg.SpillDir == "" {
		t.Error("Expected a default spill directory")
	}
}

// ============================================================================
// Add Tests
// ============================================================================

func TestAdd_ZeroValueQueue(t *testing.T) {
	var q Queue[treeItem]
	if err := q.Add(treeItem{}); !errors.Is(err, ErrQueueInvalid) {
		t.Errorf("Expected ErrQueueInvalid, got %v", err)
	}
	if _, err := q.LoadUnload(); !errors.Is(err, ErrQueueInvalid) {
		t.Errorf("Expected ErrQueueInvalid, got %v", err)
	}
}

func TestAdd_AfterDestroy(t *testing.T) {
	q := newTestQueue(t, func(treeItem, func(treeItem)) {})
	if err := q.Destroy(); err != nil {
		t.Fatalf("Destroy() error = %v", err)
	}
	if err := q.Add(treeItem{}); !errors.Is(err, ErrQueueShutdown) {
		t.Errorf("Expected ErrQueueShutdown, got %v", err)
	}
}

func TestAdd_ScalesUpToParallelism(t *testing.T) {
	gate := make(chan struct{})
	var blocked int64

	q := newTestQueue(t, func(treeItem, func(treeItem)) {
		atomic.AddInt64(&blocked, 1)
		<-gate
	}, WithParallelism(3), WithIdleTimeout(time.Second))

	for i := 0; i < 10; i++ {
		if err := q.Add(treeItem{ID: uint64(i)}); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}

	waitFor(t, 2*time.Second, "three blocked workers", func() bool {
		return atomic.LoadInt64(&blocked) == 3
	})

	s := q.Stats()
	if s.Workers != 3 || s.Engines != 3 || s.PeakWorkers != 3 {
		t.Errorf("Expected 3 workers and engines, got %+v", s)
	}
	if s.QueueLength != 7 {
		t.Errorf("Expected 7 queued items, got %d", s.QueueLength)
	}

	close(gate)
	if err := q.Destroy(); err != nil {
		t.Fatalf("Destroy() error = %v", err)
	}
	if s := q.Stats(); s.Processed != 10 || s.WorkersSpawned != 3 {
		t.Errorf("Expected 10 processed by 3 workers, got %+v", s)
	}
}

func TestAdd_WakesIdleWorker(t *testing.T) {
	var calls int64
	q := newTestQueue(t, func(treeItem, func(treeItem)) {
		atomic.AddInt64(&calls, 1)
	}, WithParallelism(4), WithIdleTimeout(time.Second))
	defer q.Destroy()

	_ = q.Add(treeItem{ID: 1})
	waitFor(t, time.Second, "worker to go idle", func() bool {
		return q.Stats().IdleWorkers == 1
	})

	_ = q.Add(treeItem{ID: 2})
	waitFor(t, time.Second, "second item", func() bool {
		return atomic.LoadInt64(&calls) == 2
	})

	if s := q.Stats(); s.WorkersSpawned != 1 {
		t.Errorf("Expected the idle worker to be reused, spawned %d", s.WorkersSpawned)
	}
}

func TestAdd_BurstSpawnsPastSignalledWorker(t *testing.T) {
	gate := make(chan struct{})
	var blocked int64

	q := newTestQueue(t, func(it treeItem, emit func(treeItem)) {
		if it.ID == 0 {
			return
		}
		atomic.AddInt64(&blocked, 1)
		<-gate
	}, WithParallelism(2), WithIdleTimeout(time.Second))

	_ = q.Add(treeItem{ID: 0})
	waitFor(t, time.Second, "worker to go idle", func() bool {
		return q.Stats().IdleWorkers == 1
	})

	// Two items back to back: the first wakes the idle worker, the second
	// must start a new one rather than signal the same waiter again.
	_ = q.Add(treeItem{ID: 1})
	_ = q.Add(treeItem{ID: 2})

	waitFor(t, 2*time.Second, "both items running", func() bool {
		return atomic.LoadInt64(&blocked) == 2
	})
	if s := q.Stats(); s.WorkersSpawned != 2 || s.Workers != 2 {
		t.Errorf("Expected 2 workers, got %+v", s)
	}

	close(gate)
	if err := q.Destroy(); err != nil {
		t.Fatalf("Destroy() error = %v", err)
	}
}

// ============================================================================
// Worker Lifecycle Tests
// ============================================================================

func TestWorkers_ExitWhenIdle(t *testing.T) {
	var mu sync.Mutex
	started := make(map[int]bool)
	stopped := make(map[int]bool)

	q := newTestQueue(t, func(treeItem, func(treeItem)) {},
		WithParallelism(2),
		WithOnWorkerStart(func(id int) {
			mu.Lock()
			started[id] = true
			mu.Unlock()
		}),
		WithOnWorkerStop(func(id int) {
			mu.Lock()
			stopped[id] = true
			mu.Unlock()
		}),
	)
	defer q.Destroy()

	_ = q.Add(treeItem{ID: 1})
	waitFor(t, 2*time.Second, "worker to exit", func() bool {
		s := q.Stats()
		return s.Processed == 1 && s.Workers == 0
	})

	if s := q.Stats(); s.Engines != 0 {
		t.Errorf("Expected registry to be empty, got %d engines", s.Engines)
	}

	// OnWorkerStop runs after the worker has left the pool
	waitFor(t, 2*time.Second, "first worker to stop", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(started) == 1 && len(stopped) == 1
	})

	// A new worker is started once work appears again
	_ = q.Add(treeItem{ID: 2})
	waitFor(t, 2*time.Second, "second item", func() bool {
		return q.Stats().Processed == 2
	})
	waitFor(t, 2*time.Second, "second worker to exit", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(started) == 2 && len(stopped) == 2
	})
}

func TestDestroy_DrainsQueuedItems(t *testing.T) {
	gate := make(chan struct{})
	started := make(chan struct{}, 1)
	var calls int64

	q := newTestQueue(t, gatedRoutine(gate, started, &calls),
		WithParallelism(1), WithIdleTimeout(time.Second))

	for i := 0; i < 5; i++ {
		_ = q.Add(treeItem{ID: uint64(i)})
	}
	<-started

	done := make(chan error, 1)
	go func() { done <- q.Destroy() }()

	select {
	case <-done:
		t.Fatal("Destroy() returned while a worker was busy")
	case <-time.After(20 * time.Millisecond):
	}

	close(gate)
	if err := <-done; err != nil {
		t.Fatalf("Destroy() error = %v", err)
	}
	if got := atomic.LoadInt64(&calls); got != 5 {
		t.Errorf("Expected 5 routine calls, got %d", got)
	}
}

func TestDestroy_Twice(t *testing.T) {
	q := newTestQueue(t, func(treeItem, func(treeItem)) {})
	_ = q.Add(treeItem{})

	if err := q.Destroy(); err != nil {
		t.Fatalf("First Destroy() error = %v", err)
	}
	if err := q.Destroy(); err != nil {
		t.Errorf("Second Destroy() error = %v", err)
	}
}

func TestRoutinePanic(t *testing.T) {
	var handled atomic.Value

	q := newTestQueue(t, func(it treeItem, emit func(treeItem)) {
		if it.ID == 3 {
			panic("bad item")
		}
	}, WithPanicHandler(func(r interface{}) { handled.Store(r) }))
	defer q.Destroy()

	for i := 0; i < 5; i++ {
		_ = q.Add(treeItem{ID: uint64(i)})
	}

	waitFor(t, 2*time.Second, "panic to be recorded", func() bool {
		return q.Err() != nil
	})

	err := q.Err()
	if KindOf(err) != KindRoutine {
		t.Errorf("Expected KindRoutine, got %v", KindOf(err))
	}
	var pe *PanicError
	if !errors.As(err, &pe) || pe.Value != "bad item" || pe.Stack == "" {
		t.Errorf("Expected PanicError with stack, got %v", err)
	}
	if handled.Load() != "bad item" {
		t.Errorf("PanicHandler got %v", handled.Load())
	}
	if err := q.Add(treeItem{ID: 9}); !errors.Is(err, ErrQueueShutdown) {
		t.Errorf("Expected ErrQueueShutdown after a panic, got %v", err)
	}
}
