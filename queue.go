package workq

import (
	"log"
	"sync"
	"sync/atomic"
)

// Change is the outcome of a LoadUnload call
type Change int

const (
	// NoChange means the queue was within capacity and nothing was reloaded
	NoChange Change = iota
	// Spilled means surplus items were moved from the queue tail to disk
	Spilled
	// Reloaded means spilled items were moved back into an empty queue
	Reloaded
)

func (c Change) String() string {
	switch c {
	case NoChange:
		return "NO_CHANGE"
	case Spilled:
		return "SPILLED"
	case Reloaded:
		return "RELOADED"
	default:
		return "UNKNOWN"
	}
}

// Queue is the shared work queue. It owns a pool of workers that grows on
// demand up to Parallelism and shrinks when workers stay idle, and a spill
// file that keeps the in-memory length bounded by Capacity.
type Queue[T any] struct {
	config  Config
	routine Routine[T]
	logger  *log.Logger

	mu    sync.Mutex
	cond  *sync.Cond // work available or idle deadline passed
	done  *sync.Cond // worker count reached zero
	items *deque[T]
	spill *spillFile[T]

	// engines holds one context per live worker. Inserts and removals
	// happen under mu, so its size always equals workers.
	engines registry[T]

	// Pool sizing, guarded by mu
	workers      int
	idle         int
	wakeups      int // signals sent to idle workers and not yet consumed
	peakWorkers  int
	nextWorkerID int

	// Lifecycle, guarded by mu
	valid     bool
	quit      bool
	destroyed bool

	aborted atomic.Bool

	errMu sync.Mutex
	err   error

	metrics queueMetrics
}

// queueMetrics tracks queue-wide counters
type queueMetrics struct {
	added     uint64 // atomic
	processed uint64 // atomic
	dropped   uint64 // atomic
	spilled   uint64 // atomic
	reloaded  uint64 // atomic
	spawned   uint64 // atomic
}

// New creates a queue that expands items with routine and spills them with
// codec. No worker is started until the first Add.
//
// Example:
//
//	q, err := workq.New(expand, workq.BinaryCodec[Item]{},
//	    workq.WithParallelism(8),
//	    workq.WithCapacity(50000),
//	)
func New[T any](routine Routine[T], codec Codec[T], opts ...Option) (*Queue[T], error) {
	if routine == nil {
		return nil, ErrNilRoutine
	}
	if codec == nil {
		return nil, ErrNilCodec
	}
	if sc, ok := codec.(sizedCodec); ok && sc.Size() <= 0 {
		return nil, ErrCodecNotFixed
	}

	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	q := &Queue[T]{
		config:  cfg,
		routine: routine,
		logger:  cfg.Logger,
		items:   newDeque[T](minDequeCapacity),
		spill:   newSpillFile(cfg.SpillDir, codec),
		valid:   true,
	}
	q.cond = sync.NewCond(&q.mu)
	q.done = sync.NewCond(&q.mu)
	return q, nil
}

// Add appends item to the tail of the queue. If a worker is idle it wakes
// exactly one; otherwise it starts a new worker while fewer than
// Parallelism are running.
//
// Returns ErrQueueShutdown after Destroy or once the queue has failed.
func (q *Queue[T]) Add(item T) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.valid {
		if q.destroyed {
			return ErrQueueShutdown
		}
		return ErrQueueInvalid
	}
	if q.quit || q.aborted.Load() {
		return ErrQueueShutdown
	}

	q.items.PushBack(item)
	atomic.AddUint64(&q.metrics.added, 1)
	q.dispatchLocked()
	return nil
}

// dispatchLocked makes sure someone will pick up a newly queued item.
// An idle worker already signalled for an earlier item does not count.
func (q *Queue[T]) dispatchLocked() {
	if q.idle > q.wakeups {
		q.wakeups++
		q.cond.Signal()
		return
	}
	if q.workers < q.config.Parallelism {
		q.spawnLocked()
	}
}

// spawnLocked starts a worker together with its engine context. The context
// is registered before the goroutine starts, so the control loop can never
// see an empty registry while a worker is about to run.
func (q *Queue[T]) spawnLocked() {
	q.nextWorkerID++
	e := newEngine[T](q.nextWorkerID)
	q.engines.insert(e)

	q.workers++
	if q.workers > q.peakWorkers {
		q.peakWorkers = q.workers
	}
	atomic.AddUint64(&q.metrics.spawned, 1)

	go q.work(e)
}

// LoadUnload keeps the in-memory queue within Capacity. If the queue is
// longer than Capacity, the surplus is saved from the tail to the spill file.
// Otherwise, if the queue is empty and the spill file has records, up to
// Capacity of them are loaded back. It is the only operation that touches
// the spill file.
//
// An I/O failure is fatal: it is recorded as the queue's error and returned.
func (q *Queue[T]) LoadUnload() (Change, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.valid {
		return NoChange, ErrQueueInvalid
	}

	if n := q.items.Len(); n > q.config.Capacity {
		surplus := n - q.config.Capacity
		batch := make([]T, surplus)
		for i := surplus - 1; i >= 0; i-- {
			batch[i], _ = q.items.PopBack()
		}
		if err := q.spill.write(batch); err != nil {
			q.fail(err)
			return NoChange, err
		}
		atomic.AddUint64(&q.metrics.spilled, uint64(surplus))
		q.logf("spilled %d items (%d on disk)", surplus, q.spill.pending)
		return Spilled, nil
	}

	if q.items.IsEmpty() && q.spill.pending > 0 {
		batch, err := q.spill.read(q.config.Capacity)
		if err != nil {
			q.fail(err)
			return NoChange, err
		}
		for _, item := range batch {
			q.items.PushBack(item)
			q.dispatchLocked()
		}
		atomic.AddUint64(&q.metrics.reloaded, uint64(len(batch)))
		q.logf("reloaded %d items (%d on disk)", len(batch), q.spill.pending)
		return Reloaded, nil
	}

	return NoChange, nil
}

// Destroy shuts the queue down. It wakes every idle worker, waits until all
// workers have exited, then closes and removes the spill file. Workers still
// drain whatever is queued unless the queue was aborted.
//
// Add must not be called concurrently with Destroy. Multiple calls are safe.
func (q *Queue[T]) Destroy() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.destroyed {
		return nil
	}
	if !q.valid {
		return ErrQueueInvalid
	}

	q.quit = true
	q.cond.Broadcast()
	for q.workers > 0 {
		q.done.Wait()
	}

	if n := q.items.Len() + q.spill.pending; n > 0 {
		atomic.AddUint64(&q.metrics.dropped, uint64(n))
	}
	q.items.Reset()
	q.valid = false
	q.destroyed = true
	return q.spill.close()
}

// finished reports whether no worker is alive and no item is queued in
// memory or on disk. Nothing can produce new work once this holds.
func (q *Queue[T]) finished() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.workers == 0 && q.items.IsEmpty() && q.spill.pending == 0
}

// abort stops exploration: queued items are dropped and workers discard
// their backlogs at the next item boundary
func (q *Queue[T]) abort() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.aborted.Store(true)
	if n := q.items.Len(); n > 0 {
		atomic.AddUint64(&q.metrics.dropped, uint64(n))
		q.items.Reset()
	}
	q.cond.Broadcast()
}

// fail records the first fatal error and aborts further exploration
func (q *Queue[T]) fail(err error) {
	q.errMu.Lock()
	first := q.err == nil
	if first {
		q.err = err
	}
	q.errMu.Unlock()

	q.aborted.Store(true)
	if first {
		q.logf("fatal: %v", err)
	}
}

// Err returns the fatal error that stopped the queue, if any
func (q *Queue[T]) Err() error {
	q.errMu.Lock()
	defer q.errMu.Unlock()
	return q.err
}

// Len returns the current in-memory queue length
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}

// Config returns the validated configuration
func (q *Queue[T]) Config() Config {
	return q.config
}

func (q *Queue[T]) logf(format string, args ...interface{}) {
	if q.logger != nil {
		q.logger.Printf("workq: "+format, args...)
	}
}
