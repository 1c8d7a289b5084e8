package workq

import (
	"sync"
	"sync/atomic"
)

// Stats contains a snapshot of queue activity. Counters are read without
// stopping the workers, so they may be slightly inconsistent while a run is
// active.
//
// Example:
//
//	stats := q.Stats()
//	fmt.Printf("processed %d, on disk %d\n", stats.Processed, stats.SpillPending)
type Stats struct {
	// Added is the number of items accepted by Add, seeds included.
	// Items reloaded from disk are not counted again.
	Added uint64

	// Processed is the number of routine invocations that returned normally.
	Processed uint64

	// Dropped is the number of items discarded without being explored:
	// items of an aborted run, and items whose routine panicked.
	Dropped uint64

	// Spilled is the total number of items written to the spill file.
	Spilled uint64

	// Reloaded is the total number of items read back from the spill file.
	Reloaded uint64

	// WorkersSpawned is the number of workers started since creation.
	WorkersSpawned uint64

	// Workers is the number of live workers.
	Workers int

	// IdleWorkers is the number of workers waiting for work.
	IdleWorkers int

	// PeakWorkers is the highest number of concurrently live workers.
	PeakWorkers int

	// Engines is the number of registered engine contexts.
	// It equals Workers whenever the queue lock is not held.
	Engines int

	// Backlog is the number of items held in worker-private backlogs,
	// the heads being explored included.
	Backlog int

	// QueueLength is the number of items in the in-memory queue.
	QueueLength int

	// SpillPending is the number of records on disk not yet reloaded.
	SpillPending int
}

// Stats returns a snapshot of queue statistics.
func (q *Queue[T]) Stats() Stats {
	q.mu.Lock()
	s := Stats{
		Workers:      q.workers,
		IdleWorkers:  q.idle,
		PeakWorkers:  q.peakWorkers,
		QueueLength:  q.items.Len(),
		SpillPending: q.spill.pending,
	}
	q.mu.Unlock()

	engines := q.engines.snapshot()
	s.Engines = len(engines)
	for _, e := range engines {
		s.Backlog += e.pending()
	}

	s.Added = atomic.LoadUint64(&q.metrics.added)
	s.Processed = atomic.LoadUint64(&q.metrics.processed)
	s.Dropped = atomic.LoadUint64(&q.metrics.dropped)
	s.Spilled = atomic.LoadUint64(&q.metrics.spilled)
	s.Reloaded = atomic.LoadUint64(&q.metrics.reloaded)
	s.WorkersSpawned = atomic.LoadUint64(&q.metrics.spawned)
	return s
}

// Best tracks the deepest terminal item found so far together with a
// witness describing it. Routines call Offer when an item produces no
// children. The recorded depth never decreases.
//
// The zero value is ready to use and holds no result.
type Best[W any] struct {
	mu      sync.Mutex
	depth   int
	witness W
	set     bool

	offers       uint64 // atomic
	improvements uint64 // guarded by mu

	// OnImprove, if set, is called under the statistics lock each time a
	// strictly greater depth is recorded. Calls are therefore serialized
	// and arrive in increasing depth order.
	OnImprove func(depth int, witness W)
}

// NewBest returns a Best whose initial depth is depth. Offers must exceed
// it to be recorded.
func NewBest[W any](depth int, witness W) *Best[W] {
	return &Best[W]{depth: depth, witness: witness, set: true}
}

// Offer records depth and witness if depth is strictly greater than the
// current best, or if nothing has been recorded yet. It reports whether
// the offer was recorded.
func (b *Best[W]) Offer(depth int, witness W) bool {
	atomic.AddUint64(&b.offers, 1)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.set && depth <= b.depth {
		return false
	}
	b.depth = depth
	b.witness = witness
	b.set = true
	b.improvements++
	if b.OnImprove != nil {
		b.OnImprove(depth, witness)
	}
	return true
}

// Get returns the current best depth and witness. ok is false if nothing
// has been recorded.
func (b *Best[W]) Get() (depth int, witness W, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.depth, b.witness, b.set
}

// Depth returns the current best depth, or 0 if nothing has been recorded.
func (b *Best[W]) Depth() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.depth
}

// Offers returns the number of Offer calls, i.e. terminal items seen.
func (b *Best[W]) Offers() uint64 {
	return atomic.LoadUint64(&b.offers)
}

// Improvements returns the number of recorded offers.
func (b *Best[W]) Improvements() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.improvements
}
