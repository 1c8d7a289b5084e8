package workq

import (
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// Routine expands one item. Every child passed to emit is appended to the
// calling worker's private backlog in emit order. A routine that emits
// nothing has found a terminal item and records it in its own statistics.
type Routine[T any] func(item T, emit func(child T))

// engine is the private context of one worker. It is created by the queue
// when the worker is spawned and unregistered when the worker exits.
//
// Only the owning worker and the control loop touch the backlog, each under mu.
type engine[T any] struct {
	id int

	mu   sync.Mutex
	work backlog[T]

	// registry links, guarded by the registry lock
	prev, next *engine[T]
	registered bool

	explored uint64 // atomic
}

func newEngine[T any](id int) *engine[T] {
	return &engine[T]{id: id}
}

// explore runs the routine over item and all of its descendants that are
// still in this backlog, until the backlog is empty
func (e *engine[T]) explore(q *Queue[T], item T) {
	e.mu.Lock()
	e.work.pushBack(item)
	e.mu.Unlock()

	var children chain[T]
	emit := func(child T) { children.push(child) }

	for {
		if q.aborted.Load() {
			e.mu.Lock()
			dropped := e.work.clear()
			e.mu.Unlock()
			atomic.AddUint64(&q.metrics.dropped, uint64(dropped))
			return
		}

		e.mu.Lock()
		head, ok := e.work.front()
		e.mu.Unlock()
		if !ok {
			return
		}

		if !e.invoke(q, head, emit) {
			children = chain[T]{}
			atomic.AddUint64(&q.metrics.dropped, 1)
		} else {
			atomic.AddUint64(&q.metrics.processed, 1)
		}
		atomic.AddUint64(&e.explored, 1)

		e.mu.Lock()
		e.work.splice(&children)
		e.work.popFront()
		e.mu.Unlock()
	}
}

// invoke runs the routine with panic recovery. It returns false when the
// routine panicked; the panic becomes the queue's fatal error.
func (e *engine[T]) invoke(q *Queue[T], item T, emit func(T)) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			q.fail(&QueueError{
				Kind: KindRoutine,
				Op:   "routine",
				Err:  &PanicError{Value: r, Stack: string(debug.Stack())},
			})
			if q.config.PanicHandler != nil {
				q.config.PanicHandler(r)
			}
		}
	}()

	q.routine(item, emit)
	return true
}

// drainTail detaches every backlog node after the head and hands each one
// to add. The context lock is held for the whole call, so lock order is
// context lock before queue lock.
func (e *engine[T]) drainTail(add func(T) error) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	detached := e.work.detachTail()
	moved := 0
	var firstErr error
	detached.each(func(item T) {
		if firstErr != nil {
			e.work.pushBack(item)
			return
		}
		if err := add(item); err != nil {
			firstErr = err
			e.work.pushBack(item)
			return
		}
		moved++
	})
	return moved, firstErr
}

// pending returns the number of items in the backlog, head included
func (e *engine[T]) pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.work.len()
}
