package workq

import "sync"

// registry is the doubly linked list of live engine contexts.
// An empty registry means no worker is alive.
type registry[T any] struct {
	mu   sync.Mutex
	head *engine[T]
	size int
}

// insert links e at the head of the list
func (r *registry[T]) insert(e *engine[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e.registered {
		return
	}
	e.prev = nil
	e.next = r.head
	if r.head != nil {
		r.head.prev = e
	}
	r.head = e
	e.registered = true
	r.size++
}

// remove splices e out of the list. Removing an engine twice is a no-op.
func (r *registry[T]) remove(e *engine[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !e.registered {
		return
	}
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		r.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	}
	e.prev, e.next = nil, nil
	e.registered = false
	r.size--
}

// snapshot returns the live engines at this instant. The registry lock is
// released before the caller touches any of them.
func (r *registry[T]) snapshot() []*engine[T] {
	r.mu.Lock()
	defer r.mu.Unlock()

	engines := make([]*engine[T], 0, r.size)
	for e := r.head; e != nil; e = e.next {
		engines = append(engines, e)
	}
	return engines
}

func (r *registry[T]) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}
