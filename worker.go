package workq

import "time"

// work is the main worker loop. It takes one item at a time from the shared
// queue and explores it through the worker's engine context. A worker exits
// when the queue is shutting down, or when it has waited IdleTimeout on an
// empty queue; Add starts a new one when work appears again.
func (q *Queue[T]) work(e *engine[T]) {
	if q.config.OnWorkerStart != nil {
		q.config.OnWorkerStart(e.id)
	}
	defer func() {
		if q.config.OnWorkerStop != nil {
			q.config.OnWorkerStop(e.id)
		}
	}()

	q.mu.Lock()
	for {
		var deadline time.Time
		for q.items.IsEmpty() && !q.quit {
			if deadline.IsZero() {
				deadline = time.Now().Add(q.config.IdleTimeout)
			}
			remaining := time.Until(deadline)
			if remaining <= 0 {
				break
			}
			q.parkLocked(remaining)
		}

		if item, ok := q.items.PopFront(); ok {
			q.mu.Unlock()
			e.explore(q, item)
			q.mu.Lock()
			continue
		}

		// Empty queue and either shutting down or idle for too long.
		q.workers--
		q.engines.remove(e)
		if q.workers == 0 {
			q.done.Broadcast()
		}
		q.mu.Unlock()
		return
	}
}

// parkLocked waits on the queue condition for at most d. Wakeups may be
// spurious; the caller re-checks its condition.
func (q *Queue[T]) parkLocked(d time.Duration) {
	timer := time.AfterFunc(d, func() {
		q.mu.Lock()
		q.cond.Broadcast()
		q.mu.Unlock()
	})

	q.idle++
	q.cond.Wait()
	q.idle--
	if q.wakeups > 0 {
		q.wakeups--
	}

	timer.Stop()
}
