package workq

import (
	"context"
	"sync/atomic"
	"time"
)

// Control is the single coordinating loop of a run. Each pass it moves the
// private backlogs of all workers (except each head) into the shared queue,
// then lets the queue spill or reload. It returns once no worker is alive
// and nothing is queued in memory or on disk.
type Control[T any] struct {
	q *Queue[T]

	scans         uint64 // atomic
	redistributed uint64 // atomic
	sleeps        uint64 // atomic
}

// NewControl creates the control loop for q
func NewControl[T any](q *Queue[T]) *Control[T] {
	return &Control[T]{q: q}
}

// Run drives the queue until termination. It returns the queue's fatal error
// if one occurs, or ctx.Err() once ctx ends.
func (c *Control[T]) Run(ctx context.Context) error {
	timer := time.NewTimer(c.q.config.PollInterval)
	defer timer.Stop()

	for {
		if err := c.q.Err(); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		// Scan
		engines := c.q.engines.snapshot()
		atomic.AddUint64(&c.scans, 1)
		if len(engines) == 0 && c.q.finished() {
			c.q.logf("terminated: no engines left")
			return nil
		}

		// Redistribute
		for _, e := range engines {
			moved, err := e.drainTail(c.q.Add)
			atomic.AddUint64(&c.redistributed, uint64(moved))
			if err != nil {
				return err
			}
		}

		// PersistenceCheck
		change, err := c.q.LoadUnload()
		if err != nil {
			return err
		}
		if change != NoChange {
			continue
		}

		atomic.AddUint64(&c.sleeps, 1)
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(c.q.config.PollInterval)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// ControlStats contains counters of a control loop
type ControlStats struct {
	Scans         uint64 // passes over the registry
	Redistributed uint64 // backlog items moved to the shared queue
	Sleeps        uint64 // passes that ended with a PollInterval sleep
}

// Stats returns a snapshot of the control loop counters
func (c *Control[T]) Stats() ControlStats {
	return ControlStats{
		Scans:         atomic.LoadUint64(&c.scans),
		Redistributed: atomic.LoadUint64(&c.redistributed),
		Sleeps:        atomic.LoadUint64(&c.sleeps),
	}
}
