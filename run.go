package workq

import (
	"context"
	"errors"
	"time"

	"github.com/tahsin716/workq/group"
)

// Run seeds the queue, drives it with a control loop until no work is left,
// and destroys it. It returns the first fatal error of the run.
//
// If ctx ends first, the run is aborted: queued items are dropped, workers
// discard their backlogs, and ctx.Err() is returned. The queue cannot be
// reused after Run.
func (q *Queue[T]) Run(ctx context.Context, seeds ...T) error {
	for _, seed := range seeds {
		if err := q.Add(seed); err != nil {
			return err
		}
	}

	ctrl := NewControl(q)
	g := group.NewWithContext(ctx, group.WithErrorMode(group.FailFast))

	g.Go("control", func(ctx context.Context) error {
		defer g.Stop()
		return ctrl.Run(ctx)
	})

	if q.config.ProgressInterval > 0 && q.logger != nil {
		g.Go("progress", func(ctx context.Context) error {
			q.reportProgress(ctx, ctrl)
			return nil
		})
	}

	runErr := g.Wait()

	// A fatal queue error is more precise than whatever it caused upstream.
	if err := q.Err(); err != nil {
		runErr = err
	}
	if runErr != nil {
		q.abort()
	}

	if err := q.Destroy(); err != nil && runErr == nil {
		runErr = err
	}

	var taskErr *group.TaskError
	if errors.As(runErr, &taskErr) {
		runErr = taskErr.Err
	}
	return runErr
}

// reportProgress logs a one-line summary every ProgressInterval
func (q *Queue[T]) reportProgress(ctx context.Context, ctrl *Control[T]) {
	ticker := time.NewTicker(q.config.ProgressInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s := q.Stats()
			c := ctrl.Stats()
			q.logf("progress: processed=%d queued=%d backlog=%d on_disk=%d workers=%d/%d redistributed=%d",
				s.Processed, s.QueueLength, s.Backlog, s.SpillPending,
				s.Workers-s.IdleWorkers, s.Workers, c.Redistributed)
		}
	}
}
