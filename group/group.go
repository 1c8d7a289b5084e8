// Package group runs a fixed set of named goroutines that share one
// cancellable context, recovering panics and collecting their errors.
package group

import (
	"context"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// Group manages a collection of named goroutines with structured concurrency
type Group struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	config Config

	// Error handling
	errors    []error
	errorsMux sync.Mutex
	failOnce  sync.Once
	firstErr  atomic.Value // error, used in FailFast

	// State tracking
	running   int64
	completed int64
	failed    int64
}

// Stats provides information about goroutine execution
type Stats struct {
	Running   int64
	Completed int64
	Failed    int64
}

// New creates a new Group with the given options
func New(opts ...Option) *Group {
	return NewWithContext(context.Background(), opts...)
}

// NewWithContext creates a new Group whose context is derived from ctx
func NewWithContext(ctx context.Context, opts ...Option) *Group {
	config := DefaultConfig()
	for _, opt := range opts {
		opt(&config)
	}

	if ctx == nil {
		ctx = context.Background()
	}
	groupCtx, cancel := context.WithCancel(ctx)

	return &Group{
		ctx:    groupCtx,
		cancel: cancel,
		config: config,
	}
}

// Go runs fn in a new goroutine with panic recovery. Errors and panics are
// reported as a *TaskError carrying name.
func (g *Group) Go(name string, fn func(context.Context) error) {
	atomic.AddInt64(&g.running, 1)
	g.wg.Add(1)

	go func() {
		defer func() {
			atomic.AddInt64(&g.running, -1)
			atomic.AddInt64(&g.completed, 1)
			g.wg.Done()
		}()

		defer func() {
			if r := recover(); r != nil {
				g.handleError(name, &PanicError{
					Value: r,
					Stack: string(debug.Stack()),
				})
			}
		}()

		if err := fn(g.ctx); err != nil {
			g.handleError(name, err)
		}
	}()
}

// Wait waits for all goroutines to complete and returns any errors.
// In FailFast mode it returns the first error; in CollectAll mode an
// AggregateError holding every error.
func (g *Group) Wait() error {
	g.wg.Wait()
	g.Stop()

	switch g.config.errorMode {
	case FailFast:
		if v := g.firstErr.Load(); v != nil {
			return v.(error)
		}
		return nil

	case CollectAll:
		g.errorsMux.Lock()
		defer g.errorsMux.Unlock()
		if len(g.errors) > 0 {
			collected := make([]error, len(g.errors))
			copy(collected, g.errors)
			return AggregateError{Errors: collected}
		}
		return nil

	default:
		return nil
	}
}

// Stop cancels the group context, signaling all goroutines to stop
func (g *Group) Stop() {
	g.cancel()
}

// Context returns the group context
func (g *Group) Context() context.Context {
	return g.ctx
}

// Stats returns current statistics about the group
func (g *Group) Stats() Stats {
	return Stats{
		Running:   atomic.LoadInt64(&g.running),
		Completed: atomic.LoadInt64(&g.completed),
		Failed:    atomic.LoadInt64(&g.failed),
	}
}

// handleError processes an error according to the error mode
func (g *Group) handleError(name string, err error) {
	atomic.AddInt64(&g.failed, 1)
	taskErr := &TaskError{Task: name, Err: err}

	switch g.config.errorMode {
	case FailFast:
		g.failOnce.Do(func() {
			g.firstErr.Store(error(taskErr))
			g.cancel()
		})

	case CollectAll:
		g.errorsMux.Lock()
		g.errors = append(g.errors, taskErr)
		g.errorsMux.Unlock()
	}
}
