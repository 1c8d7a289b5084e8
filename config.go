package workq

import (
	"log"
	"os"
	"runtime"
	"time"
)

// Config contains all configuration options for a Queue
type Config struct {
	// Parallelism is the maximum number of concurrently running workers.
	// If 0, defaults to runtime.NumCPU()
	Parallelism int

	// Capacity is the in-memory queue length above which LoadUnload spills
	// surplus items to disk. It is also the reload batch size.
	// Defaults to 100000
	Capacity int

	// PollInterval is how long the control loop sleeps after a pass that
	// changed nothing. Defaults to 1s
	PollInterval time.Duration

	// IdleTimeout is how long a worker waits on an empty queue before it
	// exits. Add starts new workers when work appears again.
	// If 0, defaults to half of PollInterval, so the last worker is gone
	// before the control loop wakes up again
	IdleTimeout time.Duration

	// SpillDir is the directory the spill file is created in.
	// If empty, defaults to os.TempDir()
	SpillDir string

	// ProgressInterval enables a periodic progress line while Run is active.
	// Zero disables it.
	ProgressInterval time.Duration

	// Logger receives spill, reload, panic and termination events.
	// A nil Logger disables logging.
	Logger *log.Logger

	// PanicHandler is called when a routine panics, after the panic has
	// been recorded as the queue's fatal error
	PanicHandler func(interface{})

	// OnWorkerStart is called when a worker starts
	OnWorkerStart func(workerID int)

	// OnWorkerStop is called when a worker exits
	OnWorkerStop func(workerID int)
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		Parallelism:  runtime.NumCPU(),
		Capacity:     100000,
		PollInterval: time.Second,
		SpillDir:     os.TempDir(),
		Logger:       log.Default(),
	}
}

// validate checks the configuration and returns an error if invalid
func (c *Config) validate() error {
	if c.Parallelism < 0 {
		return errInvalidConfig("Parallelism must be >= 0")
	}
	if c.Parallelism == 0 {
		c.Parallelism = runtime.NumCPU()
	}

	if c.Capacity <= 0 {
		return errInvalidConfig("Capacity must be > 0")
	}

	if c.PollInterval <= 0 {
		return errInvalidConfig("PollInterval must be > 0")
	}

	if c.IdleTimeout < 0 {
		return errInvalidConfig("IdleTimeout must be >= 0")
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = c.PollInterval / 2
	}

	if c.ProgressInterval < 0 {
		return errInvalidConfig("ProgressInterval must be >= 0")
	}

	if c.SpillDir == "" {
		c.SpillDir = os.TempDir()
	}

	return nil
}

// Option configures a Queue.
type Option func(*Config)

// WithParallelism sets the maximum number of workers.
func WithParallelism(n int) Option {
	return func(c *Config) { c.Parallelism = n }
}

// WithCapacity sets the in-memory queue capacity threshold.
func WithCapacity(n int) Option {
	return func(c *Config) { c.Capacity = n }
}

// WithPollInterval sets the control loop sleep interval.
func WithPollInterval(d time.Duration) Option {
	return func(c *Config) { c.PollInterval = d }
}

// WithIdleTimeout sets how long an idle worker waits before exiting.
func WithIdleTimeout(d time.Duration) Option {
	return func(c *Config) { c.IdleTimeout = d }
}

// WithSpillDir sets the directory for the spill file.
func WithSpillDir(dir string) Option {
	return func(c *Config) { c.SpillDir = dir }
}

// WithProgressInterval enables periodic progress logging during Run.
func WithProgressInterval(d time.Duration) Option {
	return func(c *Config) { c.ProgressInterval = d }
}

// WithLogger sets the logger. Pass nil to disable logging.
func WithLogger(l *log.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// WithPanicHandler sets the routine panic handler.
func WithPanicHandler(h func(interface{})) Option {
	return func(c *Config) { c.PanicHandler = h }
}

// WithOnWorkerStart sets the worker start hook.
func WithOnWorkerStart(fn func(workerID int)) Option {
	return func(c *Config) { c.OnWorkerStart = fn }
}

// WithOnWorkerStop sets the worker stop hook.
func WithOnWorkerStop(fn func(workerID int)) Option {
	return func(c *Config) { c.OnWorkerStop = fn }
}
