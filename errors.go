package workq

import (
	"errors"
	"fmt"
)

// Kind categorizes a fatal queue error.
type Kind int

const (
	// KindResource covers allocation and worker creation failures.
	KindResource Kind = iota + 1
	// KindIO covers spill file failures during spill or reload.
	KindIO
	// KindRoutine covers a panic raised by the caller's routine.
	KindRoutine
)

func (k Kind) String() string {
	switch k {
	case KindResource:
		return "resource"
	case KindIO:
		return "io"
	case KindRoutine:
		return "routine"
	default:
		return "unknown"
	}
}

// Common errors returned by the queue.
var (
	// ErrQueueShutdown is returned by Add once Destroy has been called or a
	// run has been aborted. A destroyed queue cannot be reused.
	ErrQueueShutdown = errors.New("workq: queue is shut down")

	// ErrQueueInvalid is returned when operating on a Queue that was not
	// created by New.
	ErrQueueInvalid = errors.New("workq: queue is not initialized")

	// ErrSpillTruncated is returned when the spill file ends before the
	// number of records the queue wrote to it.
	ErrSpillTruncated = errors.New("workq: spill file truncated")

	// ErrNilRoutine is returned by New when no routine is given.
	ErrNilRoutine = errors.New("workq: routine is nil")

	// ErrNilCodec is returned by New when no codec is given.
	ErrNilCodec = errors.New("workq: codec is nil")

	// ErrCodecNotFixed is returned by New when the codec reports a record
	// size of zero or less, e.g. a BinaryCodec over a slice or string type.
	ErrCodecNotFixed = errors.New("workq: codec records are not fixed-size")

	// ErrInvalidConfig is wrapped by New for out-of-range options.
	ErrInvalidConfig = errors.New("workq: invalid config")
)

// QueueError is a fatal error raised inside the queue engine.
// There is no recovery path for any of them: they mean the environment is
// misconfigured for the chosen parallelism and capacity.
//
// QueueError supports errors.Is and errors.As through Unwrap.
type QueueError struct {
	Kind Kind   // failure category
	Op   string // operation that failed, e.g. "spill" or "reload"
	Err  error  // underlying error
}

// Error returns a formatted error message.
func (e *QueueError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("workq: %s (%s): %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("workq: %s (%s)", e.Op, e.Kind)
}

// Unwrap returns the underlying error.
func (e *QueueError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether err carries a QueueError.
func IsFatal(err error) bool {
	var qe *QueueError
	return errors.As(err, &qe)
}

// KindOf returns the Kind of the QueueError in err's chain, or 0.
func KindOf(err error) Kind {
	var qe *QueueError
	if errors.As(err, &qe) {
		return qe.Kind
	}
	return 0
}

// errInvalidConfig creates an error for invalid queue configuration.
func errInvalidConfig(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, msg)
}

func errIO(op string, err error) error {
	return &QueueError{Kind: KindIO, Op: op, Err: err}
}

// PanicError wraps a value recovered from a panicking routine
type PanicError struct {
	Value interface{}
	Stack string
}

func (p *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", p.Value)
}
