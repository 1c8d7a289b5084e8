package group

import (
	"fmt"
	"strings"
)

// PanicError wraps a recovered panic
type PanicError struct {
	Value interface{}
	Stack string
}

func (p *PanicError) Error() string {
	return fmt.Sprintf("panic: %v\n%s", p.Value, p.Stack)
}

// TaskError ties an error to the name of the goroutine that returned it
type TaskError struct {
	Task string
	Err  error
}

func (e *TaskError) Error() string {
	return e.Task + ": " + e.Err.Error()
}

func (e *TaskError) Unwrap() error {
	return e.Err
}

// AggregateError wraps multiple errors (for CollectAll mode)
type AggregateError struct {
	Errors []error
}

func (a AggregateError) Error() string {
	if len(a.Errors) == 0 {
		return "no errors"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d error(s) occurred:", len(a.Errors))
	for i, err := range a.Errors {
		fmt.Fprintf(&b, "\n  [%d] %v", i+1, err)
	}
	return b.String()
}

func (a AggregateError) Unwrap() []error {
	return a.Errors
}
