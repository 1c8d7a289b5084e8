package group

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	g := New()
	if g == nil {
		t.Fatal("New() returned nil")
	}

	if g.ctx == nil {
		t.Error("Group context is nil")
	}

	if g.config.errorMode != FailFast {
		t.Errorf("Expected default error mode %v, got %v", FailFast, g.config.errorMode)
	}
}

func TestGroup_AllSucceed(t *testing.T) {
	g := New()

	var ran int32
	for i := 0; i < 5; i++ {
		g.Go("task", func(ctx context.Context) error {
			atomic.AddInt32(&ran, 1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if atomic.LoadInt32(&ran) != 5 {
		t.Errorf("Expected 5 tasks to run, got %d", ran)
	}

	stats := g.Stats()
	if stats.Completed != 5 || stats.Failed != 0 || stats.Running != 0 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
}

func TestGroup_FailFastCancelsOthers(t *testing.T) {
	g := New(WithErrorMode(FailFast))
	boom := errors.New("boom")

	g.Go("waiter", func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(5 * time.Second):
			return errors.New("waiter was not cancelled")
		}
	})
	g.Go("failer", func(ctx context.Context) error {
		return boom
	})

	err := g.Wait()
	if !errors.Is(err, boom) {
		t.Fatalf("Expected boom, got %v", err)
	}

	var taskErr *TaskError
	if !errors.As(err, &taskErr) || taskErr.Task != "failer" {
		t.Errorf("Expected TaskError from failer, got %v", err)
	}
}

func TestGroup_CollectAll(t *testing.T) {
	g := New(WithErrorMode(CollectAll))

	expected := []string{"error 1", "error 2", "error 3"}
	for _, msg := range expected {
		msg := msg
		g.Go(msg, func(ctx context.Context) error {
			return errors.New(msg)
		})
	}
	g.Go("ok", func(ctx context.Context) error { return nil })

	err := g.Wait()
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	for _, msg := range expected {
		if !strings.Contains(err.Error(), msg) {
			t.Errorf("Expected error %q in %v", msg, err)
		}
	}

	stats := g.Stats()
	if stats.Failed != 3 {
		t.Errorf("Expected 3 failed goroutines, got %d", stats.Failed)
	}
	if stats.Completed != 4 {
		t.Errorf("Expected 4 completed goroutines, got %d", stats.Completed)
	}
}

func TestGroup_PanicRecovery(t *testing.T) {
	g := New()
	g.Go("panicker", func(ctx context.Context) error {
		panic("test panic")
	})

	err := g.Wait()
	var panicErr *PanicError
	if !errors.As(err, &panicErr) {
		t.Fatalf("Expected PanicError, got %v", err)
	}
	if panicErr.Value != "test panic" {
		t.Errorf("Expected panic value %q, got %v", "test panic", panicErr.Value)
	}
	if panicErr.Stack == "" {
		t.Error("Expected a stack trace")
	}
}

func TestGroup_ParentContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	g := NewWithContext(ctx)

	g.Go("waiter", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	cancel()

	if err := g.Wait(); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestPanicError(t *testing.T) {
	panicErr := &PanicError{
		Value: "test panic",
		Stack: "stack trace here",
	}

	errStr := panicErr.Error()
	if !strings.Contains(errStr, "panic: test panic") {
		t.Errorf("PanicError string should contain panic value: %s", errStr)
	}
	if !strings.Contains(errStr, "stack trace here") {
		t.Errorf("PanicError string should contain stack trace: %s", errStr)
	}
}

func TestAggregateError_Empty(t *testing.T) {
	if got := (AggregateError{}).Error(); got != "no errors" {
		t.Errorf("Expected %q, got %q", "no errors", got)
	}
}
