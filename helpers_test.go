package workq

import (
	"sync"
	"testing"
	"time"
)

// treeItem is a node of a synthetic search tree. Children of ID n are
// 4n+1 .. 4n+4, so IDs are unique across the whole tree.
type treeItem struct {
	ID    uint64
	Depth int64
}

func (it treeItem) child(k int) treeItem {
	return treeItem{ID: it.ID*4 + uint64(k) + 1, Depth: it.Depth + 1}
}

// testOptions returns options with short intervals, no logging and a
// per-test spill directory
func testOptions(t *testing.T, extra ...Option) []Option {
	t.Helper()
	opts := []Option{
		WithLogger(nil),
		WithSpillDir(t.TempDir()),
		WithPollInterval(5 * time.Millisecond),
		WithIdleTimeout(5 * time.Millisecond),
	}
	return append(opts, extra...)
}

func newTestQueue(t *testing.T, routine Routine[treeItem], extra ...Option) *Queue[treeItem] {
	t.Helper()
	q, err := New(routine, BinaryCodec[treeItem]{}, testOptions(t, extra...)...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return q
}

// waitFor polls cond until it holds or the timeout expires
func waitFor(t *testing.T, timeout time.Duration, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

// visitLog records how often each item was passed to a routine
type visitLog struct {
	mu     sync.Mutex
	visits map[uint64]int
}

func newVisitLog() *visitLog {
	return &visitLog{visits: make(map[uint64]int)}
}

func (v *visitLog) record(it treeItem) {
	v.mu.Lock()
	v.visits[it.ID]++
	v.mu.Unlock()
}

// duplicates returns the IDs visited more than once
func (v *visitLog) duplicates() []uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	var dups []uint64
	for id, n := range v.visits {
		if n > 1 {
			dups = append(dups, id)
		}
	}
	return dups
}

func (v *visitLog) len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.visits)
}
