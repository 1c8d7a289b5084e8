package projspace

import (
	"sync/atomic"

	"github.com/tahsin716/workq"
)

// Explorer runs Branch as a queue routine and records the deepest
// terminal space in Best.
type Explorer struct {
	Best *workq.Best[Space]

	// MaxK cuts the search: spaces at this k are neither branched nor
	// offered. Zero means no limit.
	MaxK int64

	visited uint64 // atomic
	cut     uint64 // atomic
}

// NewExplorer returns an Explorer whose best starts at the seed's k
func NewExplorer(maxK int64) *Explorer {
	seed := Seed()
	return &Explorer{
		Best: workq.NewBest(int(seed.K), seed),
		MaxK: maxK,
	}
}

// Routine implements workq.Routine[Space]
func (x *Explorer) Routine(s Space, emit func(Space)) {
	atomic.AddUint64(&x.visited, 1)

	if x.MaxK > 0 && s.K >= x.MaxK {
		atomic.AddUint64(&x.cut, 1)
		return
	}
	if Branch(s, emit) == 0 {
		x.Best.Offer(int(s.K), s)
	}
}

// ExplorerStats contains counters of an Explorer
type ExplorerStats struct {
	Visited   uint64
	Terminals uint64
	Cut       uint64
}

// Stats returns a snapshot of the explorer counters
func (x *Explorer) Stats() ExplorerStats {
	return ExplorerStats{
		Visited:   atomic.LoadUint64(&x.visited),
		Terminals: x.Best.Offers(),
		Cut:       atomic.LoadUint64(&x.cut),
	}
}
