// Package workq provides a disk-spilling work queue for unbounded,
// dynamically branching searches.
//
// A search starts from one or more seed items. A caller-supplied Routine
// expands each item into zero or more children. The queue runs the routine on
// a pool of workers that grows on demand up to a configured parallelism and
// shrinks when workers stay idle. Memory is bounded by spilling surplus items
// to a flat file of fixed-size records and reloading them when the queue runs
// dry. The run ends when no worker is alive and nothing is queued in memory
// or on disk.
//
// # Key Features
//
//   - Per-worker private backlogs that amortize queue lock traffic
//   - A control loop that rebalances backlogs into the shared queue
//   - Bounded memory through spill and reload of opaque records
//   - Termination detection from the engine registry
//   - Typed fatal errors instead of process aborts
//
// # Quick Start
//
//	type Item struct {
//	    Depth int64
//	}
//
//	best := &workq.Best[Item]{}
//	expand := func(it Item, emit func(Item)) {
//	    if it.Depth == 3 {
//	        best.Offer(int(it.Depth), it)
//	        return
//	    }
//	    emit(Item{Depth: it.Depth + 1})
//	    emit(Item{Depth: it.Depth + 1})
//	}
//
//	q, err := workq.New(expand, workq.BinaryCodec[Item]{},
//	    workq.WithParallelism(4),
//	    workq.WithCapacity(10000),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := q.Run(context.Background(), Item{}); err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println("best depth:", best.Depth())
//
// # Routines
//
// A Routine receives one item and an emit function. Children passed to emit
// go to the calling worker's private backlog, not to the shared queue; the
// worker keeps exploring its own backlog until it is empty and only then
// returns to the queue. A routine that emits nothing has found a terminal
// item and should record it, typically with Best.Offer.
//
// Items are never processed twice and never lost, whether or not they went
// through the spill file. No processing order is promised beyond causality:
// a child is explored after the item that produced it.
//
// # Spill File
//
// Items beyond Capacity are written with the queue's Codec to a single
// temporary file in SpillDir and read back in FIFO order when the in-memory
// queue is empty. The file only lives for the current run and is removed by
// Destroy. BinaryCodec covers fixed-size structs; CodecFuncs adapts any pair
// of save and load functions.
//
// # Driving a Queue by Hand
//
// Run is a convenience around the lower-level API:
//
//	q.Add(seed)
//	ctrl := workq.NewControl(q)
//	err := ctrl.Run(ctx)
//	q.Destroy()
//
// LoadUnload may also be called directly; it reports Spilled, Reloaded or
// NoChange.
//
// # Lock Order
//
// Engine context lock, then queue lock, then registry lock. The control
// loop snapshots the registry and never holds the registry lock while it
// calls into the queue.
//
// # Errors
//
// Spill I/O failures and routine panics are fatal. They are returned as a
// *QueueError whose Kind tells them apart, and they stop the run:
//
//	if err := q.Run(ctx, seed); err != nil {
//	    if workq.KindOf(err) == workq.KindIO {
//	        log.Fatalf("spill failed, check disk space: %v", err)
//	    }
//	    log.Fatal(err)
//	}
package workq
