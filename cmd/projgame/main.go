// Command projgame searches branchings of weighted projective spaces for the
// largest k at which a branch terminates.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/tahsin716/workq"
	"github.com/tahsin716/workq/internal/ledger"
	"github.com/tahsin716/workq/internal/projspace"
	"github.com/tahsin716/workq/internal/report"
)

var (
	parallelism = flag.Int("parallelism", runtime.NumCPU(), "Maximum number of worker goroutines")
	capacity    = flag.Int("capacity", 100000, "In-memory queue length above which items are spilled to disk")
	poll        = flag.Duration("poll", time.Second, "Control loop sleep when nothing changed")
	idle        = flag.Duration("idle", 0, "How long an idle worker waits before exiting, 0 means half of -poll")
	spillDir    = flag.String("spill-dir", os.TempDir(), "Directory for the spill file")
	progress    = flag.Duration("progress", 0, "Progress log interval, 0 disables")
	maxK        = flag.Int64("max-k", 0, "Stop branching at this k, 0 means no limit")
	ledgerPath  = flag.String("ledger", "", "SQLite ledger recording runs and best results")
	reportPath  = flag.String("report", "", "JSON summary written at the end, brotli-compressed if it ends in .br")
	quiet       = flag.Bool("quiet", false, "Disable queue logging")
)

func main() {
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx)
	stop()
	if err != nil {
		log.Printf("projgame: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	started := time.Now()
	seed := projspace.Seed()
	x := projspace.NewExplorer(*maxK)

	var (
		l     *ledger.Ledger
		runID string
		err   error
	)
	if *ledgerPath != "" {
		l, err = ledger.Open(*ledgerPath)
		if err != nil {
			return err
		}
		defer l.Close()

		runID, err = l.BeginRun(ctx, ledger.RunConfig{
			Seed:        seed,
			Parallelism: *parallelism,
			Capacity:    *capacity,
			MaxK:        *maxK,
			Started:     started,
		})
		if err != nil {
			return err
		}
		log.Printf("projgame: run %s", runID)
	}

	x.Best.OnImprove = func(depth int, s projspace.Space) {
		log.Printf("projgame: highest k terminated at so far is %d on %v", depth, s)
		if l != nil {
			if err := l.RecordBest(context.Background(), runID, depth, s); err != nil {
				log.Printf("projgame: %v", err)
			}
		}
	}

	opts := []workq.Option{
		workq.WithParallelism(*parallelism),
		workq.WithCapacity(*capacity),
		workq.WithPollInterval(*poll),
		workq.WithIdleTimeout(*idle),
		workq.WithSpillDir(*spillDir),
		workq.WithProgressInterval(*progress),
	}
	if *quiet {
		opts = append(opts, workq.WithLogger(nil))
	}

	q, err := workq.New(x.Routine, projspace.Codec(), opts...)
	if err != nil {
		return fmt.Errorf("init work queue: %w", err)
	}

	runErr := q.Run(ctx, seed)

	stats := q.Stats()
	xs := x.Stats()
	depth, witness, _ := x.Best.Get()

	if l != nil {
		out := ledger.Outcome{
			BestDepth: depth,
			Processed: stats.Processed,
			Spilled:   stats.Spilled,
			Reloaded:  stats.Reloaded,
			Dropped:   stats.Dropped,
			Err:       runErr,
		}
		// The run context may already be cancelled.
		if err := l.FinishRun(context.Background(), runID, out); err != nil {
			log.Printf("projgame: %v", err)
		}
	}

	if *reportPath != "" {
		summary := report.Summary{
			RunID:          runID,
			Started:        started,
			Elapsed:        time.Since(started),
			Parallelism:    q.Config().Parallelism,
			Capacity:       *capacity,
			MaxK:           *maxK,
			BestDepth:      depth,
			BestWitness:    witness.String(),
			Terminals:      xs.Terminals,
			Cut:            xs.Cut,
			Processed:      stats.Processed,
			Spilled:        stats.Spilled,
			Reloaded:       stats.Reloaded,
			Dropped:        stats.Dropped,
			PeakWorkers:    stats.PeakWorkers,
			WorkersSpawned: stats.WorkersSpawned,
		}
		if runErr != nil {
			summary.Error = runErr.Error()
		}
		if err := report.Write(*reportPath, summary); err != nil {
			log.Printf("projgame: %v", err)
		}
	}

	if runErr != nil {
		return fmt.Errorf("run: %w", runErr)
	}

	fmt.Printf("Process complete, max k realised: %d\n", depth)
	fmt.Printf("on %v\n", witness)
	return nil
}
