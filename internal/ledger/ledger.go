// Package ledger keeps a durable record of search runs and of every best
// result they found, in a SQLite database.
package ledger

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sugawarayuuta/sonnet"
	"golang.org/x/crypto/sha3"

	// Pure-Go SQLite driver for database/sql.
	_ "github.com/glebarez/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// ErrUnknownRun is returned for a run ID that was never started
var ErrUnknownRun = errors.New("ledger: unknown run")

// Ledger stores runs and their best results
type Ledger struct {
	db *sql.DB
}

// Open creates or opens the ledger at path. ":memory:" opens a private
// in-memory ledger.
func Open(path string) (*Ledger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("ledger: open %q: %w", path, err)
	}

	// Single writer; every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ledger: connect: %w", err)
	}
	_, _ = db.Exec("PRAGMA journal_mode=WAL")
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("ledger: pragma: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("ledger: schema: %w", err)
	}
	return &Ledger{db: db}, nil
}

// Close closes the database
func (l *Ledger) Close() error {
	if l.db == nil {
		return nil
	}
	return l.db.Close()
}

// RunConfig describes a run when it starts
type RunConfig struct {
	Seed        any // stored as JSON
	Parallelism int
	Capacity    int
	MaxK        int64
	Started     time.Time
}

// RunID derives the identifier of a run from its JSON seed and start time
func RunID(seedJSON []byte, started time.Time) string {
	h := sha3.New256()
	h.Write(seedJSON)
	h.Write([]byte(strconv.FormatInt(started.UnixNano(), 10)))
	return hex.EncodeToString(h.Sum(nil)[:8])
}

// BeginRun stores a new run and returns its ID
func (l *Ledger) BeginRun(ctx context.Context, cfg RunConfig) (string, error) {
	seed, err := sonnet.Marshal(cfg.Seed)
	if err != nil {
		return "", fmt.Errorf("ledger: encode seed: %w", err)
	}
	if cfg.Started.IsZero() {
		cfg.Started = time.Now()
	}

	id := RunID(seed, cfg.Started)
	_, err = l.db.ExecContext(ctx, `
		INSERT INTO runs (run_id, seed, parallelism, capacity, max_k, started_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, string(seed), cfg.Parallelism, cfg.Capacity, cfg.MaxK, cfg.Started.UnixNano())
	if err != nil {
		return "", fmt.Errorf("ledger: begin run: %w", err)
	}
	return id, nil
}

// RecordBest appends a best result to a run. Results of one run are
// numbered in the order they are recorded.
func (l *Ledger) RecordBest(ctx context.Context, runID string, depth int, witness any) error {
	w, err := sonnet.Marshal(witness)
	if err != nil {
		return fmt.Errorf("ledger: encode witness: %w", err)
	}

	res, err := l.db.ExecContext(ctx, `
		INSERT INTO bests (run_id, seq, depth, witness, recorded_at)
		SELECT run_id, (SELECT COUNT(*) FROM bests WHERE run_id = ?), ?, ?, ?
		FROM runs WHERE run_id = ?`,
		runID, depth, string(w), time.Now().UnixNano(), runID)
	if err != nil {
		return fmt.Errorf("ledger: record best: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUnknownRun
	}
	return nil
}

// Outcome describes a run when it ends
type Outcome struct {
	BestDepth int
	Processed uint64
	Spilled   uint64
	Reloaded  uint64
	Dropped   uint64
	Err       error
	Finished  time.Time
}

// FinishRun stores the outcome of a run
func (l *Ledger) FinishRun(ctx context.Context, runID string, out Outcome) error {
	if out.Finished.IsZero() {
		out.Finished = time.Now()
	}
	var errText sql.NullString
	if out.Err != nil {
		errText = sql.NullString{String: out.Err.Error(), Valid: true}
	}

	res, err := l.db.ExecContext(ctx, `
		UPDATE runs
		SET finished_at = ?, best_depth = ?, processed = ?, spilled = ?,
		    reloaded = ?, dropped = ?, error = ?
		WHERE run_id = ?`,
		out.Finished.UnixNano(), out.BestDepth, int64(out.Processed), int64(out.Spilled),
		int64(out.Reloaded), int64(out.Dropped), errText, runID)
	if err != nil {
		return fmt.Errorf("ledger: finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUnknownRun
	}
	return nil
}
