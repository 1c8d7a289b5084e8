package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sugawarayuuta/sonnet"
)

// Record is one stored best result
type Record struct {
	Seq      int
	Depth    int
	Witness  []byte // JSON
	Recorded time.Time
}

// DecodeWitness unmarshals the witness JSON into v
func (r Record) DecodeWitness(v any) error {
	return sonnet.Unmarshal(r.Witness, v)
}

// Bests returns the best results of a run in recording order
func (l *Ledger) Bests(ctx context.Context, runID string) ([]Record, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT seq, depth, witness, recorded_at
		FROM bests WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("ledger: query bests: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			r        Record
			witness  string
			recorded int64
		)
		if err := rows.Scan(&r.Seq, &r.Depth, &witness, &recorded); err != nil {
			return nil, fmt.Errorf("ledger: scan best: %w", err)
		}
		r.Witness = []byte(witness)
		r.Recorded = time.Unix(0, recorded)
		records = append(records, r)
	}
	return records, rows.Err()
}

// Run is a stored run
type Run struct {
	ID          string
	Seed        []byte // JSON
	Parallelism int
	Capacity    int
	MaxK        int64
	Started     time.Time
	Finished    time.Time // zero while the run is open
	BestDepth   int
	Processed   uint64
	Spilled     uint64
	Reloaded    uint64
	Dropped     uint64
	Err         string
}

// Run returns the stored run with the given ID
func (l *Ledger) Run(ctx context.Context, runID string) (Run, error) {
	var (
		r                                     Run
		seed                                  string
		started                               int64
		finished, best                        sql.NullInt64
		processed, spilled, reloaded, dropped sql.NullInt64
		errText                               sql.NullString
	)
	err := l.db.QueryRowContext(ctx, `
		SELECT run_id, seed, parallelism, capacity, max_k, started_at,
		       finished_at, best_depth, processed, spilled, reloaded, dropped, error
		FROM runs WHERE run_id = ?`, runID).Scan(
		&r.ID, &seed, &r.Parallelism, &r.Capacity, &r.MaxK, &started,
		&finished, &best, &processed, &spilled, &reloaded, &dropped, &errText)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrUnknownRun
	}
	if err != nil {
		return Run{}, fmt.Errorf("ledger: query run: %w", err)
	}

	r.Seed = []byte(seed)
	r.Started = time.Unix(0, started)
	if finished.Valid {
		r.Finished = time.Unix(0, finished.Int64)
	}
	r.BestDepth = int(best.Int64)
	r.Processed = uint64(processed.Int64)
	r.Spilled = uint64(spilled.Int64)
	r.Reloaded = uint64(reloaded.Int64)
	r.Dropped = uint64(dropped.Int64)
	r.Err = errText.String
	return r, nil
}
