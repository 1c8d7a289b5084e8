// Package report writes the summary of a finished search run as JSON.
// Paths ending in ".br" are brotli-compressed.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/sugawarayuuta/sonnet"
)

// Summary is the outcome of one run
type Summary struct {
	RunID       string        `json:"run_id,omitempty"`
	Started     time.Time     `json:"started"`
	Elapsed     time.Duration `json:"elapsed_ns"`
	Parallelism int           `json:"parallelism"`
	Capacity    int           `json:"capacity"`
	MaxK        int64         `json:"max_k"`

	BestDepth   int    `json:"best_depth"`
	BestWitness string `json:"best_witness"`
	Terminals   uint64 `json:"terminals"`
	Cut         uint64 `json:"cut"`

	Processed      uint64 `json:"processed"`
	Spilled        uint64 `json:"spilled"`
	Reloaded       uint64 `json:"reloaded"`
	Dropped        uint64 `json:"dropped"`
	PeakWorkers    int    `json:"peak_workers"`
	WorkersSpawned uint64 `json:"workers_spawned"`

	Error string `json:"error,omitempty"`
}

func compressed(path string) bool {
	return strings.HasSuffix(path, ".br")
}

// Write stores s at path, replacing any existing file
func Write(path string, s Summary) error {
	data, err := sonnet.Marshal(s)
	if err != nil {
		return fmt.Errorf("report: encode: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}

	var w io.WriteCloser = nopCloser{f}
	if compressed(path) {
		w = brotli.NewWriterLevel(f, brotli.DefaultCompression)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		f.Close()
		return fmt.Errorf("report: write: %w", err)
	}
	if err := w.Close(); err != nil {
		f.Close()
		return fmt.Errorf("report: write: %w", err)
	}
	return f.Close()
}

// Read loads a summary written by Write
func Read(path string) (Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return Summary{}, fmt.Errorf("report: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if compressed(path) {
		r = brotli.NewReader(f)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return Summary{}, fmt.Errorf("report: read: %w", err)
	}

	var s Summary
	if err := sonnet.Unmarshal(data, &s); err != nil {
		return Summary{}, fmt.Errorf("report: decode: %w", err)
	}
	return s, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
