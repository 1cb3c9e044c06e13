// Package history keeps one record per recording run in an embedded Badger
// store, so a host can list what was captured, when, and where the artifacts
// went without scanning the output directory.
//
// Records are keyed by completion time, newest last in key order, which makes
// [Store.Recent] a single reverse scan. The store is append-only from the
// application's point of view; Badger's own GC handles value-log compaction.
//
// This package lives under internal/ because the record layout follows the
// engine's result contract and is not a public API.
package history

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v3"

	"github.com/lorolabs/loro/internal/engine"
)

// keyPrefix namespaces run records inside the store.
const keyPrefix = "run:"

// Record is the persisted outcome of one recording run.
type Record struct {
	// SessionID is the run's unique identifier.
	SessionID string `json:"session_id"`

	// BaseName is the artifact stem the run was asked to record under.
	BaseName string `json:"base_name"`

	// StartedAt and FinishedAt bound the run in wall-clock time.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// OK reports whether the run completed. Empty-signal runs count as
	// completed.
	OK bool `json:"ok"`

	// EmptySignal reports that the run completed but the trim removed
	// every sample.
	EmptySignal bool `json:"empty_signal,omitempty"`

	// Error is the classified failure message when OK is false.
	Error string `json:"error,omitempty"`

	// Seconds is the real post-trim duration of the take.
	Seconds float64 `json:"seconds"`

	// OnsetMS is the detected speech onset in milliseconds.
	OnsetMS float64 `json:"onset_ms"`

	// Artifact paths, empty when the stage that writes them never ran.
	WAVPath        string `json:"wav_path,omitempty"`
	CSVPath        string `json:"csv_path,omitempty"`
	TranscriptPath string `json:"transcript_path,omitempty"`
	SynthPath      string `json:"synth_path,omitempty"`

	// HasTranscript reports whether the run produced recognized text.
	HasTranscript bool `json:"has_transcript"`
}

// FromResult builds the Record for one finished run.
func FromResult(sess engine.Session, res engine.Result, startedAt, finishedAt time.Time) Record {
	rec := Record{
		SessionID:      res.SessionID,
		BaseName:       sess.BaseName,
		StartedAt:      startedAt,
		FinishedAt:     finishedAt,
		OK:             res.OK,
		EmptySignal:    res.EmptySignal,
		Seconds:        res.Seconds,
		OnsetMS:        res.OnsetMS,
		WAVPath:        res.WAVPath,
		CSVPath:        res.CSVPath,
		TranscriptPath: res.TranscriptPath,
		SynthPath:      res.SynthPath,
		HasTranscript:  res.Transcript != "",
	}
	if res.Err != nil {
		rec.Error = res.Err.Error()
	}
	return rec
}

// Store is the embedded session-history database.
//
// A Store is safe for concurrent use; Badger serializes the transactions.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) the history store under dir.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Badger's logger bypasses slog; the store is quiet instead.

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("history: open store at %q: %w", dir, err)
	}
	return &Store{db: db}, nil
}

// Append stores one run record. Records are keyed by completion time so the
// natural key order is chronological; a zero FinishedAt is stamped with the
// current time.
func (s *Store) Append(rec Record) error {
	if rec.FinishedAt.IsZero() {
		rec.FinishedAt = time.Now()
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("history: marshal record %s: %w", rec.SessionID, err)
	}

	key := fmt.Sprintf("%s%020d:%s", keyPrefix, rec.FinishedAt.UnixNano(), rec.SessionID)
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
	if err != nil {
		return fmt.Errorf("history: append record %s: %w", rec.SessionID, err)
	}
	return nil
}

// Recent returns up to n records, newest first. A non-positive n returns an
// empty slice.
func (s *Store) Recent(n int) ([]Record, error) {
	if n <= 0 {
		return nil, nil
	}

	var out []Record
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(keyPrefix)
		// In reverse mode Seek lands on the greatest key <= the target, so
		// seeking one byte past the prefix starts at the newest record.
		seek := append(append([]byte{}, prefix...), 0xff)
		for it.Seek(seek); it.ValidForPrefix(prefix) && len(out) < n; it.Next() {
			var rec Record
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				return err
			}
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("history: list recent: %w", err)
	}
	return out, nil
}

// Close flushes and closes the underlying database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("history: close store: %w", err)
	}
	return nil
}
