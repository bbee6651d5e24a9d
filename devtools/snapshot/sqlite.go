// Package snapshot periodically persists a Diagnostics snapshot to a local
// SQLite file, grounded on randalmurphal-flowgraph's
// pkg/flowgraph/checkpoint/sqlite.go (pure-Go modernc.org/sqlite driver,
// WAL mode, restrictive file permissions).
package snapshot

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"time"

	_ "modernc.org/sqlite"

	"github.com/domkit-go/domkit/core"
)

// Store appends diagnostics snapshots to a SQLite file for later charting
// of governor/throttle behavior over the lifetime of a long-running host
// process.
type Store struct {
	db *sql.DB
}

// Open creates (or reuses) the SQLite file at path and ensures its schema
// exists. path may be ":memory:" for tests.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			f, createErr := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
			if createErr == nil {
				_ = f.Close()
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("snapshot: enable WAL mode: %w", err)
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS diagnostics_snapshots (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			recorded_at TEXT NOT NULL,
			handler_count INTEGER NOT NULL,
			peak_handler_count INTEGER NOT NULL,
			match_cache_size INTEGER NOT NULL,
			path_cache_size INTEGER NOT NULL,
			warnings INTEGER NOT NULL,
			throttle_dropped TEXT NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("snapshot: create table: %w", err)
	}

	if path != ":memory:" {
		_ = os.Chmod(path, 0o600)
	}

	return &Store{db: db}, nil
}

// Record inserts one row for d, timestamped now.
func (s *Store) Record(d core.Diagnostics, now time.Time) error {
	dropped, err := json.Marshal(d.ThrottleDropped)
	if err != nil {
		return fmt.Errorf("snapshot: marshal throttle_dropped: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO diagnostics_snapshots
			(recorded_at, handler_count, peak_handler_count, match_cache_size, path_cache_size, warnings, throttle_dropped)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, now.UTC().Format(time.RFC3339Nano), d.HandlerCount, d.PeakHandlerCount, d.MatchCacheSize, d.PathCacheSize, d.Warnings, string(dropped))
	if err != nil {
		return fmt.Errorf("snapshot: insert row: %w", err)
	}
	return nil
}

// Row is one persisted diagnostics snapshot, as returned by Recent.
type Row struct {
	RecordedAt       time.Time
	HandlerCount     int
	PeakHandlerCount int
	MatchCacheSize   int
	PathCacheSize    int
	Warnings         int
	ThrottleDropped  map[string]uint64
}

// Recent returns the last n snapshots, most recent first.
func (s *Store) Recent(n int) ([]Row, error) {
	rows, err := s.db.Query(`
		SELECT recorded_at, handler_count, peak_handler_count, match_cache_size, path_cache_size, warnings, throttle_dropped
		FROM diagnostics_snapshots
		ORDER BY id DESC
		LIMIT ?
	`, n)
	if err != nil {
		return nil, fmt.Errorf("snapshot: query recent: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var recordedAt, dropped string
		var r Row
		if err := rows.Scan(&recordedAt, &r.HandlerCount, &r.PeakHandlerCount, &r.MatchCacheSize, &r.PathCacheSize, &r.Warnings, &dropped); err != nil {
			return nil, fmt.Errorf("snapshot: scan row: %w", err)
		}
		r.RecordedAt, err = time.Parse(time.RFC3339Nano, recordedAt)
		if err != nil {
			return nil, fmt.Errorf("snapshot: parse recorded_at: %w", err)
		}
		if err := json.Unmarshal([]byte(dropped), &r.ThrottleDropped); err != nil {
			return nil, fmt.Errorf("snapshot: unmarshal throttle_dropped: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
