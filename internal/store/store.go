// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/verte-zerg/tuiorder/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// timeLayout is fixed-width so that text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store wraps SQLite access for saved sessions and attempt history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS attempts (
			id INTEGER PRIMARY KEY,
			set_hash TEXT NOT NULL,
			problem INTEGER NOT NULL,
			locked INTEGER NOT NULL,
			total INTEGER NOT NULL,
			solved INTEGER NOT NULL,
			at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_attempts_set_problem ON attempts(set_hash, problem);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Set stores value under key, replacing any previous value.
func (s *Store) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().Format(timeLayout))
	return err
}

// Delete removes key if present.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
	return err
}

// RecordAttempt appends one evaluation to the attempt log.
func (s *Store) RecordAttempt(ctx context.Context, a model.Attempt) error {
	solved := 0
	if a.Solved {
		solved = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO attempts (set_hash, problem, locked, total, solved, at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		a.SetHash,
		a.Problem,
		a.LockedCount,
		a.Total,
		solved,
		a.At.UTC().Format(timeLayout),
	)
	return err
}

// ListAttemptSummaries aggregates attempts per problem for one problem set.
func (s *Store) ListAttemptSummaries(ctx context.Context, setHash string) ([]model.AttemptSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT problem, COUNT(*), MAX(locked), MAX(solved), MAX(at)
		 FROM attempts
		 WHERE set_hash = ?
		 GROUP BY problem
		 ORDER BY problem ASC`, setHash)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.AttemptSummary
	for rows.Next() {
		var sum model.AttemptSummary
		var solved int
		var lastAt string
		if err := rows.Scan(&sum.Problem, &sum.Attempts, &sum.BestLocked, &solved, &lastAt); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(timeLayout, lastAt)
		if err != nil {
			return nil, err
		}
		sum.Solved = solved != 0
		sum.LastAt = parsed
		result = append(result, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
