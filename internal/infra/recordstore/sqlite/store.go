// Package sqlite persists snapshots to a single SQLite table as JSON
// buckets, one bucket per record type. Every save rewrites both buckets.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"quotecore/pkg/domain"
)

var _ domain.RecordStore = (*Store)(nil)

const (
	bucketQuotes   = "quotes"
	bucketProjects = "projects"
)

// Store holds the open database handle.
type Store struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

// NewStore opens (or creates) the database and ensures the state table
// exists. An empty path defaults to quotecore.db.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = "quotecore.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create state table: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Driver returns the record driver identifier.
func (s *Store) Driver() string { return "sqlite" }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }

// DB exposes the underlying handle for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// Load decodes both buckets into a snapshot. An empty table yields an empty
// snapshot.
func (s *Store) Load(ctx context.Context) (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.QueryContext(ctx, `SELECT bucket, payload FROM state`)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var snapshot domain.Snapshot
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return domain.Snapshot{}, fmt.Errorf("scan: %w", err)
		}
		switch bucket {
		case bucketQuotes:
			if err := json.Unmarshal(payload, &snapshot.Quotes); err != nil {
				return domain.Snapshot{}, fmt.Errorf("decode quotes: %w", err)
			}
		case bucketProjects:
			if err := json.Unmarshal(payload, &snapshot.Projects); err != nil {
				return domain.Snapshot{}, fmt.Errorf("decode projects: %w", err)
			}
		}
	}
	if err := rows.Err(); err != nil {
		return domain.Snapshot{}, err
	}
	return snapshot, nil
}

// Save upserts both buckets within one transaction.
func (s *Store) Save(ctx context.Context, snapshot domain.Snapshot) (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	buckets := []struct {
		name    string
		payload interface{}
	}{
		{bucketQuotes, snapshot.Quotes},
		{bucketProjects, snapshot.Projects},
	}
	for _, b := range buckets {
		data, err := json.Marshal(b.payload)
		if err != nil {
			retErr = err
			return retErr
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`, b.name, data); err != nil {
			retErr = fmt.Errorf("upsert %s: %w", b.name, err)
			return retErr
		}
	}
	return tx.Commit()
}
