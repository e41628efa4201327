// Package memory implements an in-memory RecordStore for tests and
// ephemeral sessions.
package memory

import (
	"context"
	"sync"

	"quotecore/pkg/domain"
)

var _ domain.RecordStore = (*Store)(nil)

// Store keeps the latest saved snapshot in process memory.
type Store struct {
	mu       sync.RWMutex
	snapshot domain.Snapshot
}

// NewStore returns an empty in-memory record store.
func NewStore() *Store { return &Store{} }

// Driver returns the record driver identifier.
func (s *Store) Driver() string { return "memory" }

// Load returns a deep copy of the last saved snapshot.
func (s *Store) Load(_ context.Context) (domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.Clone(), nil
}

// Save replaces the stored snapshot wholesale.
func (s *Store) Save(_ context.Context, snapshot domain.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = snapshot.Clone()
	return nil
}
