// Package memory holds the process-wide, append-only catalog store that the
// query engine reads from while background chunk loads keep appending.
package memory

import (
	"sort"
	"sync"

	"github.com/agentstation/modsync/pkg/catalog"
	"github.com/agentstation/modsync/pkg/errors"
)

// Store maps catalog ids to their accumulated entries. Entries are only
// ever appended; readers receive independent copies, so an append can
// never race with a caller iterating a previous result.
type Store struct {
	mu       sync.RWMutex
	catalogs map[catalog.ID][]catalog.Entry
	closed   bool
}

// New creates an empty store.
func New() *Store {
	return &Store{catalogs: make(map[catalog.ID][]catalog.Entry)}
}

// Get returns a copy of the entries of a catalog, nil when unknown.
func (s *Store) Get(id catalog.ID) []catalog.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.catalogs[id]
	if len(entries) == 0 {
		return nil
	}
	out := make([]catalog.Entry, len(entries))
	copy(out, entries)
	return out
}

// Len returns the number of entries held for a catalog.
func (s *Store) Len(id catalog.ID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.catalogs[id])
}

// Append adds entries to a catalog and returns the new total.
func (s *Store) Append(id catalog.ID, entries []catalog.Entry) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, &errors.LockError{Resource: "catalog store", Message: "append after close"}
	}
	s.catalogs[id] = append(s.catalogs[id], entries...)
	return len(s.catalogs[id]), nil
}

// IDs returns the catalogs that hold at least one entry, sorted.
func (s *Store) IDs() []catalog.ID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]catalog.ID, 0, len(s.catalogs))
	for id, entries := range s.catalogs {
		if len(entries) > 0 {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Close rejects further appends. Reads keep working.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}
