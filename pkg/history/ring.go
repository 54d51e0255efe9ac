// Package history keeps the bounded, append-only record of an evolution
// run's generations. Retention is a fixed-capacity ring: once full, each
// append evicts the oldest record. Callers that need unbounded history
// attach an external archive such as the SQLite sink in this package.
package history

import (
	"sync"

	"github.com/beemind-ai/beemind/pkg/core"
	"github.com/beemind-ai/beemind/pkg/errors"
)

// DefaultCapacity bounds the in-memory history when no explicit cap is set.
const DefaultCapacity = 1000

// Store is a fixed-capacity ring buffer of generation records. Append is the
// only mutation; records are never edited in place. The globally best record
// is retained separately so eviction cannot lose it.
type Store struct {
	mu       sync.RWMutex
	records  []core.GenerationRecord
	capacity int
	cursor   int  // next write position
	full     bool // whether the ring has wrapped
	best     *core.GenerationRecord
}

// NewStore creates a store with the given capacity. A capacity of 0 selects
// DefaultCapacity.
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{
		records:  make([]core.GenerationRecord, capacity),
		capacity: capacity,
	}
}

// Append adds a record, evicting the oldest when the ring is full.
func (s *Store) Append(record core.GenerationRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[s.cursor] = record
	s.cursor = (s.cursor + 1) % s.capacity
	if s.cursor == 0 {
		s.full = true
	}

	if s.best == nil || record.BestFitness.Primary > s.best.BestFitness.Primary {
		snapshot := record
		s.best = &snapshot
	}
}

// All returns the retained records in append order, oldest first.
func (s *Store) All() []core.GenerationRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot()
}

func (s *Store) snapshot() []core.GenerationRecord {
	if !s.full {
		out := make([]core.GenerationRecord, s.cursor)
		copy(out, s.records[:s.cursor])
		return out
	}

	out := make([]core.GenerationRecord, 0, s.capacity)
	out = append(out, s.records[s.cursor:]...)
	out = append(out, s.records[:s.cursor]...)
	return out
}

// Range returns retained records with generation index in [from, to].
func (s *Store) Range(from, to int) []core.GenerationRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []core.GenerationRecord
	for _, record := range s.snapshot() {
		if record.Generation >= from && record.Generation <= to {
			out = append(out, record)
		}
	}
	return out
}

// Best returns the record holding the globally best configuration observed
// since the store was created, even if the record itself has been evicted.
func (s *Store) Best() (core.GenerationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.best == nil {
		return core.GenerationRecord{}, errors.New(errors.EmptyPopulation, "history is empty")
	}
	return *s.best, nil
}

// Len returns the number of retained records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.full {
		return s.capacity
	}
	return s.cursor
}

// Cap returns the store's fixed capacity.
func (s *Store) Cap() int {
	return s.capacity
}
