package store

import (
	"sync"

	"github.com/kacperjurak/eisplot/pkg/models"
)

// Store holds the most recent record and the ordered ingest history.
//
// History is unbounded unless MaxHistory is set, in which case the oldest
// entries are dropped first. Records are never modified after Append.
type Store struct {
	mu         sync.RWMutex
	latest     *models.Record
	history    []models.Record
	maxHistory int
}

// Options holds configuration for creating a new store
type Options struct {
	// MaxHistory bounds the history length. Zero means unbounded.
	MaxHistory int
}

// New creates an empty store.
func New(opts Options) *Store {
	if opts.MaxHistory < 0 {
		opts.MaxHistory = 0
	}
	return &Store{maxHistory: opts.MaxHistory}
}

// Append sets record as latest and pushes it to the end of the history.
// Repeated ids are kept as separate entries.
func (s *Store) Append(record models.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append(s.history, record)
	if s.maxHistory > 0 && len(s.history) > s.maxHistory {
		drop := len(s.history) - s.maxHistory
		trimmed := make([]models.Record, s.maxHistory, s.maxHistory+1)
		copy(trimmed, s.history[drop:])
		s.history = trimmed
	}
	latest := record
	s.latest = &latest
}

// Latest returns the most recently appended record. ok is false while the
// store is empty.
func (s *Store) Latest() (record models.Record, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.latest == nil {
		return models.Record{}, false
	}
	return *s.latest, true
}

// All returns a copy of the history in insertion order. The result is never nil.
func (s *Store) All() []models.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Record, len(s.history))
	copy(out, s.history)
	return out
}

// Len returns the number of records currently held in the history.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.history)
}
