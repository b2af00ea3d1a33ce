package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps windows in process memory with one lock per key.
// State is lost on restart and is not shared between instances.
type MemoryStore struct {
	entries map[string]*memoryEntry
	mu      sync.Mutex
}

type memoryEntry struct {
	hits    []time.Time
	mu      sync.Mutex
	removed bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*memoryEntry)}
}

// Load implements Store.
func (s *MemoryStore) Load(_ context.Context, key string) ([]time.Time, error) {
	s.mu.Lock()
	e, ok := s.entries[key]
	s.mu.Unlock()
	if !ok {
		return nil, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]time.Time(nil), e.hits...), nil
}

// Update implements Store. Updates of distinct keys do not block each other.
func (s *MemoryStore) Update(ctx context.Context, key string, fn UpdateFunc) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		e := s.entry(key)
		e.mu.Lock()
		if e.removed {
			// Swept between lookup and lock; start over with a fresh entry.
			e.mu.Unlock()
			continue
		}

		next, write := fn(append([]time.Time(nil), e.hits...))
		if write {
			// Emptied entries stay until the next sweep.
			e.hits = next
		}
		e.mu.Unlock()
		return nil
	}
}

// Sweep implements Store.
func (s *MemoryStore) Sweep(_ context.Context, before time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, e := range s.entries {
		e.mu.Lock()
		if newest(e.hits).Before(before) {
			e.removed = true
			delete(s.entries, key)
			removed++
		}
		e.mu.Unlock()
	}
	return removed, nil
}

// Len returns the number of tracked keys.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MemoryStore) entry(key string) *memoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		e = &memoryEntry{}
		s.entries[key] = e
	}
	return e
}
