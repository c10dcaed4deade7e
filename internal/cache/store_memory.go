package cache

import (
	"context"
	"sync"
	"time"

	"beacon/pkg/platform/sentinel"
)

// InMemoryStore keeps the cache lightweight and testable. It intentionally
// favors clarity over performance.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[string]Entry)}
}

func (s *InMemoryStore) Get(_ context.Context, key string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.entries[key]; ok {
		return e, nil
	}
	return Entry{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) Put(_ context.Context, key string, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = e
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

func (s *InMemoryStore) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for key, e := range s.entries {
		if !e.ExpiresAt.After(now) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed, nil
}
