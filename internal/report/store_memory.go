package report

import (
	"context"
	"sort"
	"sync"
	"time"

	"beacon/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu      sync.RWMutex
	reports map[string]*Report
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{reports: make(map[string]*Report)}
}

func (s *InMemoryStore) Insert(_ context.Context, r *Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *r
	s.reports[r.ID] = &clone
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (*Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reports[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *r
	return &clone, nil
}

func (s *InMemoryStore) ListByDisaster(_ context.Context, disasterID string, filter ListFilter) ([]*Report, error) {
	s.mu.RLock()
	matched := []*Report{}
	for _, r := range s.reports {
		if r.DisasterID != disasterID {
			continue
		}
		if filter.Status != "" && r.VerificationStatus != filter.Status {
			continue
		}
		clone := *r
		matched = append(matched, &clone)
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	if filter.Offset >= len(matched) {
		return []*Report{}, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func (s *InMemoryStore) UpdateStatus(_ context.Context, id string, status Status, note string, updatedAt time.Time) (*Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	r.VerificationStatus = status
	r.VerificationNote = note
	r.UpdatedAt = updatedAt
	clone := *r
	return &clone, nil
}

func (s *InMemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reports[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.reports, id)
	return nil
}
