package resource

import (
	"context"
	"sort"
	"sync"

	"beacon/internal/geocode"
	"beacon/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu        sync.RWMutex
	resources map[string]*Resource
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{resources: make(map[string]*Resource)}
}

func (s *InMemoryStore) Insert(_ context.Context, r *Resource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resources[r.ID] = cloneResource(r)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (*Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.resources[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneResource(r), nil
}

func (s *InMemoryStore) ListByDisaster(_ context.Context, disasterID string, filter ListFilter) ([]*Resource, error) {
	s.mu.RLock()
	matched := []*Resource{}
	for _, r := range s.resources {
		if r.DisasterID != disasterID {
			continue
		}
		if filter.Type != "" && r.Type != filter.Type {
			continue
		}
		matched = append(matched, cloneResource(r))
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	if filter.Offset >= len(matched) {
		return []*Resource{}, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func (s *InMemoryStore) FindNearby(_ context.Context, disasterID string, point geocode.Coordinates, radiusMeters float64) ([]*Match, error) {
	s.mu.RLock()
	matches := []*Match{}
	for _, r := range s.resources {
		if r.DisasterID != disasterID || r.Location == nil {
			continue
		}
		distance := haversineMeters(point, *r.Location)
		if distance > radiusMeters {
			continue
		}
		matches = append(matches, &Match{Resource: cloneResource(r), DistanceMeters: distance})
	}
	s.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].DistanceMeters < matches[j].DistanceMeters
	})
	return matches, nil
}

func (s *InMemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.resources[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.resources, id)
	return nil
}

func cloneResource(r *Resource) *Resource {
	out := *r
	if r.Location != nil {
		loc := *r.Location
		out.Location = &loc
	}
	return &out
}
