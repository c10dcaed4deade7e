package disaster

import (
	"context"
	"sort"
	"sync"

	"beacon/pkg/platform/sentinel"
)

// InMemoryStore keeps disasters in a map. The single mutex makes the update
// plus audit append atomic without any store-level transaction machinery.
type InMemoryStore struct {
	mu        sync.RWMutex
	disasters map[string]*Disaster
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{disasters: make(map[string]*Disaster)}
}

func (s *InMemoryStore) Insert(_ context.Context, d *Disaster) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disasters[d.ID] = cloneDisaster(d)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (*Disaster, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.disasters[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneDisaster(d), nil
}

func (s *InMemoryStore) List(_ context.Context, filter ListFilter) ([]*Disaster, error) {
	s.mu.RLock()
	matched := make([]*Disaster, 0, len(s.disasters))
	for _, d := range s.disasters {
		if filter.Tag != "" && !hasTag(d.Tags, filter.Tag) {
			continue
		}
		matched = append(matched, cloneDisaster(d))
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return paginate(matched, filter.Limit, filter.Offset), nil
}

func (s *InMemoryStore) ApplyUpdate(_ context.Context, id string, changes Changes, entry AuditEntry) (*Disaster, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.disasters[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if changes.Title != nil {
		d.Title = *changes.Title
	}
	if changes.LocationName != nil {
		d.LocationName = *changes.LocationName
		d.Location = changes.Location
	}
	if changes.Description != nil {
		d.Description = *changes.Description
	}
	if changes.Tags != nil {
		d.Tags = append([]string{}, (*changes.Tags)...)
	}
	d.UpdatedAt = changes.UpdatedAt
	d.AuditTrail = append(d.AuditTrail, entry)
	return cloneDisaster(d), nil
}

func (s *InMemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.disasters[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.disasters, id)
	return nil
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

func paginate(items []*Disaster, limit, offset int) []*Disaster {
	if offset >= len(items) {
		return []*Disaster{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func cloneDisaster(d *Disaster) *Disaster {
	out := *d
	out.Tags = append([]string{}, d.Tags...)
	out.AuditTrail = append([]AuditEntry{}, d.AuditTrail...)
	if d.Location != nil {
		loc := *d.Location
		out.Location = &loc
	}
	return &out
}
