package resource

import (
	"context"

	"beacon/internal/geocode"
)

// ListFilter narrows a resource listing. Zero value lists everything for the
// disaster, newest first.
type ListFilter struct {
	Type   string
	Limit  int
	Offset int
}

// Store persists resources. FindNearby returns only resources with known
// coordinates, ordered by ascending distance from the query point.
type Store interface {
	Insert(ctx context.Context, r *Resource) error
	FindByID(ctx context.Context, id string) (*Resource, error)
	ListByDisaster(ctx context.Context, disasterID string, filter ListFilter) ([]*Resource, error)
	FindNearby(ctx context.Context, disasterID string, point geocode.Coordinates, radiusMeters float64) ([]*Match, error)
	Delete(ctx context.Context, id string) error
}
