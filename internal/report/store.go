package report

import (
	"context"
	"time"
)

// ListFilter narrows a report listing. Zero value lists every report for the
// disaster, newest first.
type ListFilter struct {
	Status Status
	Limit  int
	Offset int
}

// Store persists reports.
type Store interface {
	Insert(ctx context.Context, r *Report) error
	FindByID(ctx context.Context, id string) (*Report, error)
	ListByDisaster(ctx context.Context, disasterID string, filter ListFilter) ([]*Report, error)
	UpdateStatus(ctx context.Context, id string, status Status, note string, updatedAt time.Time) (*Report, error)
	Delete(ctx context.Context, id string) error
}
