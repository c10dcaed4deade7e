package disaster

import (
	"context"
)

// ListFilter narrows a listing. Zero value lists everything, newest first.
type ListFilter struct {
	Tag    string
	Limit  int
	Offset int
}

// Store persists disasters. ApplyUpdate must write the field changes and the
// audit entry as one atomic step so the trail never diverges from the record.
type Store interface {
	Insert(ctx context.Context, d *Disaster) error
	FindByID(ctx context.Context, id string) (*Disaster, error)
	List(ctx context.Context, filter ListFilter) ([]*Disaster, error)
	ApplyUpdate(ctx context.Context, id string, changes Changes, entry AuditEntry) (*Disaster, error)
	Delete(ctx context.Context, id string) error
}
