// Package service implements disaster lifecycle orchestration: validation,
// AI location enrichment, geocoding, ownership gates, and event fan-out.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"beacon/internal/disaster"
	"beacon/internal/enrich"
	"beacon/internal/events"
	"beacon/internal/geocode"
	"beacon/internal/platform/metrics"
	"beacon/internal/principal"
	dErrors "beacon/pkg/domain-errors"
	"beacon/pkg/platform/sentinel"
)

// Geocoder resolves a location name to coordinates. A miss is not an error.
type Geocoder interface {
	Geocode(ctx context.Context, locationName string) (geocode.Coordinates, bool)
}

// Extractor derives a location name from free-form text, returning
// enrich.LocationUnknown when nothing was found.
type Extractor interface {
	ExtractLocation(ctx context.Context, description string) string
}

// Publisher fans mutation events out to connected clients.
type Publisher interface {
	Publish(topic string, event events.Event)
}

// Service orchestrates disaster mutations. Enrichment failures degrade to a
// record without coordinates; store failures abort the mutation.
type Service struct {
	store     disaster.Store
	geocoder  Geocoder
	extractor Extractor
	publisher Publisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewService(
	store disaster.Store,
	geocoder Geocoder,
	extractor Extractor,
	publisher Publisher,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		store:     store,
		geocoder:  geocoder,
		extractor: extractor,
		publisher: publisher,
		logger:    logger,
		metrics:   m,
		now:       time.Now,
	}
}

// Create validates, enriches, and persists a new disaster owned by the
// caller. The created event is broadcast before Create returns.
func (s *Service) Create(ctx context.Context, p principal.Principal, in disaster.CreateInput) (*disaster.Disaster, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	locationName := in.LocationName
	if locationName == "" {
		if extracted := s.extractor.ExtractLocation(ctx, in.Description); extracted != enrich.LocationUnknown {
			locationName = extracted
			s.logger.InfoContext(ctx, "location extracted from description", "location_name", locationName)
		}
	}

	var location *geocode.Coordinates
	if locationName != "" {
		if coords, ok := s.geocoder.Geocode(ctx, locationName); ok {
			location = &coords
		}
	}

	now := s.now().UTC()
	d := &disaster.Disaster{
		ID:           uuid.NewString(),
		Title:        in.Title,
		LocationName: locationName,
		Location:     location,
		Description:  in.Description,
		Tags:         normalizeTags(in.Tags),
		OwnerID:      p.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
		AuditTrail: []disaster.AuditEntry{
			{Action: "create", UserID: p.ID, Timestamp: now},
		},
	}

	if err := s.store.Insert(ctx, d); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeUnavailable, "failed to save disaster", err)
	}

	s.recordMutation("create")
	s.broadcast("create", d)
	return d, nil
}

// Get returns a single disaster.
func (s *Service) Get(ctx context.Context, id string) (*disaster.Disaster, error) {
	d, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "disaster not found")
		}
		return nil, dErrors.Wrap(dErrors.CodeUnavailable, "failed to load disaster", err)
	}
	return d, nil
}

// List returns disasters newest first, optionally filtered by tag.
func (s *Service) List(ctx context.Context, filter disaster.ListFilter) ([]*disaster.Disaster, error) {
	disasters, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeUnavailable, "failed to list disasters", err)
	}
	return disasters, nil
}

// Update applies a partial update for the owner or an admin, appending
// exactly one audit entry. Changing the location name re-geocodes it.
func (s *Service) Update(ctx context.Context, p principal.Principal, id string, in disaster.UpdateInput) (*disaster.Disaster, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(p, existing.OwnerID); err != nil {
		return nil, err
	}

	changes := disaster.Changes{
		Title:       in.Title,
		Description: in.Description,
		UpdatedAt:   s.now().UTC(),
	}
	if in.Tags != nil {
		tags := normalizeTags(*in.Tags)
		changes.Tags = &tags
	}
	if in.LocationName != nil && *in.LocationName != existing.LocationName {
		changes.LocationName = in.LocationName
		if coords, ok := s.geocoder.Geocode(ctx, *in.LocationName); ok {
			changes.Location = &coords
		}
	}

	entry := disaster.AuditEntry{Action: "update", UserID: p.ID, Timestamp: changes.UpdatedAt}
	updated, err := s.store.ApplyUpdate(ctx, id, changes, entry)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "disaster not found")
		}
		return nil, dErrors.Wrap(dErrors.CodeUnavailable, "failed to update disaster", err)
	}

	s.recordMutation("update")
	s.broadcast("update", updated)
	return updated, nil
}

// Delete removes a disaster for the owner or an admin.
func (s *Service) Delete(ctx context.Context, p principal.Principal, id string) error {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorize(p, existing.OwnerID); err != nil {
		return err
	}

	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "disaster not found")
		}
		return dErrors.Wrap(dErrors.CodeUnavailable, "failed to delete disaster", err)
	}

	s.recordMutation("delete")
	s.broadcast("delete", existing)
	return nil
}

func (s *Service) authorize(p principal.Principal, ownerID string) error {
	if p.ID == ownerID || p.IsAdmin() {
		return nil
	}
	return dErrors.New(dErrors.CodeForbidden, "not the owner of this disaster")
}

func (s *Service) recordMutation(action string) {
	if s.metrics != nil {
		s.metrics.Mutations.WithLabelValues("disaster", action).Inc()
	}
}

func (s *Service) broadcast(action string, d *disaster.Disaster) {
	event := events.Event{Action: action, Data: d}
	s.publisher.Publish(events.TopicDisasters, event)
	s.publisher.Publish(events.Room(d.ID), event)
}

// normalizeTags lowercases, trims, and dedupes while keeping client order.
// A nil slice becomes empty so stored records always carry a tags array.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		t := strings.ToLower(strings.TrimSpace(tag))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
