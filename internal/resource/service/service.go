// Package service implements resource registration and proximity matching.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"beacon/internal/disaster"
	"beacon/internal/events"
	"beacon/internal/geocode"
	"beacon/internal/platform/metrics"
	"beacon/internal/principal"
	"beacon/internal/resource"
	dErrors "beacon/pkg/domain-errors"
	"beacon/pkg/platform/sentinel"
)

// Geocoder resolves a location name to coordinates. A miss is not an error.
type Geocoder interface {
	Geocode(ctx context.Context, locationName string) (geocode.Coordinates, bool)
}

// DisasterFinder confirms the target disaster exists before a resource is
// attached to it.
type DisasterFinder interface {
	Get(ctx context.Context, id string) (*disaster.Disaster, error)
}

// Publisher fans mutation events out to connected clients.
type Publisher interface {
	Publish(topic string, event events.Event)
}

type Service struct {
	store         resource.Store
	disasters     DisasterFinder
	geocoder      Geocoder
	publisher     Publisher
	logger        *slog.Logger
	metrics       *metrics.Metrics
	defaultRadius float64
	now           func() time.Time
}

func NewService(
	store resource.Store,
	disasters DisasterFinder,
	geocoder Geocoder,
	publisher Publisher,
	defaultRadiusMeters float64,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		store:         store,
		disasters:     disasters,
		geocoder:      geocoder,
		publisher:     publisher,
		logger:        logger,
		metrics:       m,
		defaultRadius: defaultRadiusMeters,
		now:           time.Now,
	}
}

// Create validates and persists a new resource. Explicit lat/lng in the
// input wins over geocoding; otherwise the location name is geocoded
// best-effort, and a resource whose name never resolves still lists but is
// excluded from proximity matching.
func (s *Service) Create(ctx context.Context, p principal.Principal, in resource.CreateInput) (*resource.Resource, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.disasters.Get(ctx, in.DisasterID); err != nil {
		return nil, err
	}

	var location *geocode.Coordinates
	if coords, ok := in.Coordinates(); ok {
		location = &coords
	} else if in.LocationName != "" {
		if coords, ok := s.geocoder.Geocode(ctx, in.LocationName); ok {
			location = &coords
		} else {
			s.logger.WarnContext(ctx, "resource location did not geocode", "location_name", in.LocationName)
		}
	}

	r := &resource.Resource{
		ID:           uuid.NewString(),
		DisasterID:   in.DisasterID,
		Name:         in.Name,
		Type:         in.Type,
		LocationName: in.LocationName,
		Location:     location,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.Insert(ctx, r); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeUnavailable, "failed to save resource", err)
	}

	s.logger.InfoContext(ctx, "resource created", "resource_id", r.ID, "disaster_id", r.DisasterID, "user", p.ID)
	s.recordMutation("create")
	s.broadcast("create", r)
	return r, nil
}

// ListByDisaster returns a disaster's resources, newest first, including
// resources without coordinates.
func (s *Service) ListByDisaster(ctx context.Context, disasterID string, filter resource.ListFilter) ([]*resource.Resource, error) {
	resources, err := s.store.ListByDisaster(ctx, disasterID, filter)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeUnavailable, "failed to list resources", err)
	}
	return resources, nil
}

// FindNearby matches resources to a point, nearest first. A non-positive
// radius falls back to the configured default.
func (s *Service) FindNearby(ctx context.Context, disasterID string, point geocode.Coordinates, radiusMeters float64) ([]*resource.Match, error) {
	if point.Lat < -90 || point.Lat > 90 || point.Lng < -180 || point.Lng > 180 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "coordinates out of range")
	}
	if radiusMeters <= 0 {
		radiusMeters = s.defaultRadius
	}

	matches, err := s.store.FindNearby(ctx, disasterID, point, radiusMeters)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeUnavailable, "failed to match resources", err)
	}
	return matches, nil
}

// Delete removes a resource. Resources are scoped by disaster, not owned, so
// only admins may remove them.
func (s *Service) Delete(ctx context.Context, p principal.Principal, id string) error {
	if !p.IsAdmin() {
		return dErrors.New(dErrors.CodeForbidden, "only admins may remove resources")
	}

	r, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "resource not found")
		}
		return dErrors.Wrap(dErrors.CodeUnavailable, "failed to load resource", err)
	}

	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "resource not found")
		}
		return dErrors.Wrap(dErrors.CodeUnavailable, "failed to delete resource", err)
	}

	s.recordMutation("delete")
	s.broadcast("delete", r)
	return nil
}

func (s *Service) recordMutation(action string) {
	if s.metrics != nil {
		s.metrics.Mutations.WithLabelValues("resource", action).Inc()
	}
}

func (s *Service) broadcast(action string, r *resource.Resource) {
	event := events.Event{Action: action, Data: r}
	s.publisher.Publish(events.TopicResources, event)
	s.publisher.Publish(events.Room(r.DisasterID), event)
}
