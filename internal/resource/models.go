// Package resource tracks relief assets (shelters, hospitals, supply points)
// positioned around a disaster and matches them to coordinates by proximity.
package resource

import (
	"strings"
	"time"

	"beacon/internal/geocode"
	dErrors "beacon/pkg/domain-errors"
)

// Resource is a relief asset attached to a disaster. Location is nil when the
// resource's location name never geocoded; such resources still list but are
// invisible to proximity matching.
type Resource struct {
	ID           string               `json:"id"`
	DisasterID   string               `json:"disaster_id"`
	Name         string               `json:"name"`
	Type         string               `json:"type"`
	LocationName string               `json:"location_name,omitempty"`
	Location     *geocode.Coordinates `json:"location,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
}

// Match is a proximity result: the resource plus its distance from the query
// point.
type Match struct {
	*Resource
	DistanceMeters float64 `json:"distance_meters"`
}

// CreateInput carries the client-supplied fields for a new resource. Clients
// with known coordinates send lat/lng directly; otherwise location_name is
// geocoded best-effort.
type CreateInput struct {
	DisasterID   string   `json:"disaster_id"`
	Name         string   `json:"name"`
	Type         string   `json:"type"`
	LocationName string   `json:"location_name"`
	Lat          *float64 `json:"lat"`
	Lng          *float64 `json:"lng"`
}

// Coordinates returns the explicit lat/lng pair, if the client sent both.
func (in CreateInput) Coordinates() (geocode.Coordinates, bool) {
	if in.Lat == nil || in.Lng == nil {
		return geocode.Coordinates{}, false
	}
	return geocode.Coordinates{Lat: *in.Lat, Lng: *in.Lng}, true
}

func (in CreateInput) Validate() error {
	if strings.TrimSpace(in.DisasterID) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "disaster_id is required")
	}
	if strings.TrimSpace(in.Name) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "name is required")
	}
	if strings.TrimSpace(in.Type) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "type is required")
	}
	if (in.Lat == nil) != (in.Lng == nil) {
		return dErrors.New(dErrors.CodeInvalidInput, "lat and lng must be provided together")
	}
	if in.Lat != nil {
		if *in.Lat < -90 || *in.Lat > 90 || *in.Lng < -180 || *in.Lng > 180 {
			return dErrors.New(dErrors.CodeInvalidInput, "coordinates out of range")
		}
	}
	return nil
}
