// Package geocode resolves free-text place names to coordinates through an
// ordered provider chain, memoized in the shared TTL cache.
package geocode

import "context"

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Provider resolves a place name with one upstream service. A provider
// failure and an empty response look the same to the chain: (zero, false).
// The error is for logging only; it never stops the chain.
type Provider interface {
	Name() string
	Resolve(ctx context.Context, locationName string) (Coordinates, bool, error)
}
