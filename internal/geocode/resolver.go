package geocode

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"beacon/internal/cache"
	"beacon/internal/platform/metrics"
)

// Resolver walks an ordered provider chain until one yields coordinates,
// caching successes in the shared TTL cache. Failures are never cached so a
// transient outage cannot poison results for the TTL window.
type Resolver struct {
	providers []Provider
	cache     *cache.Service
	ttl       time.Duration
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// NewResolver builds a resolver over providers, tried in the given order.
func NewResolver(providers []Provider, c *cache.Service, ttl time.Duration, logger *slog.Logger, m *metrics.Metrics) *Resolver {
	return &Resolver{
		providers: providers,
		cache:     c,
		ttl:       ttl,
		logger:    logger,
		metrics:   m,
	}
}

// Geocode resolves a place name to coordinates, or reports unresolved.
// An empty or whitespace-only name is unresolved without any provider call.
func (r *Resolver) Geocode(ctx context.Context, locationName string) (Coordinates, bool) {
	key, ok := CacheKey(locationName)
	if !ok {
		return Coordinates{}, false
	}

	if raw, hit := r.cache.Get(ctx, key); hit {
		var coords Coordinates
		if err := json.Unmarshal(raw, &coords); err == nil {
			r.logger.DebugContext(ctx, "geocoding cache hit", "location", locationName)
			return coords, true
		}
		// The corrupt entry will age out; fall through to the providers.
		r.logger.WarnContext(ctx, "unreadable geocode cache entry", "key", key)
	}

	for _, p := range r.providers {
		coords, found, err := p.Resolve(ctx, locationName)
		if err != nil {
			r.countCall(p.Name(), "error")
			r.logger.WarnContext(ctx, "geocoding provider failed",
				"provider", p.Name(),
				"location", locationName,
				"error", err,
			)
			continue
		}
		if !found {
			r.countCall(p.Name(), "empty")
			continue
		}
		r.countCall(p.Name(), "ok")

		if raw, err := json.Marshal(coords); err == nil {
			r.cache.Set(ctx, key, raw, r.ttl)
		}
		r.logger.InfoContext(ctx, "geocoding successful",
			"provider", p.Name(),
			"location", locationName,
			"lat", coords.Lat,
			"lng", coords.Lng,
		)
		return coords, true
	}

	return Coordinates{}, false
}

// CacheKey derives the shared cache key from a normalized location name.
// Returns false for empty or whitespace-only input.
func CacheKey(locationName string) (string, bool) {
	normalized := strings.Join(strings.Fields(strings.ToLower(locationName)), "_")
	if normalized == "" {
		return "", false
	}
	return "geocode:" + normalized, true
}

func (r *Resolver) countCall(provider, outcome string) {
	if r.metrics != nil {
		r.metrics.GeocodeCalls.WithLabelValues(provider, outcome).Inc()
	}
}
