package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"beacon/internal/platform/metrics"
	"beacon/pkg/platform/sentinel"
)

// Service enforces the TTL contract over a Store. Every failure of the
// backing store is absorbed here: a cache outage degrades to "always
// recompute", never to errors for callers.
type Service struct {
	store   Store
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures the Service.
type Option func(*Service)

// WithClock swaps the time source; tests freeze it.
func WithClock(c clockwork.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService builds a cache service over the given store.
func NewService(store Store, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:  store,
		clock:  clockwork.NewRealClock(),
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the cached value for key, or miss. An entry at or past its
// expiry behaves as a miss and is lazily evicted; eviction failure is logged,
// not propagated, since the stale hit was already avoided.
func (s *Service) Get(ctx context.Context, key string) ([]byte, bool) {
	e, err := s.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			s.logger.ErrorContext(ctx, "cache get failed", "key", key, "error", err)
		}
		s.countMiss()
		return nil, false
	}
	if !e.ExpiresAt.After(s.clock.Now()) {
		if err := s.store.Delete(ctx, key); err != nil {
			s.logger.ErrorContext(ctx, "cache lazy eviction failed", "key", key, "error", err)
		} else if s.metrics != nil {
			s.metrics.CacheEvictions.Inc()
		}
		s.countMiss()
		return nil, false
	}
	if s.metrics != nil {
		s.metrics.CacheHits.Inc()
	}
	return e.Value, true
}

// Set stores value under key, overwriting unconditionally and resetting the
// expiry from now. Returns false when the backing store failed.
func (s *Service) Set(ctx context.Context, key string, value []byte, ttl time.Duration) bool {
	e := Entry{Value: value, ExpiresAt: s.clock.Now().Add(ttl)}
	if err := s.store.Put(ctx, key, e); err != nil {
		s.logger.ErrorContext(ctx, "cache set failed", "key", key, "error", err)
		return false
	}
	return true
}

// Delete removes key. Returns false when the backing store failed.
func (s *Service) Delete(ctx context.Context, key string) bool {
	if err := s.store.Delete(ctx, key); err != nil {
		s.logger.ErrorContext(ctx, "cache delete failed", "key", key, "error", err)
		return false
	}
	return true
}

// Cleanup removes all expired entries and reports the count. It is safe to
// run concurrently with any reads and writes.
func (s *Service) Cleanup(ctx context.Context) int {
	removed, err := s.store.DeleteExpired(ctx, s.clock.Now())
	if err != nil {
		s.logger.ErrorContext(ctx, "cache cleanup failed", "error", err)
	}
	if removed > 0 {
		s.logger.InfoContext(ctx, "cache cleanup completed", "removed", removed)
		if s.metrics != nil {
			s.metrics.CacheEvictions.Add(float64(removed))
		}
	}
	return removed
}

// Run executes Cleanup on the given interval until ctx is cancelled. Expired
// entries that are never re-read still get reclaimed this way.
func (s *Service) Run(ctx context.Context, interval time.Duration) error {
	ticker := s.clock.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
			s.Cleanup(ctx)
		}
	}
}

func (s *Service) countMiss() {
	if s.metrics != nil {
		s.metrics.CacheMisses.Inc()
	}
}
