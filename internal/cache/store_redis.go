package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"beacon/pkg/platform/sentinel"
)

const keyPrefix = "cache:"

// RedisStore persists cache rows in Redis. Entries carry their own ExpiresAt
// in the envelope; the Redis-side TTL is only a reclamation safety net, the
// envelope timestamp stays authoritative for the freshness check.
// Infrastructure failures come back wrapped in sentinel.ErrUnavailable.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) (Entry, error) {
	raw, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("%w: redis get: %v", sentinel.ErrUnavailable, err)
	}
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return Entry{}, fmt.Errorf("decode cache entry: %w", err)
	}
	return e, nil
}

func (s *RedisStore) Put(ctx context.Context, key string, e Entry) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	ttl := time.Until(e.ExpiresAt)
	if ttl <= 0 {
		ttl = time.Second
	}
	// Single SET keeps the write atomic; a concurrent Get sees either the old
	// envelope or the new one, never a mix.
	if err := s.client.Set(ctx, keyPrefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("%w: redis set: %v", sentinel.ErrUnavailable, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("%w: redis del: %v", sentinel.ErrUnavailable, err)
	}
	return nil
}

func (s *RedisStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	removed := 0
	iter := s.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		raw, err := s.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return removed, fmt.Errorf("%w: redis get during cleanup: %v", sentinel.ErrUnavailable, err)
		}
		var e Entry
		if err := json.Unmarshal(raw, &e); err != nil {
			// Unreadable rows are reclaimed rather than kept forever.
			if delErr := s.client.Del(ctx, key).Err(); delErr == nil {
				removed++
			}
			continue
		}
		if !e.ExpiresAt.After(now) {
			if err := s.client.Del(ctx, key).Err(); err != nil {
				return removed, fmt.Errorf("%w: redis del during cleanup: %v", sentinel.ErrUnavailable, err)
			}
			removed++
		}
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("%w: redis scan: %v", sentinel.ErrUnavailable, err)
	}
	return removed, nil
}
