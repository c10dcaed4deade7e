// Package cache implements the TTL cache every expensive external lookup is
// memoized through. The Service owns the expiry contract; Stores are dumb
// key/value/expiry rows so the semantics hold over any backing engine.
package cache

import (
	"context"
	"time"
)

// Entry is one cached row. Value is an opaque serialized payload; callers
// never learn anything about physical storage beyond this contract.
type Entry struct {
	Value     []byte    `json:"value"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Store is the backing key/value contract. Implementations return
// sentinel.ErrNotFound for absent keys and surface infrastructure failures
// as-is; the Service absorbs them.
type Store interface {
	Get(ctx context.Context, key string) (Entry, error)
	Put(ctx context.Context, key string, e Entry) error
	Delete(ctx context.Context, key string) error
	// DeleteExpired removes every entry with ExpiresAt at or before now and
	// reports how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}
