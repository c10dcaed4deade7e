//go:build integration

package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"beacon/internal/cache"
	"beacon/pkg/platform/sentinel"
	"beacon/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *cache.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = cache.NewRedisStore(s.redis.Client)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) TestPutGetRoundTrip() {
	ctx := context.Background()
	e := cache.Entry{Value: []byte(`{"lat":40.7,"lng":-74.0}`), ExpiresAt: time.Now().Add(time.Hour).UTC()}

	s.Require().NoError(s.store.Put(ctx, "geocode:manhattan", e))

	got, err := s.store.Get(ctx, "geocode:manhattan")
	s.Require().NoError(err)
	s.Equal(e.Value, got.Value)
	s.WithinDuration(e.ExpiresAt, got.ExpiresAt, time.Second)
}

func (s *RedisStoreSuite) TestGetMissing() {
	_, err := s.store.Get(context.Background(), "nope")
	s.Require().Error(err)
}

func (s *RedisStoreSuite) TestDeleteExpired() {
	ctx := context.Background()
	now := time.Now().UTC()

	s.Require().NoError(s.store.Put(ctx, "stale", cache.Entry{Value: []byte("a"), ExpiresAt: now.Add(30 * time.Minute)}))
	s.Require().NoError(s.store.Put(ctx, "fresh", cache.Entry{Value: []byte("b"), ExpiresAt: now.Add(2 * time.Hour)}))

	removed, err := s.store.DeleteExpired(ctx, now.Add(time.Hour))
	s.Require().NoError(err)
	s.Equal(1, removed)

	_, err = s.store.Get(ctx, "fresh")
	s.Require().NoError(err)
}

func (s *RedisStoreSuite) TestUnreachableBackendReportsUnavailable() {
	opts, err := redis.ParseURL(s.redis.Addr)
	s.Require().NoError(err)
	client := redis.NewClient(opts)
	s.Require().NoError(client.Close())

	store := cache.NewRedisStore(client)
	_, err = store.Get(context.Background(), "k")
	s.Require().ErrorIs(err, sentinel.ErrUnavailable)

	err = store.Put(context.Background(), "k", cache.Entry{Value: []byte("v"), ExpiresAt: time.Now().Add(time.Hour)})
	s.ErrorIs(err, sentinel.ErrUnavailable)
}

func (s *RedisStoreSuite) TestOverwriteLastWriterWins() {
	ctx := context.Background()
	exp := time.Now().Add(time.Hour).UTC()

	s.Require().NoError(s.store.Put(ctx, "k", cache.Entry{Value: []byte("old"), ExpiresAt: exp}))
	s.Require().NoError(s.store.Put(ctx, "k", cache.Entry{Value: []byte("new"), ExpiresAt: exp}))

	got, err := s.store.Get(ctx, "k")
	s.Require().NoError(err)
	s.Equal([]byte("new"), got.Value)
}
