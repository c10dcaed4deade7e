package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(NewInMemoryStore(), log, WithClock(clock)), clock
}

func TestGet_BeforeAndAfterExpiry(t *testing.T) {
	ctx := context.Background()
	svc, clock := newTestService(t)

	require.True(t, svc.Set(ctx, "k", []byte("v"), time.Minute))

	got, ok := svc.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)

	clock.Advance(time.Minute - time.Second)
	_, ok = svc.Get(ctx, "k")
	assert.True(t, ok, "entry should still be live just before the TTL")

	clock.Advance(2 * time.Second)
	_, ok = svc.Get(ctx, "k")
	assert.False(t, ok, "entry at or past expiry must behave as a miss")
}

func TestGet_ExpiredEntryIsLazilyEvicted(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	clock := clockwork.NewFakeClock()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(store, log, WithClock(clock))

	svc.Set(ctx, "k", []byte("v"), time.Minute)
	clock.Advance(2 * time.Minute)

	_, ok := svc.Get(ctx, "k")
	require.False(t, ok)

	// The row is gone from the store, not just filtered on read.
	_, err := store.Get(ctx, "k")
	assert.Error(t, err)
}

func TestSet_OverwritesAndResetsExpiry(t *testing.T) {
	ctx := context.Background()
	svc, clock := newTestService(t)

	svc.Set(ctx, "k", []byte("old"), time.Minute)
	clock.Advance(50 * time.Second)
	svc.Set(ctx, "k", []byte("new"), time.Minute)
	clock.Advance(30 * time.Second)

	got, ok := svc.Get(ctx, "k")
	require.True(t, ok, "expiry must reset from the second Set")
	assert.Equal(t, []byte("new"), got)
}

func TestCleanup_RemovesOnlyExpired(t *testing.T) {
	ctx := context.Background()
	svc, clock := newTestService(t)

	svc.Set(ctx, "short", []byte("a"), time.Minute)
	svc.Set(ctx, "long", []byte("b"), time.Hour)

	clock.Advance(10 * time.Minute)
	assert.Equal(t, 1, svc.Cleanup(ctx))

	_, ok := svc.Get(ctx, "long")
	assert.True(t, ok)
}

func TestCleanup_Idempotent(t *testing.T) {
	ctx := context.Background()
	svc, clock := newTestService(t)

	svc.Set(ctx, "k", []byte("v"), time.Minute)
	clock.Advance(2 * time.Minute)

	assert.Equal(t, 1, svc.Cleanup(ctx))
	assert.Equal(t, 0, svc.Cleanup(ctx), "second cleanup with nothing newly expired removes zero")
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	svc.Set(ctx, "k", []byte("v"), time.Minute)
	require.True(t, svc.Delete(ctx, "k"))

	_, ok := svc.Get(ctx, "k")
	assert.False(t, ok)
}

// failingStore simulates a backing store outage.
type failingStore struct{}

var errDown = errors.New("store down")

func (failingStore) Get(context.Context, string) (Entry, error) { return Entry{}, errDown }
func (failingStore) Put(context.Context, string, Entry) error   { return errDown }
func (failingStore) Delete(context.Context, string) error       { return errDown }
func (failingStore) DeleteExpired(context.Context, time.Time) (int, error) {
	return 0, errDown
}

func TestStoreFailuresAreAbsorbed(t *testing.T) {
	ctx := context.Background()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(failingStore{}, log)

	_, ok := svc.Get(ctx, "k")
	assert.False(t, ok, "get degrades to a miss")
	assert.False(t, svc.Set(ctx, "k", []byte("v"), time.Minute), "set degrades to false")
	assert.False(t, svc.Delete(ctx, "k"), "delete degrades to false")
	assert.Equal(t, 0, svc.Cleanup(ctx))
}

func TestConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := string(rune('a' + n%4))
			for j := 0; j < 100; j++ {
				svc.Set(ctx, key, []byte("v"), time.Minute)
				svc.Get(ctx, key)
				svc.Cleanup(ctx)
			}
		}(i)
	}
	wg.Wait()
}
