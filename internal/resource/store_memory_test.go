package resource

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beacon/internal/geocode"
	"beacon/pkg/platform/sentinel"
)

const metersPerDegreeLat = earthRadiusMeters * math.Pi / 180

var basePoint = geocode.Coordinates{Lat: 40.7128, Lng: -74.006}

// atDistance returns a point the given number of meters due north of base.
func atDistance(base geocode.Coordinates, meters float64) geocode.Coordinates {
	return geocode.Coordinates{Lat: base.Lat + meters/metersPerDegreeLat, Lng: base.Lng}
}

func seedResource(t *testing.T, store *InMemoryStore, id, disasterID string, loc *geocode.Coordinates, createdAt time.Time) {
	t.Helper()
	require.NoError(t, store.Insert(context.Background(), &Resource{
		ID:         id,
		DisasterID: disasterID,
		Name:       "resource " + id,
		Type:       "shelter",
		Location:   loc,
		CreatedAt:  createdAt,
	}))
}

func TestFindNearbySortsByAscendingDistance(t *testing.T) {
	store := NewInMemoryStore()
	now := time.Now()

	far := atDistance(basePoint, 5000)
	near := atDistance(basePoint, 50)
	mid := atDistance(basePoint, 200)
	seedResource(t, store, "far", "d1", &far, now)
	seedResource(t, store, "near", "d1", &near, now)
	seedResource(t, store, "mid", "d1", &mid, now)

	matches, err := store.FindNearby(context.Background(), "d1", basePoint, 10000)
	require.NoError(t, err)
	require.Len(t, matches, 3)

	assert.Equal(t, "near", matches[0].ID)
	assert.Equal(t, "mid", matches[1].ID)
	assert.Equal(t, "far", matches[2].ID)
	assert.InDelta(t, 50, matches[0].DistanceMeters, 1)
	assert.InDelta(t, 200, matches[1].DistanceMeters, 1)
	assert.InDelta(t, 5000, matches[2].DistanceMeters, 5)
}

func TestFindNearbyRespectsRadius(t *testing.T) {
	store := NewInMemoryStore()
	now := time.Now()

	inside := atDistance(basePoint, 9000)
	outside := atDistance(basePoint, 11000)
	seedResource(t, store, "inside", "d1", &inside, now)
	seedResource(t, store, "outside", "d1", &outside, now)

	matches, err := store.FindNearby(context.Background(), "d1", basePoint, 10000)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "inside", matches[0].ID)
}

func TestFindNearbySkipsResourcesWithoutCoordinates(t *testing.T) {
	store := NewInMemoryStore()
	now := time.Now()

	located := atDistance(basePoint, 100)
	seedResource(t, store, "located", "d1", &located, now)
	seedResource(t, store, "unlocated", "d1", nil, now)

	matches, err := store.FindNearby(context.Background(), "d1", basePoint, 10000)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "located", matches[0].ID)

	// The unlocated resource still shows up in a plain listing.
	all, err := store.ListByDisaster(context.Background(), "d1", ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestFindNearbyScopedToDisaster(t *testing.T) {
	store := NewInMemoryStore()
	now := time.Now()

	here := atDistance(basePoint, 10)
	seedResource(t, store, "mine", "d1", &here, now)
	seedResource(t, store, "elsewhere", "d2", &here, now)

	matches, err := store.FindNearby(context.Background(), "d1", basePoint, 10000)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "mine", matches[0].ID)
}

func TestListByDisasterFilterAndOrder(t *testing.T) {
	store := NewInMemoryStore()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.Insert(context.Background(), &Resource{
		ID: "shelter-1", DisasterID: "d1", Name: "North Shelter", Type: "shelter", CreatedAt: base,
	}))
	require.NoError(t, store.Insert(context.Background(), &Resource{
		ID: "hospital-1", DisasterID: "d1", Name: "City Hospital", Type: "hospital", CreatedAt: base.Add(time.Hour),
	}))

	all, err := store.ListByDisaster(context.Background(), "d1", ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "hospital-1", all[0].ID)

	shelters, err := store.ListByDisaster(context.Background(), "d1", ListFilter{Type: "shelter"})
	require.NoError(t, err)
	require.Len(t, shelters, 1)
	assert.Equal(t, "shelter-1", shelters[0].ID)
}

func TestDeleteResource(t *testing.T) {
	store := NewInMemoryStore()
	seedResource(t, store, "r1", "d1", nil, time.Now())

	require.NoError(t, store.Delete(context.Background(), "r1"))
	assert.ErrorIs(t, store.Delete(context.Background(), "r1"), sentinel.ErrNotFound)

	_, err := store.FindByID(context.Background(), "r1")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}
