package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoogleProvider_Resolve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Central Park", r.URL.Query().Get("address"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[{"geometry":{"location":{"lat":40.7829,"lng":-73.9654}}}]}`))
	}))
	defer srv.Close()

	p := NewGoogleProvider("test-key", time.Second)
	p.baseURL = srv.URL

	coords, found, err := p.Resolve(context.Background(), "Central Park")
	require.NoError(t, err)
	require.True(t, found)
	assert.InDelta(t, 40.7829, coords.Lat, 1e-9)
	assert.InDelta(t, -73.9654, coords.Lng, 1e-9)
}

func TestGoogleProvider_EmptyResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	p := NewGoogleProvider("test-key", time.Second)
	p.baseURL = srv.URL

	_, found, err := p.Resolve(context.Background(), "gibberish")
	require.NoError(t, err, "no result is not an error")
	assert.False(t, found)
}

func TestGoogleProvider_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewGoogleProvider("test-key", time.Second)
	p.baseURL = srv.URL

	_, found, err := p.Resolve(context.Background(), "anywhere")
	require.Error(t, err)
	assert.False(t, found)
}

func TestGoogleProvider_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	p := NewGoogleProvider("test-key", 20*time.Millisecond)
	p.baseURL = srv.URL

	_, found, err := p.Resolve(context.Background(), "anywhere")
	require.Error(t, err, "a hung provider must time out, not block")
	assert.False(t, found)
}
