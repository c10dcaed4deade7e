package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "gemini-pro:generateContent")
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		assert.Contains(t, req.Contents[0].Parts[0].Text, "flood")

		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Lower Manhattan"}]}}]}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", srv.URL)
	text, err := c.GenerateText(context.Background(), "Extract locations: flood in Lower Manhattan")
	require.NoError(t, err)
	assert.Equal(t, "Lower Manhattan", text)
}

func TestGenerateText_NoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", srv.URL)
	_, err := c.GenerateText(context.Background(), "anything")
	require.Error(t, err)
}

func TestGenerateText_ContextTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	c := NewClient("test-key", srv.URL)
	_, err := c.GenerateText(ctx, "anything")
	require.Error(t, err)
}

func TestGenerateText_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient("test-key", srv.URL)
	_, err := c.GenerateText(context.Background(), "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}
