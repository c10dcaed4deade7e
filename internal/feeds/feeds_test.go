package feeds

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beacon/internal/cache"
	"beacon/internal/disaster"
	"beacon/internal/events"
	dErrors "beacon/pkg/domain-errors"
	"beacon/pkg/testutil"
)

type stubFinder struct{ calls int }

func (f *stubFinder) Get(_ context.Context, id string) (*disaster.Disaster, error) {
	f.calls++
	if id == "missing" {
		return nil, dErrors.New(dErrors.CodeNotFound, "disaster not found")
	}
	return &disaster.Disaster{ID: id, Tags: []string{"flood"}}, nil
}

type recordingPublisher struct {
	topics []string
	events []events.Event
}

func (p *recordingPublisher) Publish(topic string, e events.Event) {
	p.topics = append(p.topics, topic)
	p.events = append(p.events, e)
}

func newTestService(finder *stubFinder, pub Publisher) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := cache.NewService(cache.NewInMemoryStore(), logger)
	svc := NewService(finder, c, time.Hour, pub, logger)
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestSocialMediaPriorityFirst(t *testing.T) {
	svc := newTestService(&stubFinder{}, &recordingPublisher{})

	posts, err := svc.SocialMedia(context.Background(), "d1")
	require.NoError(t, err)
	require.NotEmpty(t, posts)

	seenRegular := false
	for _, p := range posts {
		if !p.Priority {
			seenRegular = true
		} else {
			assert.False(t, seenRegular, "priority post after regular post")
		}
	}
	assert.Contains(t, posts[0].Content, "SOS")
}

func TestSocialMediaPublishesToRoom(t *testing.T) {
	pub := &recordingPublisher{}
	svc := newTestService(&stubFinder{}, pub)

	posts, err := svc.SocialMedia(context.Background(), "d1")
	require.NoError(t, err)

	require.Len(t, pub.topics, 1)
	assert.Equal(t, events.Room("d1"), pub.topics[0])
	assert.Equal(t, "social_media", pub.events[0].Action)
	assert.Equal(t, posts, pub.events[0].Data)
}

func TestSocialMediaUnknownDisaster(t *testing.T) {
	svc := newTestService(&stubFinder{}, &recordingPublisher{})

	_, err := svc.SocialMedia(context.Background(), "missing")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestOfficialUpdatesCached(t *testing.T) {
	finder := &stubFinder{}
	svc := newTestService(finder, &recordingPublisher{})

	first, err := svc.OfficialUpdates(context.Background(), "d1")
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := svc.OfficialUpdates(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestFirstTagPrefersKnownVocabulary(t *testing.T) {
	assert.Equal(t, "fire", firstTag(&disaster.Disaster{Tags: []string{"custom", "fire"}}))
	assert.Equal(t, "custom", firstTag(&disaster.Disaster{Tags: []string{"custom"}}))
	assert.Equal(t, "disaster", firstTag(&disaster.Disaster{}))
}

func TestMarkPriority(t *testing.T) {
	assert.True(t, MarkPriority("URGENT: water rising"))
	assert.True(t, MarkPriority("sos we are trapped"))
	assert.False(t, MarkPriority("volunteers gathering downtown"))
}

func TestFeedHandlers(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(newTestService(&stubFinder{}, &recordingPublisher{}), logger)

	r := chi.NewRouter()
	h.Register(r)

	rr := testutil.DoRequest(r, testutil.NewJSONRequest(t, http.MethodGet, "/disasters/d1/social-media", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	posts := testutil.UnmarshalResponse[[]SocialPost](t, rr)
	assert.NotEmpty(t, *posts)

	rr = testutil.DoRequest(r, testutil.NewJSONRequest(t, http.MethodGet, "/disasters/d1/official-updates", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	updates := testutil.UnmarshalResponse[[]OfficialUpdate](t, rr)
	assert.NotEmpty(t, *updates)

	rr = testutil.DoRequest(r, testutil.NewJSONRequest(t, http.MethodGet, "/disasters/missing/social-media", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
