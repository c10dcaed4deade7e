package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beacon/internal/disaster"
	"beacon/internal/events"
	"beacon/internal/principal"
	"beacon/internal/report"
	dErrors "beacon/pkg/domain-errors"
)

var (
	author = principal.Principal{ID: "contributor1", Role: principal.RoleContributor}
	admin  = principal.Principal{ID: "netrunnerX", Role: principal.RoleAdmin}
	other  = principal.Principal{ID: "citizen77", Role: principal.RoleContributor}
)

type stubFinder struct {
	known map[string]bool
}

func (f *stubFinder) Get(_ context.Context, id string) (*disaster.Disaster, error) {
	if f.known[id] {
		return &disaster.Disaster{ID: id}, nil
	}
	return nil, dErrors.New(dErrors.CodeNotFound, "disaster not found")
}

type stubVerifier struct {
	response string
	calls    int
}

func (v *stubVerifier) VerifyImage(_ context.Context, _, _ string) string {
	v.calls++
	return v.response
}

type recordingPublisher struct {
	published []events.Event
	topics    []string
}

func (p *recordingPublisher) Publish(topic string, event events.Event) {
	p.topics = append(p.topics, topic)
	p.published = append(p.published, event)
}

func newTestService(verifier *stubVerifier, pub *recordingPublisher) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	finder := &stubFinder{known: map[string]bool{"disaster-1": true}}
	svc := NewService(report.NewInMemoryStore(), finder, verifier, pub, logger, nil)
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestCreateWithoutImageStartsPending(t *testing.T) {
	verifier := &stubVerifier{}
	svc := newTestService(verifier, &recordingPublisher{})

	r, err := svc.Create(context.Background(), author, report.CreateInput{
		DisasterID: "disaster-1",
		Content:    "Water rising on 5th street",
	})
	require.NoError(t, err)

	assert.Equal(t, report.StatusPending, r.VerificationStatus)
	assert.Zero(t, verifier.calls)
}

func TestCreateClassifiesImageVerdict(t *testing.T) {
	tests := []struct {
		name       string
		verdict    string
		wantStatus report.Status
		wantNote   string
	}{
		{
			name:       "verified image",
			verdict:    "VERIFIED - matches reported flooding",
			wantStatus: report.StatusVerified,
			wantNote:   "matches reported flooding",
		},
		{
			name:       "suspicious image waits for review",
			verdict:    "SUSPICIOUS - metadata stripped",
			wantStatus: report.StatusPending,
			wantNote:   "metadata stripped",
		},
		{
			name:       "rejected image",
			verdict:    "REJECTED - stock photo",
			wantStatus: report.StatusRejected,
			wantNote:   "stock photo",
		},
		{
			name:       "unparseable verdict rejects",
			verdict:    "the model rambled on",
			wantStatus: report.StatusRejected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verifier := &stubVerifier{response: tt.verdict}
			svc := newTestService(verifier, &recordingPublisher{})

			r, err := svc.Create(context.Background(), author, report.CreateInput{
				DisasterID: "disaster-1",
				Content:    "flood report",
				ImageURL:   "https://example.com/img.jpg",
			})
			require.NoError(t, err)

			assert.Equal(t, 1, verifier.calls)
			assert.Equal(t, tt.wantStatus, r.VerificationStatus)
			if tt.wantNote != "" {
				assert.Equal(t, tt.wantNote, r.VerificationNote)
			}
		})
	}
}

func TestCreateUnknownDisaster(t *testing.T) {
	svc := newTestService(&stubVerifier{}, &recordingPublisher{})

	_, err := svc.Create(context.Background(), author, report.CreateInput{
		DisasterID: "missing",
		Content:    "report into the void",
	})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService(&stubVerifier{}, &recordingPublisher{})

	_, err := svc.Create(context.Background(), author, report.CreateInput{Content: "no disaster"})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = svc.Create(context.Background(), author, report.CreateInput{DisasterID: "disaster-1"})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestCreatePublishesToTopicAndRoom(t *testing.T) {
	pub := &recordingPublisher{}
	svc := newTestService(&stubVerifier{}, pub)

	_, err := svc.Create(context.Background(), author, report.CreateInput{
		DisasterID: "disaster-1",
		Content:    "flooding",
	})
	require.NoError(t, err)

	assert.Contains(t, pub.topics, events.TopicReports)
	assert.Contains(t, pub.topics, events.Room("disaster-1"))
	assert.Equal(t, "create", pub.published[0].Action)
}

func TestSetStatusAdminOnly(t *testing.T) {
	pub := &recordingPublisher{}
	svc := newTestService(&stubVerifier{}, pub)

	r, err := svc.Create(context.Background(), author, report.CreateInput{
		DisasterID: "disaster-1",
		Content:    "flooding",
	})
	require.NoError(t, err)

	_, err = svc.SetStatus(context.Background(), author, r.ID, report.StatusVerified)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))

	updated, err := svc.SetStatus(context.Background(), admin, r.ID, report.StatusVerified)
	require.NoError(t, err)
	assert.Equal(t, report.StatusVerified, updated.VerificationStatus)

	last := pub.published[len(pub.published)-1]
	assert.Equal(t, "verify", last.Action)
}

func TestSetStatusAllowsAnyTransition(t *testing.T) {
	svc := newTestService(&stubVerifier{response: "REJECTED - fake"}, &recordingPublisher{})

	r, err := svc.Create(context.Background(), author, report.CreateInput{
		DisasterID: "disaster-1",
		Content:    "flooding",
		ImageURL:   "https://example.com/img.jpg",
	})
	require.NoError(t, err)
	require.Equal(t, report.StatusRejected, r.VerificationStatus)

	// Rejected reports can be reopened and re-verified.
	updated, err := svc.SetStatus(context.Background(), admin, r.ID, report.StatusPending)
	require.NoError(t, err)
	assert.Equal(t, report.StatusPending, updated.VerificationStatus)

	updated, err = svc.SetStatus(context.Background(), admin, r.ID, report.StatusVerified)
	require.NoError(t, err)
	assert.Equal(t, report.StatusVerified, updated.VerificationStatus)
}

func TestSetStatusUnknownStatus(t *testing.T) {
	svc := newTestService(&stubVerifier{}, &recordingPublisher{})

	_, err := svc.SetStatus(context.Background(), admin, "any", report.Status("bogus"))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestDeleteAuthorOrAdmin(t *testing.T) {
	svc := newTestService(&stubVerifier{}, &recordingPublisher{})

	r, err := svc.Create(context.Background(), author, report.CreateInput{
		DisasterID: "disaster-1",
		Content:    "flooding",
	})
	require.NoError(t, err)

	err = svc.Delete(context.Background(), other, r.ID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))

	require.NoError(t, svc.Delete(context.Background(), author, r.ID))

	err = svc.Delete(context.Background(), author, r.ID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}
