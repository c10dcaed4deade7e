// Package service implements the report lifecycle: submission with optional
// AI image verification, manual moderation, and event fan-out.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"beacon/internal/disaster"
	"beacon/internal/enrich"
	"beacon/internal/events"
	"beacon/internal/platform/metrics"
	"beacon/internal/principal"
	"beacon/internal/report"
	dErrors "beacon/pkg/domain-errors"
	"beacon/pkg/platform/sentinel"
)

// Verifier produces an authenticity verdict for a report image. The raw
// response is parsed with enrich.ParseVerdict.
type Verifier interface {
	VerifyImage(ctx context.Context, imageURL, reportContext string) string
}

// DisasterFinder confirms the target disaster exists before a report is
// accepted.
type DisasterFinder interface {
	Get(ctx context.Context, id string) (*disaster.Disaster, error)
}

// Publisher fans mutation events out to connected clients.
type Publisher interface {
	Publish(topic string, event events.Event)
}

type Service struct {
	store     report.Store
	disasters DisasterFinder
	verifier  Verifier
	publisher Publisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewService(
	store report.Store,
	disasters DisasterFinder,
	verifier Verifier,
	publisher Publisher,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		store:     store,
		disasters: disasters,
		verifier:  verifier,
		publisher: publisher,
		logger:    logger,
		metrics:   m,
		now:       time.Now,
	}
}

// Create validates and persists a new report. A report with an image gets an
// immediate AI verdict: VERIFIED publishes as verified, SUSPICIOUS stays
// pending for review, anything else is rejected. Reports without an image
// start pending.
func (s *Service) Create(ctx context.Context, p principal.Principal, in report.CreateInput) (*report.Report, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.disasters.Get(ctx, in.DisasterID); err != nil {
		return nil, err
	}

	status := report.StatusPending
	note := ""
	if in.ImageURL != "" {
		raw := s.verifier.VerifyImage(ctx, in.ImageURL, in.Content)
		verdict, explanation := enrich.ParseVerdict(raw)
		status, note = classify(verdict), explanation
		s.logger.InfoContext(ctx, "image verdict applied",
			"verdict", string(verdict),
			"status", string(status),
		)
	}

	now := s.now().UTC()
	r := &report.Report{
		ID:                 uuid.NewString(),
		DisasterID:         in.DisasterID,
		UserID:             p.ID,
		Content:            in.Content,
		ImageURL:           in.ImageURL,
		VerificationStatus: status,
		VerificationNote:   note,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.store.Insert(ctx, r); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeUnavailable, "failed to save report", err)
	}

	s.recordMutation("create")
	s.broadcast("create", r)
	return r, nil
}

// Get returns a single report.
func (s *Service) Get(ctx context.Context, id string) (*report.Report, error) {
	r, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "report not found")
		}
		return nil, dErrors.Wrap(dErrors.CodeUnavailable, "failed to load report", err)
	}
	return r, nil
}

// ListByDisaster returns the reports filed against a disaster, newest first.
func (s *Service) ListByDisaster(ctx context.Context, disasterID string, filter report.ListFilter) ([]*report.Report, error) {
	if filter.Status != "" && !report.ValidStatus(filter.Status) {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unknown verification status")
	}
	reports, err := s.store.ListByDisaster(ctx, disasterID, filter)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeUnavailable, "failed to list reports", err)
	}
	return reports, nil
}

// SetStatus is the manual moderation override. Admin only; every transition
// between recognized states is allowed, including reopening a rejected
// report.
func (s *Service) SetStatus(ctx context.Context, p principal.Principal, id string, status report.Status) (*report.Report, error) {
	if !report.ValidStatus(status) {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unknown verification status")
	}
	if !p.IsAdmin() {
		return nil, dErrors.New(dErrors.CodeForbidden, "only admins may moderate reports")
	}

	note := fmt.Sprintf("manually set to %s by %s", status, p.ID)
	r, err := s.store.UpdateStatus(ctx, id, status, note, s.now().UTC())
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "report not found")
		}
		return nil, dErrors.Wrap(dErrors.CodeUnavailable, "failed to update report", err)
	}

	s.recordMutation("moderate")
	s.broadcast("verify", r)
	return r, nil
}

// Delete removes a report for its author or an admin.
func (s *Service) Delete(ctx context.Context, p principal.Principal, id string) error {
	r, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if r.UserID != p.ID && !p.IsAdmin() {
		return dErrors.New(dErrors.CodeForbidden, "not the author of this report")
	}

	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "report not found")
		}
		return dErrors.Wrap(dErrors.CodeUnavailable, "failed to delete report", err)
	}

	s.recordMutation("delete")
	s.broadcast("delete", r)
	return nil
}

func classify(v enrich.Verdict) report.Status {
	switch v {
	case enrich.VerdictVerified:
		return report.StatusVerified
	case enrich.VerdictSuspicious:
		return report.StatusPending
	default:
		return report.StatusRejected
	}
}

func (s *Service) recordMutation(action string) {
	if s.metrics != nil {
		s.metrics.Mutations.WithLabelValues("report", action).Inc()
	}
}

func (s *Service) broadcast(action string, r *report.Report) {
	event := events.Event{Action: action, Data: r}
	s.publisher.Publish(events.TopicReports, event)
	s.publisher.Publish(events.Room(r.DisasterID), event)
}
