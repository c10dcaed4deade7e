// Package report holds field reports submitted against a disaster. Reports
// carrying an image pass through AI verification before they are trusted.
package report

import (
	"strings"
	"time"

	dErrors "beacon/pkg/domain-errors"
)

// Status is the moderation state of a report.
type Status string

const (
	// StatusPending covers both "not yet reviewed" and "flagged as
	// suspicious"; each waits in the same review queue.
	StatusPending  Status = "pending"
	StatusVerified Status = "verified"
	StatusRejected Status = "rejected"
)

// ValidStatus reports whether s is a recognized moderation state.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusVerified, StatusRejected:
		return true
	}
	return false
}

// Report is a field observation attached to a disaster.
type Report struct {
	ID                 string    `json:"id"`
	DisasterID         string    `json:"disaster_id"`
	UserID             string    `json:"user_id"`
	Content            string    `json:"content"`
	ImageURL           string    `json:"image_url,omitempty"`
	VerificationStatus Status    `json:"verification_status"`
	VerificationNote   string    `json:"verification_note,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// CreateInput carries the client-supplied fields for a new report.
type CreateInput struct {
	DisasterID string `json:"disaster_id"`
	Content    string `json:"content"`
	ImageURL   string `json:"image_url"`
}

func (in CreateInput) Validate() error {
	if strings.TrimSpace(in.DisasterID) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "disaster_id is required")
	}
	if strings.TrimSpace(in.Content) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "content is required")
	}
	return nil
}
