// Package disaster holds the core coordination records: a disaster is the
// root entity reports and resources attach to. Every mutation appends to the
// record's audit trail.
package disaster

import (
	"strings"
	"time"

	"beacon/internal/geocode"
	dErrors "beacon/pkg/domain-errors"
)

// KnownTags is the tag vocabulary clients pick from. Free-form tags are
// accepted too; known tags drive the feed heuristics.
var KnownTags = []string{
	"flood", "earthquake", "fire", "hurricane",
	"tornado", "urgent", "medical", "shelter",
}

// KnownTag reports whether tag belongs to the standard vocabulary.
func KnownTag(tag string) bool {
	for _, known := range KnownTags {
		if tag == known {
			return true
		}
	}
	return false
}

// AuditEntry records one mutation of a disaster: who did what, when.
type AuditEntry struct {
	Action    string    `json:"action"`
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

// Disaster is the root coordination record.
type Disaster struct {
	ID           string               `json:"id"`
	Title        string               `json:"title"`
	LocationName string               `json:"location_name,omitempty"`
	Location     *geocode.Coordinates `json:"location,omitempty"`
	Description  string               `json:"description"`
	Tags         []string             `json:"tags"`
	OwnerID      string               `json:"owner_id"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
	AuditTrail   []AuditEntry         `json:"audit_trail"`
}

// CreateInput carries the client-supplied fields for a new disaster.
type CreateInput struct {
	Title        string   `json:"title"`
	LocationName string   `json:"location_name"`
	Description  string   `json:"description"`
	Tags         []string `json:"tags"`
}

// Validate rejects records that cannot be coordinated on.
func (in CreateInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "title is required")
	}
	if strings.TrimSpace(in.Description) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "description is required")
	}
	return nil
}

// UpdateInput carries a partial update. Nil fields are left untouched.
type UpdateInput struct {
	Title        *string   `json:"title"`
	LocationName *string   `json:"location_name"`
	Description  *string   `json:"description"`
	Tags         *[]string `json:"tags"`
}

// Empty reports whether the update changes nothing.
func (in UpdateInput) Empty() bool {
	return in.Title == nil && in.LocationName == nil && in.Description == nil && in.Tags == nil
}

// Validate rejects updates that would blank required fields.
func (in UpdateInput) Validate() error {
	if in.Empty() {
		return dErrors.New(dErrors.CodeInvalidInput, "update must change at least one field")
	}
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "title must not be empty")
	}
	if in.Description != nil && strings.TrimSpace(*in.Description) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "description must not be empty")
	}
	return nil
}

// Changes is the resolved set of column values an update writes. The service
// computes it from UpdateInput plus any re-geocoded location; the store
// applies it together with the audit entry in one step.
type Changes struct {
	Title        *string
	LocationName *string
	Location     *geocode.Coordinates
	Description  *string
	Tags         *[]string
	UpdatedAt    time.Time
}
