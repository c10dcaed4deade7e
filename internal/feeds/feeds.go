// Package feeds serves situational-awareness feeds for a disaster: social
// media chatter and official agency updates. Both run against canned provider
// data until real integrations land; the shapes and priority rules match what
// the live providers will return.
package feeds

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"beacon/internal/cache"
	"beacon/internal/disaster"
	"beacon/internal/events"
)

// priorityKeywords flag a post for immediate attention.
var priorityKeywords = []string{"urgent", "sos", "emergency", "trapped", "help needed"}

// SocialPost is one piece of social media chatter relevant to a disaster.
type SocialPost struct {
	ID        string    `json:"id"`
	User      string    `json:"user"`
	Content   string    `json:"content"`
	Priority  bool      `json:"priority"`
	Timestamp time.Time `json:"timestamp"`
}

// OfficialUpdate is a bulletin from a relief agency.
type OfficialUpdate struct {
	Source    string    `json:"source"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Timestamp time.Time `json:"timestamp"`
}

// DisasterFinder resolves the disaster whose feeds are requested.
type DisasterFinder interface {
	Get(ctx context.Context, id string) (*disaster.Disaster, error)
}

// Publisher fans feed refreshes out to clients watching the disaster room.
type Publisher interface {
	Publish(topic string, event events.Event)
}

type Service struct {
	disasters DisasterFinder
	cache     *cache.Service
	ttl       time.Duration
	publisher Publisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(disasters DisasterFinder, c *cache.Service, ttl time.Duration, publisher Publisher, logger *slog.Logger) *Service {
	return &Service{
		disasters: disasters,
		cache:     c,
		ttl:       ttl,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// SocialMedia returns recent chatter mentioning the disaster's tags, priority
// posts first.
func (s *Service) SocialMedia(ctx context.Context, disasterID string) ([]SocialPost, error) {
	d, err := s.disasters.Get(ctx, disasterID)
	if err != nil {
		return nil, err
	}

	posts := samplePosts(d, s.now().UTC())
	ordered := make([]SocialPost, 0, len(posts))
	for _, p := range posts {
		if p.Priority {
			ordered = append(ordered, p)
		}
	}
	for _, p := range posts {
		if !p.Priority {
			ordered = append(ordered, p)
		}
	}

	s.publisher.Publish(events.Room(disasterID), events.Event{
		Action: "social_media",
		Data:   ordered,
	})
	return ordered, nil
}

// OfficialUpdates returns agency bulletins for the disaster. Results are
// cached: bulletins change rarely and upstream agencies rate-limit scrapers.
func (s *Service) OfficialUpdates(ctx context.Context, disasterID string) ([]OfficialUpdate, error) {
	d, err := s.disasters.Get(ctx, disasterID)
	if err != nil {
		return nil, err
	}

	key := "official_updates:" + disasterID
	if raw, ok := s.cache.Get(ctx, key); ok {
		var updates []OfficialUpdate
		if err := json.Unmarshal(raw, &updates); err == nil {
			return updates, nil
		}
		s.logger.WarnContext(ctx, "discarding unreadable cached updates", "disaster_id", disasterID)
	}

	updates := sampleUpdates(d, s.now().UTC())
	if raw, err := json.Marshal(updates); err == nil {
		s.cache.Set(ctx, key, raw, s.ttl)
	}
	return updates, nil
}

// MarkPriority reports whether content matches a priority keyword.
func MarkPriority(content string) bool {
	lowered := strings.ToLower(content)
	for _, kw := range priorityKeywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}

func samplePosts(d *disaster.Disaster, now time.Time) []SocialPost {
	tag := firstTag(d)
	contents := []string{
		fmt.Sprintf("#%s Need food and water in the affected area", tag),
		fmt.Sprintf("SOS trapped near the %s zone, send help", tag),
		fmt.Sprintf("Volunteers gathering downtown for #%s relief", tag),
		fmt.Sprintf("URGENT: medical supplies needed for %s victims", tag),
		fmt.Sprintf("Shelter on 5th street still has space #%s", tag),
	}
	posts := make([]SocialPost, len(contents))
	for i, content := range contents {
		posts[i] = SocialPost{
			ID:        fmt.Sprintf("%s-post-%d", d.ID, i+1),
			User:      fmt.Sprintf("citizen%d", i+1),
			Content:   content,
			Priority:  MarkPriority(content),
			Timestamp: now.Add(-time.Duration(i) * time.Hour),
		}
	}
	return posts
}

func sampleUpdates(d *disaster.Disaster, now time.Time) []OfficialUpdate {
	tag := firstTag(d)
	return []OfficialUpdate{
		{
			Source:    "FEMA",
			Title:     fmt.Sprintf("Federal assistance approved for %s response", tag),
			URL:       "https://www.fema.gov/disaster/updates",
			Timestamp: now.Add(-2 * time.Hour),
		},
		{
			Source:    "Red Cross",
			Title:     fmt.Sprintf("Emergency shelters open for %s victims", tag),
			URL:       "https://www.redcross.org/about-us/news-and-events",
			Timestamp: now.Add(-5 * time.Hour),
		},
		{
			Source:    "National Weather Service",
			Title:     "Conditions expected to improve over the next 48 hours",
			URL:       "https://www.weather.gov/alerts",
			Timestamp: now.Add(-8 * time.Hour),
		},
	}
}

// firstTag picks the tag that keys the canned provider data: the first tag
// from the standard vocabulary, else the first tag at all, else "disaster".
func firstTag(d *disaster.Disaster) string {
	for _, tag := range d.Tags {
		if disaster.KnownTag(tag) {
			return tag
		}
	}
	if len(d.Tags) > 0 {
		return d.Tags[0]
	}
	return "disaster"
}
