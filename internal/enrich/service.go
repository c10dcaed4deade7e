// Package enrich derives structured attributes from unstructured input via an
// AI text service: location names from disaster descriptions and authenticity
// verdicts for report images. Everything here is best-effort; a failure
// degrades to a sentinel instead of blocking the enclosing mutation.
package enrich

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"beacon/internal/cache"
)

// LocationUnknown is the sentinel returned when no location can be extracted.
// Callers treat it as "do not attempt geocoding".
const LocationUnknown = "unknown"

// rejectedFallback is returned when the AI service itself is unreachable.
const rejectedFallback = "REJECTED - verification service unavailable"

//go:generate mockgen -source=service.go -destination=mocks/generator.go -package=mocks TextGenerator

// TextGenerator is the AI text capability: pure, possibly slow, possibly
// failing.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Service orchestrates AI enrichment with content-addressed caching. Its
// cache namespace is independent from the geocoding resolver's.
type Service struct {
	gen     TextGenerator
	cache   *cache.Service
	ttl     time.Duration
	timeout time.Duration
	logger  *slog.Logger
}

// NewService builds the enrichment orchestrator. timeout bounds every
// generator call; on expiry the call counts as a failure.
func NewService(gen TextGenerator, c *cache.Service, ttl, timeout time.Duration, logger *slog.Logger) *Service {
	return &Service{
		gen:     gen,
		cache:   c,
		ttl:     ttl,
		timeout: timeout,
		logger:  logger,
	}
}

// ExtractLocation derives a location name from a disaster description.
// Returns LocationUnknown on any failure; never an error.
func (s *Service) ExtractLocation(ctx context.Context, description string) string {
	if description == "" {
		return LocationUnknown
	}
	key := "location:" + contentKey(description)

	if raw, ok := s.cache.Get(ctx, key); ok {
		s.logger.DebugContext(ctx, "location extraction cache hit")
		return string(raw)
	}

	prompt := fmt.Sprintf(
		`Extract specific location names from this disaster description. Return only the location names, separated by commas. If no specific location is found, return "unknown". Description: %q`,
		description,
	)

	text, err := s.generate(ctx, prompt)
	if err != nil {
		s.logger.WarnContext(ctx, "location extraction failed", "error", err)
		return LocationUnknown
	}

	s.cache.Set(ctx, key, []byte(text), s.ttl)
	s.logger.InfoContext(ctx, "location extracted", "location", text)
	return text
}

// VerifyImage asks the AI service for an authenticity verdict on a report
// image. The raw response (verdict token plus explanation) is cached;
// on failure a REJECTED fallback is returned so unverifiable content never
// passes as verified.
func (s *Service) VerifyImage(ctx context.Context, imageURL, reportContext string) string {
	key := "verify:" + contentKey(imageURL)

	if raw, ok := s.cache.Get(ctx, key); ok {
		s.logger.DebugContext(ctx, "image verification cache hit")
		return string(raw)
	}

	prompt := fmt.Sprintf(
		`Analyze this image for disaster-related content and authenticity. Consider: 1) Is this a real disaster scene? 2) Are there signs of manipulation? 3) Does it match the context: %q? Respond with: VERIFIED, SUSPICIOUS, or REJECTED followed by a brief explanation. Image: %s`,
		reportContext, imageURL,
	)

	text, err := s.generate(ctx, prompt)
	if err != nil {
		s.logger.WarnContext(ctx, "image verification failed", "image_url", imageURL, "error", err)
		return rejectedFallback
	}

	s.cache.Set(ctx, key, []byte(text), s.ttl)
	s.logger.InfoContext(ctx, "image verification completed", "image_url", imageURL)
	return text
}

// generate runs one bounded generator call. The reply is whitespace-trimmed:
// models pad responses with newlines, and an untrimmed "unknown" would no
// longer match LocationUnknown.
func (s *Service) generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	text, err := s.gen.GenerateText(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// contentKey content-addresses arbitrary input for the cache.
func contentKey(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}
