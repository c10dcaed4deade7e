// Package config loads all service settings from environment variables so
// main stays lean. Defaults favor local development; production overrides via
// the environment.
package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// Config holds every setting the server needs.
type Config struct {
	Addr          string
	CORSOrigin    string
	LogLevel      string
	LogFormat     string
	ShutdownGrace time.Duration
	JWTSigningKey string

	// Persistence. When PostgresDSN is empty the in-memory stores are used;
	// when RedisURL is empty the cache falls back to its in-memory store.
	PostgresDSN string
	RedisURL    string

	// Cache.
	CacheTTL        time.Duration
	CleanupInterval time.Duration

	// Geocoding provider chain.
	GoogleMapsAPIKey string
	NominatimBaseURL string
	GeocodeTimeout   time.Duration

	// AI enrichment.
	GeminiAPIKey  string
	GeminiBaseURL string
	AITimeout     time.Duration

	// Resource matching.
	DefaultRadiusMeters float64
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	cfg := &Config{
		Addr:             envOrDefault("BEACON_ADDR", ":8080"),
		CORSOrigin:       envOrDefault("CORS_ORIGIN", "*"),
		LogLevel:         envOrDefault("LOG_LEVEL", "info"),
		LogFormat:        envOrDefault("LOG_FORMAT", "json"),
		JWTSigningKey:    os.Getenv("JWT_SIGNING_KEY"),
		PostgresDSN:      os.Getenv("POSTGRES_DSN"),
		RedisURL:         os.Getenv("REDIS_URL"),
		GoogleMapsAPIKey: os.Getenv("GOOGLE_MAPS_API_KEY"),
		NominatimBaseURL: envOrDefault("NOMINATIM_BASE_URL", "https://nominatim.openstreetmap.org"),
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		GeminiBaseURL:    envOrDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
	}

	var err error
	if cfg.ShutdownGrace, err = durationOrDefault("SHUTDOWN_GRACE", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = durationOrDefault("CACHE_TTL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.CleanupInterval, err = durationOrDefault("CACHE_CLEANUP_INTERVAL", 10*time.Minute); err != nil {
		return nil, err
	}
	if cfg.GeocodeTimeout, err = durationOrDefault("GEOCODE_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.AITimeout, err = durationOrDefault("AI_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.DefaultRadiusMeters, err = floatOrDefault("DEFAULT_RADIUS_METERS", 10000); err != nil {
		return nil, err
	}

	if cfg.DefaultRadiusMeters <= 0 {
		return nil, errors.New("DEFAULT_RADIUS_METERS must be positive")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOrDefault(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, errors.New("invalid " + key)
	}
	return d, nil
}

func floatOrDefault(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errors.New("invalid " + key)
	}
	return f, nil
}
