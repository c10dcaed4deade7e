package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// GoogleProvider implements Provider using the Google Maps Geocoding API.
// It sits first in the chain: richer results, but metered.
type GoogleProvider struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
}

// NewGoogleProvider creates a Google geocoding provider.
func NewGoogleProvider(apiKey string, timeout time.Duration) *GoogleProvider {
	return &GoogleProvider{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    "https://maps.googleapis.com/maps/api/geocode/json",
	}
}

func (p *GoogleProvider) Name() string { return "google" }

func (p *GoogleProvider) Resolve(ctx context.Context, locationName string) (Coordinates, bool, error) {
	params := url.Values{
		"address": {locationName},
		"key":     {p.apiKey},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return Coordinates{}, false, fmt.Errorf("create request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return Coordinates{}, false, fmt.Errorf("google geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return Coordinates{}, false, fmt.Errorf("google API error: status %d: %s", resp.StatusCode, body)
	}

	var googleResp googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&googleResp); err != nil {
		return Coordinates{}, false, fmt.Errorf("decode response: %w", err)
	}

	if len(googleResp.Results) == 0 {
		return Coordinates{}, false, nil
	}

	loc := googleResp.Results[0].Geometry.Location
	return Coordinates{Lat: loc.Lat, Lng: loc.Lng}, true, nil
}

// Google API response types.

type googleResponse struct {
	Results []googleResult `json:"results"`
}

type googleResult struct {
	Geometry struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
}
