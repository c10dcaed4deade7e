package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const nominatimUserAgent = "beacon/1.0"

// NominatimProvider implements Provider using the OpenStreetMap Nominatim
// API, the free fallback behind the paid provider.
type NominatimProvider struct {
	httpClient *http.Client
	baseURL    string
}

// NewNominatimProvider creates a Nominatim provider. baseURL is overridable
// for self-hosted instances and tests.
func NewNominatimProvider(baseURL string, timeout time.Duration) *NominatimProvider {
	if baseURL == "" {
		baseURL = "https://nominatim.openstreetmap.org"
	}
	return &NominatimProvider{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
	}
}

func (p *NominatimProvider) Name() string { return "nominatim" }

func (p *NominatimProvider) Resolve(ctx context.Context, locationName string) (Coordinates, bool, error) {
	params := url.Values{
		"q":      {locationName},
		"format": {"json"},
		"limit":  {"1"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return Coordinates{}, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", nominatimUserAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return Coordinates{}, false, fmt.Errorf("nominatim request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return Coordinates{}, false, fmt.Errorf("nominatim API error: status %d: %s", resp.StatusCode, body)
	}

	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return Coordinates{}, false, fmt.Errorf("decode response: %w", err)
	}

	if len(places) == 0 {
		return Coordinates{}, false, nil
	}

	// Nominatim returns coordinates as strings.
	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return Coordinates{}, false, fmt.Errorf("parse lat %q: %w", places[0].Lat, err)
	}
	lng, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return Coordinates{}, false, fmt.Errorf("parse lon %q: %w", places[0].Lon, err)
	}

	return Coordinates{Lat: lat, Lng: lng}, true, nil
}

type nominatimPlace struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}
