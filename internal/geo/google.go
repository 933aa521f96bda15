package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultGoogleURL is the Google Geocoding JSON endpoint.
const DefaultGoogleURL = "https://maps.googleapis.com/maps/api/geocode/json"

// GoogleGeocoder queries the Google Geocoding API.
type GoogleGeocoder struct {
	BaseURL    string
	APIKey     string
	httpClient *http.Client
}

// NewGoogleGeocoder creates a geocoder. A zero timeout means 10s.
func NewGoogleGeocoder(baseURL, apiKey string, timeout time.Duration) *GoogleGeocoder {
	if baseURL == "" {
		baseURL = DefaultGoogleURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &GoogleGeocoder{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type googleResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Geocode returns the first match for query. Altitude is always 0.
func (g *GoogleGeocoder) Geocode(ctx context.Context, query string) (Position, error) {
	q := url.Values{}
	q.Set("address", query)
	if g.APIKey != "" {
		q.Set("key", g.APIKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return Position{}, fmt.Errorf("failed to build geocode request: %w", err)
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return Position{}, fmt.Errorf("geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Position{}, fmt.Errorf("failed to read geocode response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Position{}, fmt.Errorf("geocode request returned %d", resp.StatusCode)
	}

	var out googleResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return Position{}, fmt.Errorf("failed to parse geocode response: %w", err)
	}
	switch out.Status {
	case "OK":
	case "ZERO_RESULTS":
		return Position{}, ErrNotFound
	default:
		return Position{}, fmt.Errorf("geocoder status %s: %s", out.Status, out.ErrorMessage)
	}
	if len(out.Results) == 0 {
		return Position{}, ErrNotFound
	}

	r := out.Results[0]
	return Position{
		Latitude:  r.Geometry.Location.Lat,
		Longitude: r.Geometry.Location.Lng,
		Address:   r.FormattedAddress,
	}, nil
}
