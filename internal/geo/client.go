// Package geo wraps the Google Maps web API endpoints the app uses for
// geocoding, address autocomplete and nearby search. Callers treat
// every failure here as "address unavailable", never as fatal.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	defaultBaseURL  = "https://maps.googleapis.com/maps/api"
	defaultLanguage = "pt-BR"
	defaultRegion   = "BR"
	defaultTimeout  = 10 * time.Second

	statusOK          = "OK"
	statusZeroResults = "ZERO_RESULTS"
)

type Config struct {
	APIKey   string
	BaseURL  string
	Language string
	Region   string
	Timeout  time.Duration

	// Reverse-geocode cache tuning; zero values take the defaults.
	CacheTTL     time.Duration
	CacheMaxSize int
}

type Client struct {
	apiKey     string
	baseURL    string
	language   string
	region     string
	httpClient *http.Client
	cache      *addressCache
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Language == "" {
		cfg.Language = defaultLanguage
	}
	if cfg.Region == "" {
		cfg.Region = defaultRegion
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		language:   cfg.Language,
		region:     cfg.Region,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cache:      newAddressCache(cfg.CacheTTL, cfg.CacheMaxSize),
	}
}

// Geocode resolves a free-text address to its best-ranked match.
func (c *Client) Geocode(ctx context.Context, address string) (*GeocodeResult, error) {
	results, err := c.geocodeQuery(ctx, url.Values{"address": []string{address}})
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrNoResults
	}
	return &results[0], nil
}

// ReverseGeocode returns the ranked formatted addresses for a
// coordinate pair.
func (c *Client) ReverseGeocode(ctx context.Context, point Point) ([]GeocodeResult, error) {
	latlng := fmt.Sprintf("%f,%f", point.Latitude, point.Longitude)
	return c.geocodeQuery(ctx, url.Values{"latlng": []string{latlng}})
}

// FormattedAddress is the cached single-answer form of ReverseGeocode
// used by the place-save flow.
func (c *Client) FormattedAddress(ctx context.Context, point Point) (string, error) {
	key := cacheKey(point)
	if address, ok := c.cache.get(key); ok {
		return address, nil
	}

	results, err := c.ReverseGeocode(ctx, point)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "", ErrNoResults
	}

	address := results[0].Address
	c.cache.put(key, address)
	return address, nil
}

// Autocomplete returns ranked suggestions for a partial address. The
// optional session token groups keystrokes for billing purposes.
func (c *Client) Autocomplete(ctx context.Context, input, sessionToken string) ([]Suggestion, error) {
	params := url.Values{
		"input":      []string{input},
		"components": []string{"country:" + c.region},
	}
	if sessionToken != "" {
		params.Set("sessiontoken", sessionToken)
	}

	var payload struct {
		Status      string `json:"status"`
		Predictions []struct {
			Description string `json:"description"`
			PlaceID     string `json:"place_id"`
		} `json:"predictions"`
	}
	if err := c.call(ctx, "/place/autocomplete/json", params, &payload); err != nil {
		return nil, err
	}
	if payload.Status != statusOK {
		if payload.Status == statusZeroResults {
			return nil, nil
		}
		return nil, fmt.Errorf("geo: autocomplete status %s", payload.Status)
	}

	suggestions := make([]Suggestion, 0, len(payload.Predictions))
	for _, prediction := range payload.Predictions {
		suggestions = append(suggestions, Suggestion{
			Description: prediction.Description,
			PlaceID:     prediction.PlaceID,
		})
	}
	return suggestions, nil
}

// NearbyPlaces searches around a coordinate within radius meters,
// optionally restricted to a place type.
func (c *Client) NearbyPlaces(ctx context.Context, point Point, radiusMeters int, placeType string) ([]NearbyPlace, error) {
	params := url.Values{
		"location": []string{fmt.Sprintf("%f,%f", point.Latitude, point.Longitude)},
		"radius":   []string{strconv.Itoa(radiusMeters)},
	}
	if placeType != "" {
		params.Set("type", placeType)
	}

	var payload struct {
		Status  string `json:"status"`
		Results []struct {
			PlaceID  string   `json:"place_id"`
			Name     string   `json:"name"`
			Vicinity string   `json:"vicinity"`
			Rating   float64  `json:"rating"`
			Types    []string `json:"types"`
			Geometry struct {
				Location struct {
					Lat float64 `json:"lat"`
					Lng float64 `json:"lng"`
				} `json:"location"`
			} `json:"geometry"`
		} `json:"results"`
	}
	if err := c.call(ctx, "/place/nearbysearch/json", params, &payload); err != nil {
		return nil, err
	}
	if payload.Status != statusOK {
		if payload.Status == statusZeroResults {
			return nil, nil
		}
		return nil, fmt.Errorf("geo: nearby search status %s", payload.Status)
	}

	places := make([]NearbyPlace, 0, len(payload.Results))
	for _, result := range payload.Results {
		places = append(places, NearbyPlace{
			ID:      result.PlaceID,
			Name:    result.Name,
			Address: result.Vicinity,
			Location: Point{
				Latitude:  result.Geometry.Location.Lat,
				Longitude: result.Geometry.Location.Lng,
			},
			Rating: result.Rating,
			Types:  result.Types,
		})
	}
	return places, nil
}

func (c *Client) geocodeQuery(ctx context.Context, params url.Values) ([]GeocodeResult, error) {
	params.Set("region", c.region)

	var payload struct {
		Status  string `json:"status"`
		Results []struct {
			FormattedAddress string   `json:"formatted_address"`
			PlaceID          string   `json:"place_id"`
			Types            []string `json:"types"`
			Geometry         struct {
				Location struct {
					Lat float64 `json:"lat"`
					Lng float64 `json:"lng"`
				} `json:"location"`
			} `json:"geometry"`
		} `json:"results"`
	}
	if err := c.call(ctx, "/geocode/json", params, &payload); err != nil {
		return nil, err
	}
	if payload.Status != statusOK {
		if payload.Status == statusZeroResults {
			return nil, nil
		}
		return nil, fmt.Errorf("geo: geocode status %s", payload.Status)
	}

	results := make([]GeocodeResult, 0, len(payload.Results))
	for _, result := range payload.Results {
		results = append(results, GeocodeResult{
			Address: result.FormattedAddress,
			Location: Point{
				Latitude:  result.Geometry.Location.Lat,
				Longitude: result.Geometry.Location.Lng,
			},
			PlaceID: result.PlaceID,
			Types:   result.Types,
		})
	}
	return results, nil
}

func (c *Client) call(ctx context.Context, path string, params url.Values, out any) error {
	if c.apiKey == "" {
		return ErrNotConfigured
	}
	params.Set("key", c.apiKey)
	params.Set("language", c.language)

	endpoint := c.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("geo: build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("geo: %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("geo: %s: unexpected status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("geo: %s: decode response: %w", path, err)
	}
	return nil
}

func cacheKey(point Point) string {
	return fmt.Sprintf("%.6f,%.6f", point.Latitude, point.Longitude)
}
