package geo

import "errors"

var (
	ErrNotConfigured = errors.New("geo: api key not configured")
	ErrNoResults     = errors.New("geo: no results")
)

// Point is a latitude/longitude pair in floating-point degrees.
type Point struct {
	Latitude  float64
	Longitude float64
}

// GeocodeResult is one ranked match for a forward or reverse geocode.
type GeocodeResult struct {
	Address  string
	Location Point
	PlaceID  string
	Types    []string
}

// Suggestion is one autocomplete candidate for a partial address.
type Suggestion struct {
	Description string
	PlaceID     string
}

// NearbyPlace is one result of a nearby search around a coordinate.
type NearbyPlace struct {
	ID       string
	Name     string
	Address  string
	Location Point
	Rating   float64
	Types    []string
}
