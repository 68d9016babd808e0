package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGeocodeParsesBestRankedMatch(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/geocode/json", r.URL.Path)
		require.Equal(t, "Av. Paulista", r.URL.Query().Get("address"))
		require.Equal(t, "test-key", r.URL.Query().Get("key"))
		require.Equal(t, "pt-BR", r.URL.Query().Get("language"))
		w.Write([]byte(`{
			"status": "OK",
			"results": [
				{
					"formatted_address": "Av. Paulista, São Paulo - SP, Brasil",
					"place_id": "pid-1",
					"types": ["route"],
					"geometry": {"location": {"lat": -23.561414, "lng": -46.655881}}
				},
				{
					"formatted_address": "São Paulo - SP, Brasil",
					"place_id": "pid-2",
					"geometry": {"location": {"lat": -23.55, "lng": -46.63}}
				}
			]
		}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test-key", BaseURL: server.URL})
	result, err := client.Geocode(context.Background(), "Av. Paulista")
	require.NoError(t, err)
	require.Equal(t, "Av. Paulista, São Paulo - SP, Brasil", result.Address)
	require.Equal(t, "pid-1", result.PlaceID)
	require.InDelta(t, -23.561414, result.Location.Latitude, 1e-9)
	require.InDelta(t, -46.655881, result.Location.Longitude, 1e-9)
}

func TestGeocodeZeroResultsIsNoResultsNotError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "ZERO_RESULTS", "results": []}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test-key", BaseURL: server.URL})
	_, err := client.Geocode(context.Background(), "nowhere at all")
	require.ErrorIs(t, err, ErrNoResults)
}

func TestGeocodeWithoutAPIKeyFailsFast(t *testing.T) {
	t.Parallel()

	client := NewClient(Config{})
	_, err := client.Geocode(context.Background(), "anywhere")
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestReverseGeocodeReturnsRankedAddresses(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/geocode/json", r.URL.Path)
		require.NotEmpty(t, r.URL.Query().Get("latlng"))
		w.Write([]byte(`{
			"status": "OK",
			"results": [
				{"formatted_address": "Rua A, 1", "place_id": "r1", "geometry": {"location": {"lat": 1, "lng": 2}}},
				{"formatted_address": "Bairro B", "place_id": "r2", "geometry": {"location": {"lat": 1, "lng": 2}}}
			]
		}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test-key", BaseURL: server.URL})
	results, err := client.ReverseGeocode(context.Background(), Point{Latitude: 1, Longitude: 2})
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, "Rua A, 1", results[0].Address)
}

func TestFormattedAddressCachesBySameCoordinates(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{
			"status": "OK",
			"results": [{"formatted_address": "Praça C", "place_id": "c1", "geometry": {"location": {"lat": 3, "lng": 4}}}]
		}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test-key", BaseURL: server.URL})
	point := Point{Latitude: 3.0000001, Longitude: 4.0000001}

	for i := 0; i < 3; i++ {
		address, err := client.FormattedAddress(context.Background(), point)
		require.NoError(t, err)
		require.Equal(t, "Praça C", address)
	}
	require.Equal(t, int64(1), calls.Load())
}

func TestAutocompleteForwardsSessionTokenAndRegion(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/place/autocomplete/json", r.URL.Path)
		require.Equal(t, "tok-1", r.URL.Query().Get("sessiontoken"))
		require.Equal(t, "country:BR", r.URL.Query().Get("components"))
		w.Write([]byte(`{
			"status": "OK",
			"predictions": [
				{"description": "Avenida Brasil", "place_id": "a1"},
				{"description": "Avenida Atlântica", "place_id": "a2"}
			]
		}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test-key", BaseURL: server.URL})
	suggestions, err := client.Autocomplete(context.Background(), "Avenida", "tok-1")
	require.NoError(t, err)
	require.Len(t, suggestions, 2)
	require.Equal(t, "Avenida Brasil", suggestions[0].Description)
	require.Equal(t, "a2", suggestions[1].PlaceID)
}

func TestNearbyPlacesParsesResults(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/place/nearbysearch/json", r.URL.Path)
		require.Equal(t, "500", r.URL.Query().Get("radius"))
		require.Equal(t, "park", r.URL.Query().Get("type"))
		w.Write([]byte(`{
			"status": "OK",
			"results": [{
				"place_id": "n1",
				"name": "Parque Ibirapuera",
				"vicinity": "Av. Pedro Álvares Cabral",
				"rating": 4.8,
				"types": ["park"],
				"geometry": {"location": {"lat": -23.5874, "lng": -46.6576}}
			}]
		}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test-key", BaseURL: server.URL})
	places, err := client.NearbyPlaces(context.Background(), Point{Latitude: -23.58, Longitude: -46.65}, 500, "park")
	require.NoError(t, err)
	require.Len(t, places, 1)
	require.Equal(t, "Parque Ibirapuera", places[0].Name)
	require.InDelta(t, 4.8, places[0].Rating, 1e-9)
}

func TestCallRejectsNon200Responses(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test-key", BaseURL: server.URL})
	_, err := client.Geocode(context.Background(), "anywhere")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unexpected status 403")
}

func TestAddressCacheExpiresEntries(t *testing.T) {
	t.Parallel()

	cache := newAddressCache(time.Minute, 10)
	current := time.Now()
	cache.now = func() time.Time { return current }

	cache.put("k", "Rua X")
	value, ok := cache.get("k")
	require.True(t, ok)
	require.Equal(t, "Rua X", value)

	current = current.Add(2 * time.Minute)
	_, ok = cache.get("k")
	require.False(t, ok)
}

func TestAddressCacheBoundsSize(t *testing.T) {
	t.Parallel()

	cache := newAddressCache(time.Hour, 3)
	current := time.Now()
	cache.now = func() time.Time { return current }

	for _, key := range []string{"a", "b", "c", "d"} {
		cache.put(key, "addr-"+key)
		current = current.Add(time.Second)
	}

	require.Equal(t, 3, cache.len())
	// "a" had the earliest expiry and is the one evicted.
	_, ok := cache.get("a")
	require.False(t, ok)
	_, ok = cache.get("d")
	require.True(t, ok)
}
