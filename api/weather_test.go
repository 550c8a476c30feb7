package api

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wxnow/internal/logger"
)

func testWeatherOptions() WeatherOptions {
	return WeatherOptions{
		GeocodingURL: "https://geocode.test/v1/search",
		ForecastURL:  "https://forecast.test/v1/forecast",
		WttrURL:      "https://wttr.test",
		Timeout:      2 * time.Second,
		GeocodeLimit: 5,
		WttrAgent:    "curl",
	}
}

const bostonGeocode = `{"results":[
	{"name":"Boston","latitude":42.36,"longitude":-71.06,"country_code":"US","country":"United States"}
]}`

func scriptedPrimary(geocode, forecast string) func(url string) ([]byte, error) {
	return func(url string) ([]byte, error) {
		switch {
		case strings.HasPrefix(url, "https://geocode.test/"):
			return []byte(geocode), nil
		case strings.HasPrefix(url, "https://forecast.test/"):
			return []byte(forecast), nil
		}
		return nil, errors.New("unexpected url: " + url)
	}
}

func TestWMOLabel(t *testing.T) {
	tests := []struct {
		code     int
		expected string
	}{
		{0, "Clear"},
		{2, "Partly cloudy"},
		{48, "Foggy"},
		{61, "Light rain"},
		{95, "Thunderstorm"},
		{999, "Unknown"},
		{-1, "Unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, WMOLabel(tt.code), "code %d", tt.code)
	}
}

func TestPickCandidate_PrefersUS(t *testing.T) {
	candidates := []GeocodeCandidate{
		{Name: "Berlin", CountryCode: "DE"},
		{Name: "Springfield", CountryCode: "US"},
		{Name: "Paris", CountryCode: "FR"},
	}

	assert.Equal(t, "Springfield", pickCandidate(candidates).Name)
}

func TestPickCandidate_MatchesCountryName(t *testing.T) {
	candidates := []GeocodeCandidate{
		{Name: "Berlin", Country: "Germany"},
		{Name: "Springfield", Country: "United States"},
	}

	assert.Equal(t, "Springfield", pickCandidate(candidates).Name)
}

func TestPickCandidate_FallsBackToFirst(t *testing.T) {
	candidates := []GeocodeCandidate{
		{Name: "Berlin", CountryCode: "DE"},
		{Name: "Paris", CountryCode: "FR"},
	}

	assert.Equal(t, "Berlin", pickCandidate(candidates).Name)
}

func TestWeatherResolver_PrimarySuccess(t *testing.T) {
	logger.UseTestMode()
	fetcher := &fakeFetcher{
		fetchFunc: scriptedPrimary(bostonGeocode,
			`{"current_weather":{"temperature":61.3,"weathercode":61}}`),
	}

	r := NewWeatherResolver(fetcher, testWeatherOptions())
	summary := r.Resolve(context.Background(), "Boston")

	assert.Equal(t, "61.3F, Light rain", summary)
	// Fallback must never be probed when the primary path succeeds.
	assert.Equal(t, 0, fetcher.commandCount())
}

func TestWeatherResolver_IntegerTemperatureKeepsProviderShape(t *testing.T) {
	logger.UseTestMode()
	fetcher := &fakeFetcher{
		fetchFunc: scriptedPrimary(bostonGeocode,
			`{"current_weather":{"temperature":70,"weathercode":0}}`),
	}

	r := NewWeatherResolver(fetcher, testWeatherOptions())
	assert.Equal(t, "70F, Clear", r.Resolve(context.Background(), "Boston"))
}

func TestWeatherResolver_GeocodeRequestShape(t *testing.T) {
	logger.UseTestMode()
	fetcher := &fakeFetcher{
		fetchFunc: scriptedPrimary(bostonGeocode,
			`{"current_weather":{"temperature":70,"weathercode":0}}`),
	}

	r := NewWeatherResolver(fetcher, testWeatherOptions())
	r.Resolve(context.Background(), "San Jose")

	require.GreaterOrEqual(t, fetcher.fetchCount(), 1)
	assert.Equal(t,
		"https://geocode.test/v1/search?name=San+Jose&count=5&language=en&format=json",
		fetcher.fetchURLs[0])
}

func TestWeatherResolver_NoGeocodingResultsFallsBack(t *testing.T) {
	logger.UseTestMode()
	fetcher := &fakeFetcher{
		fetchFunc: func(url string) ([]byte, error) {
			return []byte(`{"results":[]}`), nil
		},
		commandFunc: func(url, agent string) ([]byte, error) {
			return []byte(`{"current_condition":[{"temp_F":"72","weatherDesc":[{"value":"Sunny"}]}]}`), nil
		},
	}

	r := NewWeatherResolver(fetcher, testWeatherOptions())
	assert.Equal(t, "72F, Sunny", r.Resolve(context.Background(), "Boston"))
}

func TestWeatherResolver_MalformedForecastFallsBack(t *testing.T) {
	logger.UseTestMode()
	fetcher := &fakeFetcher{
		fetchFunc: scriptedPrimary(bostonGeocode, `{"hourly":{}}`),
		commandFunc: func(url, agent string) ([]byte, error) {
			return []byte(`{"current_condition":[{"temp_F":"68","weatherDesc":[{"value":"Overcast"}]}]}`), nil
		},
	}

	r := NewWeatherResolver(fetcher, testWeatherOptions())
	assert.Equal(t, "68F, Overcast", r.Resolve(context.Background(), "Boston"))
}

func TestWeatherResolver_WttrRequestShape(t *testing.T) {
	logger.UseTestMode()
	fetcher := &fakeFetcher{
		fetchFunc: func(url string) ([]byte, error) {
			return nil, errors.New("unreachable")
		},
		commandFunc: func(url, agent string) ([]byte, error) {
			return []byte(`{"current_condition":[{"temp_F":"50","weatherDesc":[{"value":"Mist"}]}]}`), nil
		},
	}

	r := NewWeatherResolver(fetcher, testWeatherOptions())
	r.Resolve(context.Background(), "San Jose")

	require.Equal(t, 1, fetcher.commandCount())
	assert.Equal(t, "https://wttr.test/San%20Jose?format=j1", fetcher.commandURLs[0])
}

func TestWeatherResolver_WttrMissingFieldsFails(t *testing.T) {
	logger.UseTestMode()
	fetcher := &fakeFetcher{
		fetchFunc: func(url string) ([]byte, error) {
			return nil, errors.New("unreachable")
		},
		commandFunc: func(url, agent string) ([]byte, error) {
			return []byte(`{"current_condition":[]}`), nil
		},
	}

	r := NewWeatherResolver(fetcher, testWeatherOptions())
	assert.Equal(t, WeatherUnavailable, r.Resolve(context.Background(), "Boston"))
}

func TestWeatherResolver_BothPathsFail(t *testing.T) {
	logger.UseTestMode()
	fetcher := &fakeFetcher{
		fetchFunc: func(url string) ([]byte, error) {
			return nil, errors.New("unreachable")
		},
		commandFunc: func(url, agent string) ([]byte, error) {
			return nil, errors.New("unreachable")
		},
	}

	r := NewWeatherResolver(fetcher, testWeatherOptions())
	assert.Equal(t, WeatherUnavailable, r.Resolve(context.Background(), "Boston"))
}
