package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/tidwall/gjson"

	"wxnow/internal/logger"
)

// WeatherUnavailable is the sentinel returned when every weather source has
// been exhausted. It is user-visible and must never be written to the cache.
const WeatherUnavailable = "unavailable"

// wmoConditions maps WMO weather interpretation codes to condition labels.
// Reference: https://open-meteo.com/en/docs
var wmoConditions = map[int]string{
	0:  "Clear",
	1:  "Mainly clear",
	2:  "Partly cloudy",
	3:  "Overcast",
	45: "Foggy",
	48: "Foggy",
	51: "Light drizzle",
	53: "Drizzle",
	55: "Heavy drizzle",
	61: "Light rain",
	63: "Rain",
	65: "Heavy rain",
	71: "Light snow",
	73: "Snow",
	75: "Heavy snow",
	95: "Thunderstorm",
}

// WMOLabel returns the condition label for a WMO code, "Unknown" for codes
// outside the table.
func WMOLabel(code int) string {
	if label, ok := wmoConditions[code]; ok {
		return label
	}
	return "Unknown"
}

// GeocodeCandidate is one match returned by the geocoding lookup.
type GeocodeCandidate struct {
	Name        string   `json:"name"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	CountryCode string   `json:"country_code"`
	Country     string   `json:"country"`
	Admin1      string   `json:"admin1,omitempty"`
}

type geocodingResponse struct {
	Results []GeocodeCandidate `json:"results"`
}

type forecastResponse struct {
	CurrentWeather *struct {
		Temperature *float64 `json:"temperature"`
		WeatherCode *int     `json:"weathercode"`
	} `json:"current_weather"`
}

// WeatherOptions configures the ordered weather failover chain.
type WeatherOptions struct {
	GeocodingURL string
	ForecastURL  string
	WttrURL      string
	Timeout      time.Duration
	GeocodeLimit int
	WttrAgent    string
}

// WeatherResolver turns a city name into a "{temperature}F, {description}"
// summary. Sources are tried strictly in order: the coordinate-based
// provider gives a live numeric observation so it wins over the coarser
// free-text provider, which stays as a safety net for ambiguous city names.
type WeatherResolver struct {
	fetcher Fetcher
	opts    WeatherOptions
}

func NewWeatherResolver(f Fetcher, opts WeatherOptions) *WeatherResolver {
	return &WeatherResolver{
		fetcher: f,
		opts:    opts,
	}
}

// Resolve returns the weather summary for city, or WeatherUnavailable when
// both sources fail. No error escapes: partial failures surface only on the
// debug stream.
func (r *WeatherResolver) Resolve(ctx context.Context, city string) string {
	if summary, ok := r.fetchOpenMeteo(ctx, city); ok {
		return summary
	}
	if summary, ok := r.fetchWttr(ctx, city); ok {
		return summary
	}

	logger.Warn("all weather sources failed for city: %s", city)
	return WeatherUnavailable
}

// fetchOpenMeteo is the primary path: geocode the city, pick a candidate,
// then request the current forecast for its coordinates.
func (r *WeatherResolver) fetchOpenMeteo(ctx context.Context, city string) (string, bool) {
	geoURL := fmt.Sprintf("%s?name=%s&count=%d&language=en&format=json",
		r.opts.GeocodingURL, url.QueryEscape(city), r.opts.GeocodeLimit)

	body, err := r.fetcher.Fetch(ctx, geoURL, r.opts.Timeout)
	if err != nil {
		logger.Debug("open-meteo geocoding failed: %v", err)
		return "", false
	}

	var geo geocodingResponse
	if err := json.Unmarshal(body, &geo); err != nil {
		logger.Debug("open-meteo geocoding parse error: %v", err)
		return "", false
	}
	if len(geo.Results) == 0 {
		logger.Debug("open-meteo: no geocoding results found")
		return "", false
	}

	candidate := pickCandidate(geo.Results)
	if candidate.Latitude == nil || candidate.Longitude == nil {
		logger.Debug("open-meteo: candidate %s has no coordinates", candidate.Name)
		return "", false
	}

	logger.Debug("open-meteo location: %s, %s, %s (%s, %s)",
		candidate.Name, candidate.Admin1, candidate.Country,
		formatCoord(*candidate.Latitude), formatCoord(*candidate.Longitude))

	forecastURL := fmt.Sprintf("%s?latitude=%s&longitude=%s&current_weather=true&temperature_unit=fahrenheit",
		r.opts.ForecastURL, formatCoord(*candidate.Latitude), formatCoord(*candidate.Longitude))

	body, err = r.fetcher.Fetch(ctx, forecastURL, r.opts.Timeout)
	if err != nil {
		logger.Debug("open-meteo forecast failed: %v", err)
		return "", false
	}

	var forecast forecastResponse
	if err := json.Unmarshal(body, &forecast); err != nil {
		logger.Debug("open-meteo forecast parse error: %v", err)
		return "", false
	}
	cw := forecast.CurrentWeather
	if cw == nil || cw.Temperature == nil || cw.WeatherCode == nil {
		logger.Debug("open-meteo: no current weather data returned")
		return "", false
	}

	desc := WMOLabel(*cw.WeatherCode)
	logger.Debug("open-meteo: %sF, %s (WMO code: %d)", formatTemp(*cw.Temperature), desc, *cw.WeatherCode)
	return fmt.Sprintf("%sF, %s", formatTemp(*cw.Temperature), desc), true
}

// pickCandidate scans candidates in provider order and takes the first US
// match, falling back to the first candidate overall. Order-preserving by
// intent: this is a preference rule, not a best-match search.
func pickCandidate(results []GeocodeCandidate) GeocodeCandidate {
	for _, candidate := range results {
		if candidate.CountryCode == "US" || candidate.Country == "United States" {
			return candidate
		}
	}
	return results[0]
}

// fetchWttr is the fallback path: one free-text request, external command
// transport only. wttr.in sits behind CDN rules that reject plain library
// clients, so the curl path is the one that works.
func (r *WeatherResolver) fetchWttr(ctx context.Context, city string) (string, bool) {
	wttrURL := fmt.Sprintf("%s/%s?format=j1", r.opts.WttrURL, url.PathEscape(city))

	body, err := r.fetcher.FetchCommand(ctx, wttrURL, r.opts.Timeout, r.opts.WttrAgent)
	if err != nil {
		logger.Debug("wttr.in error: %v", err)
		return "", false
	}

	// current_condition carries actual observation data, not forecast.
	temp := gjson.GetBytes(body, "current_condition.0.temp_F")
	desc := gjson.GetBytes(body, "current_condition.0.weatherDesc.0.value")
	if !temp.Exists() || desc.String() == "" {
		logger.Debug("wttr.in: response missing observation fields")
		return "", false
	}

	logger.Debug("wttr.in: %sF, %s", temp.String(), desc.String())
	return fmt.Sprintf("%sF, %s", temp.String(), desc.String()), true
}

// formatTemp renders a provider temperature with no artificial precision,
// matching whatever the provider sent.
func formatTemp(t float64) string {
	return strconv.FormatFloat(t, 'f', -1, 64)
}

func formatCoord(c float64) string {
	return strconv.FormatFloat(c, 'f', -1, 64)
}
