package report

import (
	"context"
	"fmt"

	"wxnow/api"
	"wxnow/internal/logger"
)

const (
	resultLine          = "You are in %s. The current weather is %s."
	unknownLocationLine = "You are in an unknown location. Weather is unavailable."
)

// LocationResolver yields a city name, or "" when detection fails.
type LocationResolver interface {
	Resolve(ctx context.Context) string
}

// WeatherResolver yields a weather summary, or api.WeatherUnavailable.
type WeatherResolver interface {
	Resolve(ctx context.Context, city string) string
}

// CacheStore is the persisted (city, weather) pair with freshness checking.
type CacheStore interface {
	Read() (*api.CacheEntry, bool)
	Write(city, weather string) error
}

// Reporter runs one resolution pass: cache, then location, then weather.
// There are no retries at this level; each collaborator already owns its
// fallback behavior.
type Reporter struct {
	cache    CacheStore
	location LocationResolver
	weather  WeatherResolver
}

func New(cache CacheStore, location LocationResolver, weather WeatherResolver) *Reporter {
	return &Reporter{
		cache:    cache,
		location: location,
		weather:  weather,
	}
}

// Run produces the single output line. With a manual override the cache is
// bypassed entirely, both for lookup and for the write-back.
func (r *Reporter) Run(ctx context.Context, override string) string {
	if override == "" {
		if entry, ok := r.cache.Read(); ok {
			return fmt.Sprintf(resultLine, entry.City, entry.Weather)
		}
	}

	city := override
	if city == "" {
		city = r.location.Resolve(ctx)
	}
	if city == "" {
		return unknownLocationLine
	}

	weather := r.weather.Resolve(ctx, city)

	if override == "" && weather != api.WeatherUnavailable {
		if err := r.cache.Write(city, weather); err != nil {
			logger.Warn("failed to save cache: %v", err)
		}
	}

	return fmt.Sprintf(resultLine, city, weather)
}
