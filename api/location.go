package api

import (
	"context"
	"time"

	"github.com/tidwall/gjson"

	"wxnow/internal/logger"
)

// LocationSource is one IP-geolocation endpoint together with the JSON
// fields that may carry the city name. Field-name knowledge stays here; the
// race logic never inspects provider payloads itself.
type LocationSource struct {
	Name       string
	URL        string
	CityFields []string
}

// LocationResolver detects the current city by racing every configured
// geolocation source and taking the first usable answer.
type LocationResolver struct {
	fetcher        Fetcher
	sources        []LocationSource
	sourceTimeout  time.Duration
	overallTimeout time.Duration
}

func NewLocationResolver(f Fetcher, sources []LocationSource, sourceTimeout, overallTimeout time.Duration) *LocationResolver {
	return &LocationResolver{
		fetcher:        f,
		sources:        sources,
		sourceTimeout:  sourceTimeout,
		overallTimeout: overallTimeout,
	}
}

// Resolve queries all sources concurrently and returns the first non-empty
// city name, or "" when every source fails or the overall deadline elapses.
// Losing requests are abandoned, not cancelled; the buffered channel lets
// them finish in the background with their results discarded.
func (r *LocationResolver) Resolve(ctx context.Context) string {
	if len(r.sources) == 0 {
		return ""
	}

	results := make(chan string, len(r.sources))
	for _, src := range r.sources {
		go func(src LocationSource) {
			results <- r.query(ctx, src)
		}(src)
	}

	deadline := time.NewTimer(r.overallTimeout)
	defer deadline.Stop()

	for pending := len(r.sources); pending > 0; pending-- {
		select {
		case city := <-results:
			if city != "" {
				logger.Debug("location detected: %s", city)
				return city
			}
		case <-deadline.C:
			logger.Warn("location detection timed out")
			return ""
		case <-ctx.Done():
			return ""
		}
	}

	logger.Warn("failed to detect location from all sources")
	return ""
}

// query fetches one source and extracts the city under the source's field
// names, first non-empty wins. All failures collapse to "".
func (r *LocationResolver) query(ctx context.Context, src LocationSource) string {
	body, err := r.fetcher.Fetch(ctx, src.URL, r.sourceTimeout)
	if err != nil {
		logger.Debug("location source %s failed: %v", src.Name, err)
		return ""
	}

	for _, field := range src.CityFields {
		if city := gjson.GetBytes(body, field).String(); city != "" {
			return city
		}
	}

	logger.Debug("location source %s returned no city field", src.Name)
	return ""
}
