package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"
)

// GeoSource describes one IP-geolocation endpoint. Providers disagree on the
// field that carries the city name, so each source lists the JSON fields to
// probe, in preference order.
type GeoSource struct {
	Name       string   `toml:"name"`
	URL        string   `toml:"url"`
	CityFields []string `toml:"city_fields"`
}

// Location contains settings for the concurrent geolocation race.
type Location struct {
	Sources               []GeoSource `toml:"sources"`
	SourceTimeoutSeconds  float64     `toml:"source_timeout_seconds"`
	OverallTimeoutSeconds float64     `toml:"overall_timeout_seconds"`
}

func (l Location) SourceTimeout() time.Duration {
	return secondsToDuration(l.SourceTimeoutSeconds)
}

func (l Location) OverallTimeout() time.Duration {
	return secondsToDuration(l.OverallTimeoutSeconds)
}

// Weather contains the weather provider endpoints, tried in fixed order.
type Weather struct {
	GeocodingURL   string  `toml:"geocoding_url"`
	ForecastURL    string  `toml:"forecast_url"`
	WttrURL        string  `toml:"wttr_url"`
	TimeoutSeconds float64 `toml:"timeout_seconds"`
	GeocodeLimit   int     `toml:"geocode_limit"`
}

func (w Weather) Timeout() time.Duration {
	return secondsToDuration(w.TimeoutSeconds)
}

// Transport contains settings shared by both fetch paths.
type Transport struct {
	UserAgent  string `toml:"user_agent"`
	CurlBinary string `toml:"curl_binary"`
	WttrAgent  string `toml:"wttr_agent"` // wttr.in only serves JSON to a curl-ish agent
}

// Proxy lists the environment variables suppressed for every external fetch
// process, plus the wildcard no-proxy assertion.
type Proxy struct {
	SuppressVars    []string `toml:"suppress_vars"`
	NoProxyWildcard bool     `toml:"no_proxy_wildcard"`
}

// Cache contains weather result caching configuration.
type Cache struct {
	FilePath   string `toml:"file_path"`
	TTLSeconds int    `toml:"ttl_seconds"`
}

func (c Cache) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// Logging contains logging configuration.
type Logging struct {
	Level string `toml:"level"` // debug, info, warn, error
}

// Config represents the complete application configuration.
type Config struct {
	Location  Location  `toml:"location"`
	Weather   Weather   `toml:"weather"`
	Transport Transport `toml:"transport"`
	Proxy     Proxy     `toml:"proxy"`
	Cache     Cache     `toml:"cache"`
	Logging   Logging   `toml:"logging"`
}

// Env holds the environment override surface. WEATHER_DEBUG follows the
// presence-is-truthy convention, so it is kept as a raw string.
type Env struct {
	City       string `env:"WEATHER_CITY"`
	Debug      string `env:"WEATHER_DEBUG"`
	ConfigPath string `env:"WEATHER_CONFIG"`
	CacheFile  string `env:"WEATHER_CACHE_FILE"`
}

func (e Env) DebugEnabled() bool {
	return strings.TrimSpace(e.Debug) != ""
}

// LoadEnv reads the environment override variables.
func LoadEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	return e, nil
}

// ConfigNotFoundError indicates an explicitly requested config file is missing.
type ConfigNotFoundError struct {
	Path string
}

func (e *ConfigNotFoundError) Error() string {
	return fmt.Sprintf("configuration file not found: %s", e.Path)
}

// Load reads and parses a TOML configuration file. An empty path means the
// default location; a missing file at the default location is not an error,
// the tool runs entirely on defaults.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if path == "" {
		path = DefaultConfigPath()
	}

	var config Config

	data, err := os.ReadFile(filepath.Clean(path))
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse TOML configuration: %w", err)
		}
	case os.IsNotExist(err):
		if explicit {
			return nil, &ConfigNotFoundError{Path: path}
		}
	default:
		return nil, fmt.Errorf("failed to read configuration file: %w", err)
	}

	config.ApplyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// DefaultConfigPath returns the per-user config file location.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Clean("config.toml")
	}
	return filepath.Join(home, ".config", "wxnow", "config.toml")
}

// DefaultCachePath returns the fixed well-known cache file location.
func DefaultCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Clean(".weather_cache.json")
	}
	return filepath.Join(home, ".weather_cache.json")
}

// ApplyDefaults fills in any unset fields with working values.
func (c *Config) ApplyDefaults() {
	if len(c.Location.Sources) == 0 {
		c.Location.Sources = []GeoSource{
			{
				Name:       "ipapi.co",
				URL:        "https://ipapi.co/json/",
				CityFields: []string{"city", "city_name"},
			},
			{
				Name:       "ip-api.com",
				URL:        "http://ip-api.com/json/",
				CityFields: []string{"city", "city_name"},
			},
		}
	}
	if c.Location.SourceTimeoutSeconds <= 0 {
		c.Location.SourceTimeoutSeconds = 2.0
	}
	if c.Location.OverallTimeoutSeconds <= 0 {
		c.Location.OverallTimeoutSeconds = 2.5
	}

	if c.Weather.GeocodingURL == "" {
		c.Weather.GeocodingURL = "https://geocoding-api.open-meteo.com/v1/search"
	}
	if c.Weather.ForecastURL == "" {
		c.Weather.ForecastURL = "https://api.open-meteo.com/v1/forecast"
	}
	if c.Weather.WttrURL == "" {
		c.Weather.WttrURL = "https://wttr.in"
	}
	if c.Weather.TimeoutSeconds <= 0 {
		c.Weather.TimeoutSeconds = 2.0
	}
	if c.Weather.GeocodeLimit <= 0 {
		c.Weather.GeocodeLimit = 5
	}

	if c.Transport.UserAgent == "" {
		c.Transport.UserAgent = "Mozilla/5.0"
	}
	if c.Transport.CurlBinary == "" {
		c.Transport.CurlBinary = "curl"
	}
	if c.Transport.WttrAgent == "" {
		c.Transport.WttrAgent = "curl"
	}

	if len(c.Proxy.SuppressVars) == 0 {
		c.Proxy.SuppressVars = []string{
			"http_proxy", "https_proxy", "HTTP_PROXY", "HTTPS_PROXY",
		}
		c.Proxy.NoProxyWildcard = true
	}

	if c.Cache.FilePath == "" {
		c.Cache.FilePath = DefaultCachePath()
	}
	if c.Cache.TTLSeconds <= 0 {
		c.Cache.TTLSeconds = 1800
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "warn"
	}
}

// Validate checks configuration consistency after defaults are applied.
func (c *Config) Validate() error {
	var errs []string

	for i, src := range c.Location.Sources {
		if src.URL == "" {
			errs = append(errs, fmt.Sprintf("location source %d has no URL", i))
		}
		if len(src.CityFields) == 0 {
			errs = append(errs, fmt.Sprintf("location source %d has no city fields", i))
		}
	}

	if c.Location.OverallTimeoutSeconds < c.Location.SourceTimeoutSeconds {
		errs = append(errs, "location overall timeout must not be shorter than the per-source timeout")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Sprintf("unknown log level '%s'", c.Logging.Level))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// GenerateSampleConfig writes a fully commented sample configuration file.
func GenerateSampleConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("refusing to overwrite existing file: %s", path)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	var defaults Config
	defaults.ApplyDefaults()

	data, err := toml.Marshal(defaults)
	if err != nil {
		return fmt.Errorf("failed to marshal sample config: %w", err)
	}

	header := "# wxnow configuration\n" +
		"# Every setting below shows its default; delete anything you do not\n" +
		"# want to override.\n\n"

	if err := os.WriteFile(path, append([]byte(header), data...), 0644); err != nil {
		return fmt.Errorf("failed to write sample config: %w", err)
	}
	return nil
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
