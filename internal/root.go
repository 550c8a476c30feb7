package internal

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"wxnow/api"
	"wxnow/config"
	"wxnow/internal/logger"
	"wxnow/internal/report"
	"wxnow/internal/runner"
)

func NewRootCmd() *cobra.Command {
	var (
		configPath     string
		debug          bool
		generateConfig bool
	)

	cmd := &cobra.Command{
		Use:   "wxnow [city ...]",
		Short: "Current weather for wherever you are",
		Long: `Wxnow prints the current weather for your location without asking for
coordinates. Location comes from IP geolocation, weather from multiple
providers with failover, and results are cached briefly to keep repeated
invocations fast.

Pass a city name to skip location detection, or set WEATHER_CITY.`,
		Example: `  wxnow
  wxnow San Francisco
  WEATHER_CITY=Boston wxnow`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			envCfg, err := config.LoadEnv()
			if err != nil {
				return err
			}

			if generateConfig {
				path := configPath
				if path == "" {
					path = config.DefaultConfigPath()
				}
				if err := config.GenerateSampleConfig(path); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Sample configuration written to %s\n", path)
				return nil
			}

			if configPath == "" {
				configPath = envCfg.ConfigPath
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if envCfg.CacheFile != "" {
				cfg.Cache.FilePath = envCfg.CacheFile
			}

			level := cfg.Logging.Level
			if debug || envCfg.DebugEnabled() {
				level = "debug"
			}
			logger.SetLevel(level)

			override := strings.TrimSpace(strings.Join(args, " "))
			if override == "" {
				override = strings.TrimSpace(envCfg.City)
			}

			line := buildReporter(cfg).Run(cmd.Context(), override)
			fmt.Fprintln(cmd.OutOrStdout(), line)
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to TOML configuration file")
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable per-source diagnostic traces on stderr")
	cmd.Flags().BoolVar(&generateConfig, "generate-config", false, "Write a sample configuration file and exit")

	return cmd
}

// buildReporter wires the resolution pipeline from configuration.
func buildReporter(cfg *config.Config) *report.Reporter {
	client := api.NewClient(api.ClientOptions{
		UserAgent:  cfg.Transport.UserAgent,
		CurlBinary: cfg.Transport.CurlBinary,
		Proxy: api.ProxyPolicy{
			SuppressVars:    cfg.Proxy.SuppressVars,
			NoProxyWildcard: cfg.Proxy.NoProxyWildcard,
		},
	}, runner.ExecRunner{}, os.Environ)

	sources := make([]api.LocationSource, 0, len(cfg.Location.Sources))
	for _, src := range cfg.Location.Sources {
		sources = append(sources, api.LocationSource{
			Name:       src.Name,
			URL:        src.URL,
			CityFields: src.CityFields,
		})
	}

	location := api.NewLocationResolver(client, sources,
		cfg.Location.SourceTimeout(), cfg.Location.OverallTimeout())

	weather := api.NewWeatherResolver(client, api.WeatherOptions{
		GeocodingURL: cfg.Weather.GeocodingURL,
		ForecastURL:  cfg.Weather.ForecastURL,
		WttrURL:      cfg.Weather.WttrURL,
		Timeout:      cfg.Weather.Timeout(),
		GeocodeLimit: cfg.Weather.GeocodeLimit,
		WttrAgent:    cfg.Transport.WttrAgent,
	})

	cache := api.NewCacheStore(cfg.Cache.FilePath, cfg.Cache.TTL())

	return report.New(cache, location, weather)
}

func Execute() error {
	return NewRootCmd().Execute()
}
