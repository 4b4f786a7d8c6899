package handler

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/copbot/locator/internal/cache"
	"github.com/copbot/locator/internal/config"
	"github.com/copbot/locator/internal/station"
	"github.com/copbot/locator/pkg/http/client"
)

// BuildStationsHandler wires the directory and IP lookup clients, the
// station finder and the optional session registry from configuration.
func BuildStationsHandler(cfg *config.Config, sessionCfg *config.SessionCacheConfig, finderFactory station.FinderFactory) (*StationsHandler, error) {
	if finderFactory == nil {
		finderFactory = &station.DefaultFinderFactory{}
	}

	directoryClient := client.New(client.Options{
		BaseURL:    cfg.OverpassBaseURL,
		Timeout:    cfg.HTTPTimeout,
		MaxRetries: cfg.MaxRetries,
		UserAgent:  cfg.UserAgent,
	})
	finder := finderFactory.NewFinder(directoryClient,
		station.WithRateLimit(rate.Limit(cfg.DirectoryRateLimit), cfg.DirectoryBurst),
		station.WithPhoneRegion(cfg.PhoneRegion),
		station.WithQueryTimeout(cfg.HTTPTimeout*time.Duration(cfg.MaxRetries+1)),
	)

	var ipLookup client.Interface
	if cfg.IPLookupBaseURL != "" {
		ipLookup = client.New(client.Options{
			BaseURL:   cfg.IPLookupBaseURL,
			Timeout:   cfg.LocationTimeout,
			UserAgent: cfg.UserAgent,
		})
	}

	var sessions *cache.SessionCache
	if sessionCfg != nil && sessionCfg.EnableSessions {
		var err error
		sessions, err = cache.NewSessionCache(sessionCfg)
		if err != nil {
			return nil, fmt.Errorf("creating session cache: %w", err)
		}
	}

	log.Info().
		Str("directory", cfg.OverpassBaseURL).
		Bool("ipLookup", ipLookup != nil).
		Bool("sessions", sessions != nil).
		Int("radius", cfg.SearchRadiusMeters).
		Msg("Stations handler configured")

	return NewStationsHandler(Options{
		Finder:          finder,
		IPLookup:        ipLookup,
		Fallback:        cfg.FallbackLocation,
		LocationTimeout: cfg.LocationTimeout,
		DefaultRadius:   cfg.SearchRadiusMeters,
		MaxRadius:       cfg.MaxRadiusMeters,
		Sessions:        sessions,
	}), nil
}
