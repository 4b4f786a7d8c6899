package station

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/mmcloughlin/geohash"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/copbot/locator/internal/models"
	"github.com/copbot/locator/pkg/http/client"
)

const (
	DefaultRadiusMeters = 5000
	interpreterPath     = "/api/interpreter"
	queryTimeoutSeconds = 25

	// Bounds a shared query once it no longer follows a caller's context.
	defaultQueryTimeout = (queryTimeoutSeconds + 5) * time.Second

	// Precision 8 cells are roughly 38m x 19m, so only requests for
	// effectively the same spot are collapsed.
	geohashPrecision = 8
)

type FinderFactory interface {
	NewFinder(httpClient client.Interface, opts ...Option) *OverpassFinder
}

type DefaultFinderFactory struct{}

func (f *DefaultFinderFactory) NewFinder(httpClient client.Interface, opts ...Option) *OverpassFinder {
	return NewOverpassFinder(httpClient, opts...)
}

// OverpassFinder looks up police stations around a coordinate in the
// OpenStreetMap Overpass API.
type OverpassFinder struct {
	httpClient   client.Interface
	limiter      *rate.Limiter
	phoneRegion  string
	queryTimeout time.Duration
	inflight     singleflight.Group
}

var _ models.StationFinder = (*OverpassFinder)(nil)

type Option func(*OverpassFinder)

// WithRateLimit paces outgoing queries. A zero limit disables pacing.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(f *OverpassFinder) {
		if limit <= 0 {
			f.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		f.limiter = rate.NewLimiter(limit, burst)
	}
}

// WithPhoneRegion sets the region used to interpret national phone numbers.
func WithPhoneRegion(region string) Option {
	return func(f *OverpassFinder) {
		if region != "" {
			f.phoneRegion = region
		}
	}
}

// WithQueryTimeout bounds a single directory query, including the wait
// for the rate limiter.
func WithQueryTimeout(timeout time.Duration) Option {
	return func(f *OverpassFinder) {
		if timeout > 0 {
			f.queryTimeout = timeout
		}
	}
}

func NewOverpassFinder(httpClient client.Interface, opts ...Option) *OverpassFinder {
	f := &OverpassFinder{
		httpClient:   httpClient,
		limiter:      rate.NewLimiter(rate.Limit(1), 2),
		phoneRegion:  defaultPhoneRegion,
		queryTimeout: defaultQueryTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FindNearbyStations returns the police stations within radiusMeters of
// center. Directory failures yield an empty slice and a nil error; only an
// invalid center is reported as an error.
func (f *OverpassFinder) FindNearbyStations(ctx context.Context, center models.GeoCoordinate, radiusMeters int) ([]models.StationRecord, error) {
	if err := center.Validate(); err != nil {
		return nil, fmt.Errorf("finding nearby stations: %w", err)
	}
	if radiusMeters <= 0 {
		radiusMeters = DefaultRadiusMeters
	}

	key := fmt.Sprintf("%s:%d", geohash.EncodeWithPrecision(center.Latitude, center.Longitude, geohashPrecision), radiusMeters)
	// The shared query must outlive any single caller; each caller only
	// stops waiting when its own context ends.
	ch := f.inflight.DoChan(key, func() (interface{}, error) {
		queryCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.queryTimeout)
		defer cancel()
		return f.fetch(queryCtx, center, radiusMeters), nil
	})

	select {
	case <-ctx.Done():
		log.Debug().Err(ctx.Err()).Str("key", key).Msg("Stopped waiting for directory query")
		return []models.StationRecord{}, nil
	case res := <-ch:
		stations := res.Val.([]models.StationRecord)
		if res.Shared {
			log.Debug().Str("key", key).Msg("Shared in-flight directory query")
			out := make([]models.StationRecord, len(stations))
			copy(out, stations)
			return out, nil
		}
		return stations, nil
	}
}

func (f *OverpassFinder) fetch(ctx context.Context, center models.GeoCoordinate, radiusMeters int) []models.StationRecord {
	stations, err := f.query(ctx, center, radiusMeters)
	if err != nil {
		log.Error().
			Err(err).
			Str("center", center.String()).
			Int("radius", radiusMeters).
			Msg("Directory query failed, returning no stations")
		return []models.StationRecord{}
	}

	log.Debug().
		Str("center", center.String()).
		Int("radius", radiusMeters).
		Int("station_count", len(stations)).
		Msg("Directory query complete")
	return stations
}

func (f *OverpassFinder) query(ctx context.Context, center models.GeoCoordinate, radiusMeters int) ([]models.StationRecord, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, NewDirectoryError("waiting for rate limiter", 0, err)
		}
	}

	form := url.Values{}
	form.Set("data", BuildQuery(center, radiusMeters))

	resp, err := f.httpClient.PostForm(ctx, interpreterPath, form)
	if err != nil {
		return nil, NewDirectoryError("fetching stations", 0, err)
	}
	if resp == nil {
		return nil, NewDirectoryError("no response from directory", 0, nil)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, NewDirectoryError("unexpected status", resp.StatusCode, nil)
	}

	var decoded overpassResponse
	if err := json.Unmarshal(resp.Body, &decoded); err != nil {
		return nil, NewDirectoryError("decoding response", 0, err)
	}

	return f.normalize(decoded.Elements), nil
}

// BuildQuery renders the Overpass QL query for police features around center.
func BuildQuery(center models.GeoCoordinate, radiusMeters int) string {
	around := fmt.Sprintf("(around:%d,%.6f,%.6f)", radiusMeters, center.Latitude, center.Longitude)
	return fmt.Sprintf(
		`[out:json][timeout:%d];(node["amenity"="police"]%s;way["amenity"="police"]%s;relation["amenity"="police"]%s;);out center tags;`,
		queryTimeoutSeconds, around, around, around,
	)
}
