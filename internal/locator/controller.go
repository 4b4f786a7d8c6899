package locator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/copbot/locator/internal/models"
	"github.com/copbot/locator/internal/selection"
	"github.com/copbot/locator/internal/station"
)

var ErrClosed = errors.New("locator closed")

type Status string

const (
	StatusLocating   Status = "locating"
	StatusLoading    Status = "loading"
	StatusReady      Status = "ready"
	StatusNoStations Status = "no_stations"
	StatusClosed     Status = "closed"
)

type LocationAcquirer interface {
	Acquire(ctx context.Context) models.UserLocationState
}

// Controller drives one locator view: it acquires a reference coordinate,
// fetches and ranks nearby stations, applies the search query and tracks
// the selected station. All derived state is recomputed under mu whenever
// an input changes; I/O runs without the lock held.
type Controller struct {
	acquirer LocationAcquirer
	finder   models.StationFinder

	mu         sync.Mutex
	radius     int
	location   models.UserLocationState
	stations   []models.RankedStation
	displayed  []models.RankedStation
	query      string
	camera     *selection.Synchronizer
	status     Status
	generation uint64
	closed     bool
}

type Option func(*Controller)

func WithRadius(meters int) Option {
	return func(c *Controller) {
		if meters > 0 {
			c.radius = meters
		}
	}
}

func New(acquirer LocationAcquirer, finder models.StationFinder, opts ...Option) *Controller {
	c := &Controller{
		acquirer:  acquirer,
		finder:    finder,
		radius:    station.DefaultRadiusMeters,
		location:  models.PendingLocation(),
		stations:  []models.RankedStation{},
		displayed: []models.RankedStation{},
		status:    StatusLocating,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.camera = selection.NewSynchronizer(models.GeoCoordinate{})
	return c
}

// Locate acquires the user's position and then queries the directory
// against it. A newer Locate, Relocate or Refresh supersedes this one.
func (c *Controller) Locate(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.generation++
	gen := c.generation
	c.location = models.PendingLocation()
	c.status = StatusLocating
	c.mu.Unlock()

	state := c.acquirer.Acquire(ctx)

	c.mu.Lock()
	if !c.current(gen) {
		err := c.closedErr()
		c.mu.Unlock()
		return err
	}
	c.location = state
	c.beginFetch(state.Coordinate)
	c.mu.Unlock()

	return c.fetch(ctx, gen, state.Coordinate)
}

// Relocate replaces the reference coordinate with one reported by the
// client and fetches stations around it.
func (c *Controller) Relocate(ctx context.Context, coord models.GeoCoordinate) error {
	if err := coord.Validate(); err != nil {
		return fmt.Errorf("relocating: %w", err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.generation++
	gen := c.generation
	c.location = models.ResolvedLocation(coord, models.SourceClient)
	c.beginFetch(coord)
	c.mu.Unlock()

	return c.fetch(ctx, gen, coord)
}

// Refresh issues a new directory query against the current reference
// coordinate, locating first if no coordinate is known yet.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.location.IsPending() {
		c.mu.Unlock()
		return c.Locate(ctx)
	}
	c.generation++
	gen := c.generation
	coord := c.location.Coordinate
	c.beginFetch(coord)
	c.mu.Unlock()

	return c.fetch(ctx, gen, coord)
}

// SetRadius changes the search radius used by later queries and reports
// whether it changed.
func (c *Controller) SetRadius(meters int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if meters <= 0 || meters == c.radius {
		return false
	}
	c.radius = meters
	return true
}

func (c *Controller) SetQuery(query string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.query = query
	c.displayed = station.Filter(c.stations, query)
}

// Select marks a station as selected. Unknown ids are ignored.
func (c *Controller) Select(id models.StationID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	ok := c.camera.Select(id)
	if !ok {
		log.Debug().Str("station_id", string(id)).Msg("Ignoring selection of unknown station")
	}
	return ok
}

func (c *Controller) ClearSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.camera.ClearSelection()
}

// Close tears the view down. Results that arrive afterwards are dropped.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	c.status = StatusClosed
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		Location:     c.location,
		Status:       c.status,
		Query:        c.query,
		RadiusMeters: c.radius,
		Stations:     append([]models.RankedStation{}, c.stations...),
		Displayed:    append([]models.RankedStation{}, c.displayed...),
	}
	// No camera target until a reference coordinate exists.
	if !c.location.IsPending() {
		viewport := c.camera.Viewport()
		snap.Viewport = &viewport
	}
	if id, ok := c.camera.Selected(); ok {
		snap.SelectedID = &id
	}
	if c.location.Kind == models.LocationFallback {
		snap.Warning = fmt.Sprintf("Location unavailable (%s), showing stations near the default location", c.location.Reason)
	}
	snap.Markers = buildMarkers(snap)
	return snap
}

// beginFetch resets list-derived state for a new query. Callers hold mu.
func (c *Controller) beginFetch(reference models.GeoCoordinate) {
	c.status = StatusLoading
	c.applyStations(reference, []models.RankedStation{})
}

func (c *Controller) applyStations(reference models.GeoCoordinate, ranked []models.RankedStation) {
	c.stations = ranked
	c.displayed = station.Filter(ranked, c.query)
	c.camera.SetStations(reference, ranked)
}

func (c *Controller) fetch(ctx context.Context, gen uint64, reference models.GeoCoordinate) error {
	c.mu.Lock()
	radius := c.radius
	c.mu.Unlock()

	records, err := c.finder.FindNearbyStations(ctx, reference, radius)
	if err != nil {
		log.Error().Err(err).Str("reference", reference.String()).Msg("Station lookup failed")
		records = nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.current(gen) {
		log.Debug().Uint64("generation", gen).Msg("Discarding stale station result")
		return c.closedErr()
	}

	c.applyStations(reference, station.Rank(records, reference))
	if len(c.stations) == 0 {
		c.status = StatusNoStations
	} else {
		c.status = StatusReady
	}
	return nil
}

// current reports whether gen is still the latest request. Callers hold mu.
func (c *Controller) current(gen uint64) bool {
	return !c.closed && gen == c.generation
}

func (c *Controller) closedErr() error {
	if c.closed {
		return ErrClosed
	}
	return nil
}
