package locator

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copbot/locator/internal/location"
	"github.com/copbot/locator/internal/models"
)

var (
	chennai = models.GeoCoordinate{Latitude: 13.0827, Longitude: 80.2707}
	adyar   = models.GeoCoordinate{Latitude: 13.0067, Longitude: 80.2573}
)

type mockStationFinder struct {
	mu      sync.Mutex
	calls   []models.GeoCoordinate
	radii   []int
	findFn  func(ctx context.Context, center models.GeoCoordinate, radius int) ([]models.StationRecord, error)
	results []models.StationRecord
}

func (m *mockStationFinder) FindNearbyStations(ctx context.Context, center models.GeoCoordinate, radius int) ([]models.StationRecord, error) {
	m.mu.Lock()
	m.calls = append(m.calls, center)
	m.radii = append(m.radii, radius)
	m.mu.Unlock()

	if m.findFn != nil {
		return m.findFn(ctx, center, radius)
	}
	return m.results, nil
}

func (m *mockStationFinder) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

type acquirerFunc func(ctx context.Context) models.UserLocationState

func (f acquirerFunc) Acquire(ctx context.Context) models.UserLocationState {
	return f(ctx)
}

func resolvedAt(coord models.GeoCoordinate) acquirerFunc {
	return func(ctx context.Context) models.UserLocationState {
		return models.ResolvedLocation(coord, models.SourceClient)
	}
}

func rec(id, name, address string, lat, lon float64) models.StationRecord {
	return models.StationRecord{
		ID:         models.StationID(id),
		Name:       name,
		Address:    address,
		Coordinate: models.GeoCoordinate{Latitude: lat, Longitude: lon},
		Category:   models.DefaultCategory,
	}
}

func chennaiStations() []models.StationRecord {
	return []models.StationRecord{
		rec("node/2", "Guindy Police Station", "GST Road", 13.00, 80.20),
		rec("node/1", "T. Nagar Police Station", "Usman Road", 13.09, 80.28),
		rec("node/3", "Women Police Station - Adyar", "LB Road", 13.0067, 80.2573),
	}
}

func TestLocateRanksStations(t *testing.T) {
	t.Parallel()

	finder := &mockStationFinder{results: chennaiStations()}
	c := New(resolvedAt(chennai), finder)

	assert.Equal(t, StatusLocating, c.Snapshot().Status)
	require.NoError(t, c.Locate(context.Background()))

	snap := c.Snapshot()
	assert.Equal(t, StatusReady, snap.Status)
	assert.Equal(t, models.LocationResolved, snap.Location.Kind)
	require.Len(t, snap.Displayed, 3)
	assert.Equal(t, models.StationID("node/1"), snap.Displayed[0].ID)
	for i := 1; i < len(snap.Displayed); i++ {
		assert.LessOrEqual(t, snap.Displayed[i-1].DistanceKm, snap.Displayed[i].DistanceKm)
	}
	require.NotNil(t, snap.Viewport)
	assert.Equal(t, models.ViewportTarget{Center: chennai, Zoom: models.DefaultZoom}, *snap.Viewport)
	assert.Equal(t, []int{5000}, finder.radii)

	require.Len(t, snap.Markers, 4)
	assert.Equal(t, models.MarkerUser, snap.Markers[0].Kind)
	assert.Equal(t, chennai, snap.Markers[0].Coordinate)
}

func TestLocateTimeoutFallsBack(t *testing.T) {
	t.Parallel()

	slow := location.PositionerFunc(func(ctx context.Context, opts location.Options) (location.Position, error) {
		<-ctx.Done()
		return location.Position{}, ctx.Err()
	})
	acquirer := location.NewAcquirer(slow, chennai, 20*time.Millisecond)
	finder := &mockStationFinder{results: chennaiStations()}

	c := New(acquirer, finder)
	require.NoError(t, c.Locate(context.Background()))

	snap := c.Snapshot()
	assert.Equal(t, models.LocationFallback, snap.Location.Kind)
	assert.Equal(t, chennai, snap.Location.Coordinate)
	assert.Equal(t, "timeout", snap.Location.Reason)
	assert.Contains(t, snap.Warning, "timeout")
	assert.Equal(t, []models.GeoCoordinate{chennai}, finder.calls)
	assert.Equal(t, StatusReady, snap.Status)
}

func TestDirectoryFailureShowsNoStations(t *testing.T) {
	t.Parallel()

	// The real finder swallows failures into an empty list; an error from a
	// finder implementation is treated the same way.
	finder := &mockStationFinder{
		findFn: func(ctx context.Context, center models.GeoCoordinate, radius int) ([]models.StationRecord, error) {
			return nil, assert.AnError
		},
	}
	c := New(resolvedAt(chennai), finder)

	require.NoError(t, c.Locate(context.Background()))

	snap := c.Snapshot()
	assert.Equal(t, StatusNoStations, snap.Status)
	assert.NotNil(t, snap.Displayed)
	assert.Empty(t, snap.Displayed)
}

func TestNewQueryResetsSelection(t *testing.T) {
	t.Parallel()

	finder := &mockStationFinder{results: chennaiStations()}
	c := New(resolvedAt(chennai), finder)
	require.NoError(t, c.Locate(context.Background()))

	require.True(t, c.Select("node/3"))
	snap := c.Snapshot()
	require.NotNil(t, snap.SelectedID)
	assert.Equal(t, models.StationID("node/3"), *snap.SelectedID)
	require.NotNil(t, snap.Viewport)
	assert.Equal(t, models.ViewportTarget{Center: adyar, Zoom: models.SelectedZoom}, *snap.Viewport)

	finder.mu.Lock()
	finder.results = []models.StationRecord{rec("node/9", "Egmore Police Station", "Pantheon Road", 13.07, 80.26)}
	finder.mu.Unlock()

	moved := models.GeoCoordinate{Latitude: 13.075, Longitude: 80.262}
	require.NoError(t, c.Relocate(context.Background(), moved))

	snap = c.Snapshot()
	assert.Nil(t, snap.SelectedID)
	require.NotNil(t, snap.Viewport)
	assert.Equal(t, models.ViewportTarget{Center: moved, Zoom: models.DefaultZoom}, *snap.Viewport)
	assert.False(t, c.Select("node/3"))
	assert.Nil(t, c.Snapshot().SelectedID)
}

func TestSetQueryFilters(t *testing.T) {
	t.Parallel()

	finder := &mockStationFinder{results: chennaiStations()}
	c := New(resolvedAt(chennai), finder)
	require.NoError(t, c.Locate(context.Background()))

	c.SetQuery("ADYAR")
	snap := c.Snapshot()
	require.Len(t, snap.Displayed, 1)
	assert.Equal(t, models.StationID("node/3"), snap.Displayed[0].ID)
	assert.Len(t, snap.Stations, 3)
	assert.Equal(t, "ADYAR", snap.Query)

	// The query survives a refresh.
	require.NoError(t, c.Refresh(context.Background()))
	assert.Len(t, c.Snapshot().Displayed, 1)

	c.SetQuery("")
	assert.Len(t, c.Snapshot().Displayed, 3)
}

func TestStaleResultIsDiscarded(t *testing.T) {
	t.Parallel()

	moved := models.GeoCoordinate{Latitude: 12.98, Longitude: 80.22}
	firstStarted := make(chan struct{})
	releaseFirst := make(chan struct{})

	finder := &mockStationFinder{
		findFn: func(ctx context.Context, center models.GeoCoordinate, radius int) ([]models.StationRecord, error) {
			if center == chennai {
				close(firstStarted)
				<-releaseFirst
				return []models.StationRecord{rec("node/old", "Old Result", "", 13.08, 80.27)}, nil
			}
			return []models.StationRecord{rec("node/new", "New Result", "", 12.98, 80.22)}, nil
		},
	}
	c := New(resolvedAt(chennai), finder)

	done := make(chan error, 1)
	go func() { done <- c.Locate(context.Background()) }()

	<-firstStarted
	require.NoError(t, c.Relocate(context.Background(), moved))
	close(releaseFirst)
	require.NoError(t, <-done)

	snap := c.Snapshot()
	require.Len(t, snap.Displayed, 1)
	assert.Equal(t, models.StationID("node/new"), snap.Displayed[0].ID)
	assert.Equal(t, moved, snap.Location.Coordinate)
	assert.Equal(t, StatusReady, snap.Status)
}

func TestCloseDropsLateResults(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	release := make(chan struct{})
	finder := &mockStationFinder{
		findFn: func(ctx context.Context, center models.GeoCoordinate, radius int) ([]models.StationRecord, error) {
			close(started)
			<-release
			return chennaiStations(), nil
		},
	}
	c := New(resolvedAt(chennai), finder)

	done := make(chan error, 1)
	go func() { done <- c.Locate(context.Background()) }()

	<-started
	c.Close()
	close(release)
	assert.ErrorIs(t, <-done, ErrClosed)

	snap := c.Snapshot()
	assert.Equal(t, StatusClosed, snap.Status)
	assert.Empty(t, snap.Displayed)

	assert.ErrorIs(t, c.Locate(context.Background()), ErrClosed)
	assert.ErrorIs(t, c.Refresh(context.Background()), ErrClosed)
	assert.ErrorIs(t, c.Relocate(context.Background(), chennai), ErrClosed)
	assert.False(t, c.Select("node/1"))
	c.SetQuery("guindy")
	assert.Empty(t, c.Snapshot().Query)
	assert.Equal(t, 1, finder.callCount())
}

func TestRefreshBeforeLocate(t *testing.T) {
	t.Parallel()

	finder := &mockStationFinder{results: chennaiStations()}
	c := New(resolvedAt(chennai), finder, WithRadius(2500))

	require.NoError(t, c.Refresh(context.Background()))
	assert.Equal(t, []models.GeoCoordinate{chennai}, finder.calls)
	assert.Equal(t, []int{2500}, finder.radii)
}

func TestSetRadius(t *testing.T) {
	t.Parallel()

	finder := &mockStationFinder{results: chennaiStations()}
	c := New(resolvedAt(chennai), finder)

	assert.False(t, c.SetRadius(0))
	assert.False(t, c.SetRadius(5000))
	assert.True(t, c.SetRadius(8000))
	require.NoError(t, c.Locate(context.Background()))
	assert.Equal(t, []int{8000}, finder.radii)
	assert.Equal(t, 8000, c.Snapshot().RadiusMeters)
}

func TestRelocateRejectsInvalidCoordinate(t *testing.T) {
	t.Parallel()

	c := New(resolvedAt(chennai), &mockStationFinder{})
	err := c.Relocate(context.Background(), models.GeoCoordinate{Latitude: 0, Longitude: 200})

	var coordErr *models.InvalidCoordinateError
	require.ErrorAs(t, err, &coordErr)
	assert.Equal(t, StatusLocating, c.Snapshot().Status)
}

func TestSnapshotGeoJSON(t *testing.T) {
	t.Parallel()

	finder := &mockStationFinder{results: chennaiStations()}
	c := New(resolvedAt(chennai), finder)
	require.NoError(t, c.Locate(context.Background()))
	require.True(t, c.Select("node/1"))

	fc := c.Snapshot().FeatureCollection()
	require.Len(t, fc.Features, 4)
	assert.Equal(t, "user", fc.Features[0].Properties["kind"])

	selected := fc.Features[1]
	assert.Equal(t, "node/1", selected.ID)
	assert.Equal(t, "T. Nagar Police Station", selected.Properties["name"])
	assert.Equal(t, true, selected.Properties["selected"])

	data, err := json.Marshal(fc)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "FeatureCollection", decoded["type"])
	viewport := decoded["viewport"].(map[string]interface{})
	assert.Equal(t, float64(models.SelectedZoom), viewport["zoom"])
	assert.Equal(t, []interface{}{80.28, 13.09}, viewport["center"])
}

func TestPendingSnapshotHasNoViewport(t *testing.T) {
	t.Parallel()

	c := New(resolvedAt(chennai), &mockStationFinder{results: chennaiStations()})
	snap := c.Snapshot()
	assert.Equal(t, StatusLocating, snap.Status)
	assert.Nil(t, snap.Viewport)
	assert.Empty(t, snap.Markers)

	started := make(chan struct{})
	release := make(chan struct{})
	blocking := acquirerFunc(func(ctx context.Context) models.UserLocationState {
		close(started)
		<-release
		return models.ResolvedLocation(adyar, models.SourceClient)
	})
	c = New(blocking, &mockStationFinder{results: chennaiStations()})

	done := make(chan error, 1)
	go func() { done <- c.Locate(context.Background()) }()
	<-started

	snap = c.Snapshot()
	assert.True(t, snap.Location.IsPending())
	assert.Nil(t, snap.Viewport)

	data, err := json.Marshal(snap.FeatureCollection())
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.NotContains(t, decoded, "viewport")
	assert.Equal(t, "locating", decoded["status"])

	close(release)
	require.NoError(t, <-done)

	snap = c.Snapshot()
	require.NotNil(t, snap.Viewport)
	assert.Equal(t, models.ViewportTarget{Center: adyar, Zoom: models.DefaultZoom}, *snap.Viewport)
}
