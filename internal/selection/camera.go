package selection

import (
	"github.com/copbot/locator/internal/models"
)

// Synchronizer tracks the selected station and derives where the map camera
// should point. It holds no reference to the map itself.
type Synchronizer struct {
	reference models.GeoCoordinate
	stations  map[models.StationID]models.GeoCoordinate
	selected  models.StationID
	hasPick   bool
}

func NewSynchronizer(reference models.GeoCoordinate) *Synchronizer {
	return &Synchronizer{
		reference: reference,
		stations:  map[models.StationID]models.GeoCoordinate{},
	}
}

// SetStations replaces the selectable list after a new directory query and
// clears any selection.
func (s *Synchronizer) SetStations(reference models.GeoCoordinate, stations []models.RankedStation) {
	s.reference = reference
	s.stations = make(map[models.StationID]models.GeoCoordinate, len(stations))
	for _, st := range stations {
		s.stations[st.ID] = st.Coordinate
	}
	s.ClearSelection()
}

// Select moves to the given station. Ids not in the current list are ignored
// and false is returned.
func (s *Synchronizer) Select(id models.StationID) bool {
	if _, ok := s.stations[id]; !ok {
		return false
	}
	s.selected = id
	s.hasPick = true
	return true
}

func (s *Synchronizer) ClearSelection() {
	s.selected = ""
	s.hasPick = false
}

func (s *Synchronizer) Selected() (models.StationID, bool) {
	return s.selected, s.hasPick
}

// Viewport derives the camera target from the current selection.
func (s *Synchronizer) Viewport() models.ViewportTarget {
	if s.hasPick {
		if coord, ok := s.stations[s.selected]; ok {
			return models.ViewportTarget{Center: coord, Zoom: models.SelectedZoom}
		}
	}
	return models.ViewportTarget{Center: s.reference, Zoom: models.DefaultZoom}
}
