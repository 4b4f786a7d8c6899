package locator

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/copbot/locator/internal/models"
)

// Snapshot is the state the rendering layer draws from.
type Snapshot struct {
	Location     models.UserLocationState `json:"location"`
	Status       Status                   `json:"status"`
	Warning      string                   `json:"warning,omitempty"`
	Query        string                   `json:"query"`
	RadiusMeters int                      `json:"radiusMeters"`
	Stations     []models.RankedStation   `json:"-"`
	Displayed    []models.RankedStation   `json:"stations"`
	SelectedID   *models.StationID        `json:"selectedId,omitempty"`
	Viewport     *models.ViewportTarget   `json:"viewport,omitempty"`
	Markers      []models.Marker          `json:"markers"`
}

func buildMarkers(s Snapshot) []models.Marker {
	markers := make([]models.Marker, 0, len(s.Displayed)+1)
	if !s.Location.IsPending() {
		markers = append(markers, models.Marker{
			Coordinate: s.Location.Coordinate,
			Kind:       models.MarkerUser,
		})
	}
	for _, st := range s.Displayed {
		markers = append(markers, models.Marker{
			ID:         st.ID,
			Coordinate: st.Coordinate,
			Kind:       models.MarkerStation,
			Selected:   s.SelectedID != nil && *s.SelectedID == st.ID,
		})
	}
	return markers
}

// FeatureCollection renders the markers as GeoJSON for map surfaces that
// consume it directly. The viewport travels as a foreign member.
func (s Snapshot) FeatureCollection() *geojson.FeatureCollection {
	byID := make(map[models.StationID]models.RankedStation, len(s.Displayed))
	for _, st := range s.Displayed {
		byID[st.ID] = st
	}

	fc := geojson.NewFeatureCollection()
	for _, m := range s.Markers {
		f := geojson.NewFeature(orb.Point{m.Coordinate.Longitude, m.Coordinate.Latitude})
		f.Properties["kind"] = string(m.Kind)
		if m.Kind == models.MarkerStation {
			st := byID[m.ID]
			f.ID = string(m.ID)
			f.Properties["name"] = st.Name
			f.Properties["address"] = st.Address
			f.Properties["category"] = st.Category
			f.Properties["distanceKm"] = st.DistanceKm
			f.Properties["selected"] = m.Selected
			if st.Phone != nil {
				f.Properties["phone"] = *st.Phone
			}
		}
		fc.Append(f)
	}

	fc.ExtraMembers = geojson.Properties{
		"status": string(s.Status),
	}
	if s.Viewport != nil {
		fc.ExtraMembers["viewport"] = map[string]interface{}{
			"center": []float64{s.Viewport.Center.Longitude, s.Viewport.Center.Latitude},
			"zoom":   s.Viewport.Zoom,
		}
	}
	return fc
}
