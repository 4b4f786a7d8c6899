package models

const (
	DefaultZoom  = 13
	SelectedZoom = 16
)

type ViewportTarget struct {
	Center GeoCoordinate `json:"center"`
	Zoom   int           `json:"zoom"`
}

type MarkerKind string

const (
	MarkerUser    MarkerKind = "user"
	MarkerStation MarkerKind = "station"
)

type Marker struct {
	ID         StationID     `json:"id,omitempty"`
	Coordinate GeoCoordinate `json:"coordinate"`
	Kind       MarkerKind    `json:"kind"`
	Selected   bool          `json:"selected,omitempty"`
}
