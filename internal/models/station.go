package models

const (
	DefaultStationName    = "Police Station"
	DefaultStationAddress = "Address not available"
	DefaultCategory       = "police"
)

// StationID is unique within a single directory result.
type StationID string

type StationRecord struct {
	ID         StationID     `json:"id"`
	Name       string        `json:"name"`
	Address    string        `json:"address"`
	Phone      *string       `json:"phone,omitempty"`
	Coordinate GeoCoordinate `json:"coordinate"`
	Category   string        `json:"category"`
}

// RankedStation is a StationRecord with its distance from the reference
// coordinate the list was ranked against.
type RankedStation struct {
	StationRecord
	DistanceKm float64 `json:"distanceKm"`
}
