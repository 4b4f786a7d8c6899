package models

type LocationKind string

const (
	LocationPending  LocationKind = "pending"
	LocationResolved LocationKind = "resolved"
	LocationFallback LocationKind = "fallback"
)

type LocationSource string

const (
	SourceClient  LocationSource = "client"
	SourceIP      LocationSource = "ip"
	SourceDefault LocationSource = "default"
)

// UserLocationState is replaced on every acquisition, never mutated.
// Coordinate is only meaningful when Kind is not LocationPending.
type UserLocationState struct {
	Kind       LocationKind   `json:"kind"`
	Coordinate GeoCoordinate  `json:"coordinate"`
	Source     LocationSource `json:"source,omitempty"`
	Reason     string         `json:"reason,omitempty"`
}

func PendingLocation() UserLocationState {
	return UserLocationState{Kind: LocationPending}
}

func ResolvedLocation(c GeoCoordinate, source LocationSource) UserLocationState {
	return UserLocationState{Kind: LocationResolved, Coordinate: c, Source: source}
}

func FallbackLocation(c GeoCoordinate, reason string) UserLocationState {
	return UserLocationState{Kind: LocationFallback, Coordinate: c, Source: SourceDefault, Reason: reason}
}

func (s UserLocationState) IsPending() bool {
	return s.Kind == LocationPending
}
