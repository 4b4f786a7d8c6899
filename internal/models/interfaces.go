package models

import "context"

type StationFinder interface {
	FindNearbyStations(ctx context.Context, center GeoCoordinate, radiusMeters int) ([]StationRecord, error)
}
