package station

import (
	"sort"

	"github.com/copbot/locator/internal/geo"
	"github.com/copbot/locator/internal/models"
)

// Rank returns a new slice of stations ordered by distance from reference.
// Stations at equal distance keep their input order.
func Rank(stations []models.StationRecord, reference models.GeoCoordinate) []models.RankedStation {
	ranked := make([]models.RankedStation, len(stations))
	for i, s := range stations {
		ranked[i] = models.RankedStation{
			StationRecord: s,
			DistanceKm:    geo.DistanceKm(reference, s.Coordinate),
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].DistanceKm < ranked[j].DistanceKm
	})

	return ranked
}
