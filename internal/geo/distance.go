package geo

import (
	"fmt"
	"math"
	"net/url"

	"github.com/copbot/locator/internal/models"
)

const EarthRadiusKm = 6371.0

// DistanceKm returns the haversine great-circle distance between a and b.
func DistanceKm(a, b models.GeoCoordinate) float64 {
	dLat := toRadians(b.Latitude - a.Latitude)
	dLon := toRadians(b.Longitude - a.Longitude)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(a.Latitude))*math.Cos(toRadians(b.Latitude))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	h = math.Min(1, math.Max(0, h)) // rounding near antipodes
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusKm * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// DirectionsURL builds a navigation deep link that opens turn-by-turn
// directions to dest in the user's maps application.
func DirectionsURL(dest models.GeoCoordinate) string {
	q := url.Values{}
	q.Set("api", "1")
	q.Set("destination", fmt.Sprintf("%.6f,%.6f", dest.Latitude, dest.Longitude))
	return "https://www.google.com/maps/dir/?" + q.Encode()
}
