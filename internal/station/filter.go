package station

import (
	"strings"

	"github.com/copbot/locator/internal/models"
)

// Filter keeps the stations whose name or address contains query, ignoring
// case. An empty query returns stations as is.
func Filter(stations []models.RankedStation, query string) []models.RankedStation {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return stations
	}

	out := make([]models.RankedStation, 0, len(stations))
	for _, s := range stations {
		if strings.Contains(strings.ToLower(s.Name), needle) || strings.Contains(strings.ToLower(s.Address), needle) {
			out = append(out, s)
		}
	}
	return out
}
