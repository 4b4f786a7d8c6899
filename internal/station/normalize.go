package station

import (
	"fmt"
	"strings"

	"github.com/nyaruka/phonenumbers"

	"github.com/copbot/locator/internal/models"
)

const defaultPhoneRegion = "IN"

type overpassResponse struct {
	Elements []overpassElement `json:"elements"`
}

type overpassElement struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    *float64          `json:"lat"`
	Lon    *float64          `json:"lon"`
	Center *overpassCenter   `json:"center"`
	Tags   map[string]string `json:"tags"`
}

type overpassCenter struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

// normalize converts raw elements into station records, dropping every
// element whose coordinate cannot be resolved.
func (f *OverpassFinder) normalize(elements []overpassElement) []models.StationRecord {
	stations := make([]models.StationRecord, 0, len(elements))
	seen := make(map[models.StationID]struct{}, len(elements))

	for _, e := range elements {
		coord, ok := e.coordinate()
		if !ok {
			continue
		}

		id := models.StationID(fmt.Sprintf("%s/%d", elementType(e.Type), e.ID))
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		stations = append(stations, models.StationRecord{
			ID:         id,
			Name:       stationName(e.Tags),
			Address:    stationAddress(e.Tags),
			Phone:      f.stationPhone(e.Tags),
			Coordinate: coord,
			Category:   stationCategory(e.Tags),
		})
	}

	return stations
}

func (e overpassElement) coordinate() (models.GeoCoordinate, bool) {
	var lat, lon *float64
	switch {
	case e.Lat != nil && e.Lon != nil:
		lat, lon = e.Lat, e.Lon
	case e.Center != nil && e.Center.Lat != nil && e.Center.Lon != nil:
		lat, lon = e.Center.Lat, e.Center.Lon
	default:
		return models.GeoCoordinate{}, false
	}

	coord, err := models.NewGeoCoordinate(*lat, *lon)
	if err != nil {
		return models.GeoCoordinate{}, false
	}
	return coord, true
}

func elementType(t string) string {
	if t == "" {
		return "node"
	}
	return t
}

func stationName(tags map[string]string) string {
	return firstTag(tags, models.DefaultStationName, "name", "name:en", "official_name")
}

func stationAddress(tags map[string]string) string {
	if full := strings.TrimSpace(tags["addr:full"]); full != "" {
		return full
	}

	var parts []string
	street := strings.TrimSpace(strings.Join(nonEmpty(tags["addr:housenumber"], tags["addr:street"]), " "))
	if street != "" {
		parts = append(parts, street)
	}
	parts = append(parts, nonEmpty(tags["addr:suburb"], tags["addr:city"], tags["addr:postcode"])...)

	if len(parts) == 0 {
		return models.DefaultStationAddress
	}
	return strings.Join(parts, ", ")
}

func stationCategory(tags map[string]string) string {
	return firstTag(tags, models.DefaultCategory, "police", "police:type")
}

func (f *OverpassFinder) stationPhone(tags map[string]string) *string {
	raw := firstTag(tags, "", "phone", "contact:phone")
	if raw == "" {
		return nil
	}
	// OSM allows several numbers separated by semicolons; keep the first.
	if i := strings.IndexByte(raw, ';'); i >= 0 {
		raw = strings.TrimSpace(raw[:i])
	}
	phone := normalizePhone(raw, f.phoneRegion)
	return &phone
}

// normalizePhone formats a phone number to E.164. If parsing fails it
// returns the trimmed input.
func normalizePhone(input, region string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := phonenumbers.Parse(trimmed, region)
	if err != nil {
		return trimmed
	}
	if !phonenumbers.IsValidNumber(number) {
		return trimmed
	}
	return phonenumbers.Format(number, phonenumbers.E164)
}

func firstTag(tags map[string]string, fallback string, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(tags[k]); v != "" {
			return v
		}
	}
	return fallback
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
