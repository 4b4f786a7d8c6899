package station

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/copbot/locator/internal/models"
)

func rankedList() []models.RankedStation {
	names := []struct{ name, address string }{
		{"T. Nagar Police Station", "Usman Road, T. Nagar"},
		{"Guindy Police Station", "GST Road, Guindy"},
		{"Women Police Station - Adyar", "LB Road"},
		{"J2 Police Station", "Sardar Patel Road, ADYAR"},
		{"Mylapore Police Station", "Kutchery Road"},
		{"Besant Nagar Police Station", "Elliot's Beach Road"},
		{"Velachery Police Station", "100 Feet Road"},
		{"Saidapet Police Station", "Anna Salai"},
		{"Kotturpuram Police Station", "near Adyar bridge"},
		{"Egmore Police Station", "Pantheon Road"},
	}

	out := make([]models.RankedStation, len(names))
	for i, n := range names {
		out[i] = models.RankedStation{
			StationRecord: models.StationRecord{
				ID:      models.StationID(fmt.Sprintf("node/%d", i)),
				Name:    n.name,
				Address: n.address,
			},
			DistanceKm: float64(i) * 0.7,
		}
	}
	return out
}

func TestFilterByQuery(t *testing.T) {
	t.Parallel()

	stations := rankedList()
	got := Filter(stations, "Adyar")

	ids := make([]models.StationID, len(got))
	for i, s := range got {
		ids[i] = s.ID
	}
	assert.Equal(t, []models.StationID{"node/2", "node/3", "node/8"}, ids)
	assert.Equal(t, stations[3].DistanceKm, got[1].DistanceKm)
}

func TestFilterIdentityAndIdempotence(t *testing.T) {
	t.Parallel()

	stations := rankedList()

	assert.Equal(t, stations, Filter(stations, ""))
	assert.Equal(t, stations, Filter(stations, "   "))

	for _, q := range []string{"adyar", "ROAD", "police", "nothing matches"} {
		once := Filter(stations, q)
		assert.Equal(t, once, Filter(once, q), q)
	}
}

func TestFilterNoMatches(t *testing.T) {
	t.Parallel()

	got := Filter(rankedList(), "Coimbatore")
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
