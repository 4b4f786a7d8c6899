package location

import (
	"context"
	"strings"

	"github.com/copbot/locator/internal/models"
)

// ClientPositioner reports the position the rendering client obtained from
// the browser, or the failure the browser reported instead.
type ClientPositioner struct {
	coordinate *models.GeoCoordinate
	reported   ErrorCode
}

var _ Positioner = (*ClientPositioner)(nil)

// NewClientPositioner takes the coordinate sent by the client (nil when
// absent) and the client's geolocation status ("denied", "timeout",
// "unavailable" or empty).
func NewClientPositioner(coordinate *models.GeoCoordinate, status string) *ClientPositioner {
	return &ClientPositioner{
		coordinate: coordinate,
		reported:   parseStatus(status),
	}
}

func (p *ClientPositioner) CurrentPosition(_ context.Context, _ Options) (Position, error) {
	if p.reported != "" {
		return Position{}, NewPositionError(p.reported, "reported by client", nil)
	}
	if p.coordinate == nil {
		return Position{}, NewPositionError(Unavailable, "no client position", nil)
	}
	return Position{Coordinate: *p.coordinate, Source: models.SourceClient}, nil
}

func parseStatus(status string) ErrorCode {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "", "ok", "granted":
		return ""
	case "denied", "permission_denied":
		return PermissionDenied
	case "timeout":
		return Timeout
	default:
		return Unavailable
	}
}
