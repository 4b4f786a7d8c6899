package location

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"

	"github.com/copbot/locator/internal/models"
	"github.com/copbot/locator/pkg/http/client"
)

// IPPositioner looks up a coarse, city-level position for an IP address
// against an ip-api.com compatible endpoint.
type IPPositioner struct {
	httpClient client.Interface
	ip         string
}

var _ Positioner = (*IPPositioner)(nil)

type ipAPIResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	City    string  `json:"city"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

func NewIPPositioner(httpClient client.Interface, ip string) *IPPositioner {
	return &IPPositioner{
		httpClient: httpClient,
		ip:         ip,
	}
}

func (p *IPPositioner) CurrentPosition(ctx context.Context, _ Options) (Position, error) {
	parsed := net.ParseIP(p.ip)
	if parsed == nil || parsed.IsLoopback() || parsed.IsPrivate() || parsed.IsUnspecified() {
		return Position{}, NewPositionError(Unavailable, fmt.Sprintf("no public address %q", p.ip), nil)
	}

	resp, err := p.httpClient.Get(ctx, "/json/"+url.PathEscape(parsed.String())+"?fields=status,message,city,lat,lon")
	if err != nil {
		if ctx.Err() != nil {
			return Position{}, NewPositionError(Timeout, "ip lookup", err)
		}
		return Position{}, NewPositionError(Unavailable, "ip lookup", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Position{}, NewPositionError(Unavailable, fmt.Sprintf("ip lookup status %d", resp.StatusCode), nil)
	}

	var decoded ipAPIResponse
	if err := json.Unmarshal(resp.Body, &decoded); err != nil {
		return Position{}, NewPositionError(Unavailable, "decoding ip lookup", err)
	}
	if decoded.Status != "success" {
		return Position{}, NewPositionError(Unavailable, "ip lookup failed: "+decoded.Message, nil)
	}

	coord, err := models.NewGeoCoordinate(decoded.Lat, decoded.Lon)
	if err != nil {
		return Position{}, NewPositionError(Unavailable, "ip lookup", err)
	}
	return Position{Coordinate: coord, Source: models.SourceIP}, nil
}
