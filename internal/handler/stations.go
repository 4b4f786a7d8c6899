package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/copbot/locator/internal/api"
	"github.com/copbot/locator/internal/cache"
	"github.com/copbot/locator/internal/location"
	"github.com/copbot/locator/internal/locator"
	"github.com/copbot/locator/internal/models"
	"github.com/copbot/locator/pkg/http/client"
)

type Options struct {
	Finder          models.StationFinder
	IPLookup        client.Interface // nil disables IP positioning
	Fallback        models.GeoCoordinate
	LocationTimeout time.Duration
	DefaultRadius   int
	MaxRadius       int
	Sessions        *cache.SessionCache // nil makes every request stateless
}

type StationsHandler struct {
	opts Options
}

func NewStationsHandler(opts Options) *StationsHandler {
	if opts.DefaultRadius <= 0 {
		opts.DefaultRadius = 5000
	}
	if opts.MaxRadius < opts.DefaultRadius {
		opts.MaxRadius = opts.DefaultRadius
	}
	return &StationsHandler{opts: opts}
}

// HandleRequest serves the locator view. Query parameters:
// lat, lon, geo (client geolocation status), radius, q (search), selected,
// refresh, session and format=geojson. DELETE ends a session.
func (h *StationsHandler) HandleRequest(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	params := request.QueryStringParameters
	if params == nil {
		params = map[string]string{}
	}

	if request.HTTPMethod == http.MethodDelete {
		if h.opts.Sessions != nil && params["session"] != "" {
			h.opts.Sessions.Remove(params["session"])
		}
		return api.NoContent()
	}

	coord, err := api.ParseCoordinates(params)
	if err != nil {
		var invalidCoordErr api.InvalidCoordinatesError
		if errors.As(err, &invalidCoordErr) {
			return api.Error(err.Error(), http.StatusBadRequest)
		}
		return api.Error("Invalid parameters", http.StatusBadRequest)
	}

	radius, radiusGiven, err := api.ParseRadius(params, h.opts.DefaultRadius, h.opts.MaxRadius)
	if err != nil {
		return api.Error(err.Error(), http.StatusBadRequest)
	}

	sessionID, ctrl, isNew := h.controllerFor(params["session"], request, coord, radius)

	switch {
	case isNew:
		err = ctrl.Locate(ctx)
	case coord != nil && *coord != ctrl.Snapshot().Location.Coordinate:
		if radiusGiven {
			ctrl.SetRadius(radius)
		}
		err = ctrl.Relocate(ctx, *coord)
	default:
		changed := radiusGiven && ctrl.SetRadius(radius)
		if changed || params["refresh"] == "true" {
			err = ctrl.Refresh(ctx)
		}
	}
	if errors.Is(err, locator.ErrClosed) {
		return api.Error("Session closed", http.StatusGone)
	}
	if err != nil {
		log.Error().Err(err).Msg("Locator update failed")
		return api.Error("Error finding stations", http.StatusInternalServerError)
	}

	ctrl.SetQuery(params["q"])
	if selected, ok := params["selected"]; ok {
		if strings.TrimSpace(selected) == "" {
			ctrl.ClearSelection()
		} else {
			ctrl.Select(models.StationID(selected))
		}
	}

	snap := ctrl.Snapshot()
	if h.opts.Sessions == nil {
		ctrl.Close()
	}

	if params["format"] == "geojson" {
		return api.GeoJSON(snap.FeatureCollection())
	}
	return api.Success(api.NewLocatorResponse(sessionID, snap))
}

// Close ends every live session. Results still in flight for them are
// dropped.
func (h *StationsHandler) Close() {
	if h.opts.Sessions != nil {
		h.opts.Sessions.Clear()
	}
}

func (h *StationsHandler) controllerFor(sessionID string, request events.APIGatewayProxyRequest, coord *models.GeoCoordinate, radius int) (string, *locator.Controller, bool) {
	if h.opts.Sessions != nil && sessionID != "" {
		if ctrl, ok := h.opts.Sessions.Get(sessionID); ok {
			return sessionID, ctrl, false
		}
	}

	positioners := location.ChainPositioner{location.NewClientPositioner(coord, request.QueryStringParameters["geo"])}
	if h.opts.IPLookup != nil {
		positioners = append(positioners, location.NewIPPositioner(h.opts.IPLookup, request.RequestContext.Identity.SourceIP))
	}
	acquirer := location.NewAcquirer(positioners, h.opts.Fallback, h.opts.LocationTimeout)
	ctrl := locator.New(acquirer, h.opts.Finder, locator.WithRadius(radius))

	if h.opts.Sessions == nil {
		return "", ctrl, true
	}
	// Unknown or expired IDs are replaced rather than adopted.
	sessionID = uuid.NewString()
	h.opts.Sessions.Add(sessionID, ctrl)
	return sessionID, ctrl, true
}
