package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/paulmach/orb/geojson"

	"github.com/copbot/locator/internal/geo"
	"github.com/copbot/locator/internal/locator"
	"github.com/copbot/locator/internal/models"
)

type APIResponse struct {
	ResponseType string `json:"responseType"`
}

// StationView is a ranked station as the list pane renders it.
type StationView struct {
	models.RankedStation
	DirectionsURL string `json:"directionsUrl"`
}

type LocatorResponse struct {
	APIResponse
	SessionID    string                   `json:"sessionId,omitempty"`
	Status       locator.Status           `json:"status"`
	Location     models.UserLocationState `json:"location"`
	Warning      string                   `json:"warning,omitempty"`
	Query        string                   `json:"query"`
	RadiusMeters int                      `json:"radiusMeters"`
	TotalCount   int                      `json:"totalCount"`
	Stations     []StationView            `json:"stations"`
	SelectedID   *models.StationID        `json:"selectedId,omitempty"`
	Viewport     *models.ViewportTarget   `json:"viewport,omitempty"`
	Markers      []models.Marker          `json:"markers"`
}

type ErrorResponse struct {
	APIResponse
	Error string `json:"error"`
}

func NewLocatorResponse(sessionID string, snap locator.Snapshot) *LocatorResponse {
	views := make([]StationView, len(snap.Displayed))
	for i, s := range snap.Displayed {
		views[i] = StationView{
			RankedStation: s,
			DirectionsURL: geo.DirectionsURL(s.Coordinate),
		}
	}

	return &LocatorResponse{
		APIResponse:  APIResponse{ResponseType: "stations"},
		SessionID:    sessionID,
		Status:       snap.Status,
		Location:     snap.Location,
		Warning:      snap.Warning,
		Query:        snap.Query,
		RadiusMeters: snap.RadiusMeters,
		TotalCount:   len(snap.Stations),
		Stations:     views,
		SelectedID:   snap.SelectedID,
		Viewport:     snap.Viewport,
		Markers:      snap.Markers,
	}
}

func NewErrorResponse(message string) *ErrorResponse {
	return &ErrorResponse{
		APIResponse: APIResponse{ResponseType: "error"},
		Error:       message,
	}
}

// Response helpers
func Success(body interface{}) (events.APIGatewayProxyResponse, error) {
	return respond(body, "application/json")
}

func GeoJSON(fc *geojson.FeatureCollection) (events.APIGatewayProxyResponse, error) {
	return respond(fc, "application/geo+json")
}

func NoContent() (events.APIGatewayProxyResponse, error) {
	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusNoContent,
		Headers: map[string]string{
			"Access-Control-Allow-Origin": "*",
		},
	}, nil
}

func respond(body interface{}, contentType string) (events.APIGatewayProxyResponse, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return Error("Internal Server Error", http.StatusInternalServerError)
	}

	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers: map[string]string{
			"Content-Type":                contentType,
			"Access-Control-Allow-Origin": "*",
		},
		Body: string(jsonBody),
	}, nil
}

func Error(message string, statusCode int) (events.APIGatewayProxyResponse, error) {
	body, _ := json.Marshal(NewErrorResponse(message))

	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Headers: map[string]string{
			"Content-Type":                "application/json",
			"Access-Control-Allow-Origin": "*",
		},
		Body: string(body),
	}, nil
}

// Parameter parsing helpers

// ParseCoordinates returns nil when the request carries no position.
func ParseCoordinates(params map[string]string) (*models.GeoCoordinate, error) {
	latStr, hasLat := params["lat"]
	lonStr, hasLon := params["lon"]

	if !hasLat && !hasLon {
		return nil, nil
	}
	if !hasLat || !hasLon {
		return nil, InvalidCoordinatesError{}
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil, err
	}

	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return nil, err
	}

	coord, err := models.NewGeoCoordinate(lat, lon)
	if err != nil {
		return nil, InvalidCoordinatesError{}
	}

	return &coord, nil
}

const MinRadiusMeters = 100

// ParseRadius reads the radius parameter, returning defaultValue when it is
// absent. Values outside [MinRadiusMeters, max] are rejected.
func ParseRadius(params map[string]string, defaultValue, max int) (int, bool, error) {
	raw, ok := params["radius"]
	if !ok || strings.TrimSpace(raw) == "" {
		return defaultValue, false, nil
	}

	radius, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, false, InvalidRadiusError{}
	}
	if radius < MinRadiusMeters || radius > max {
		return 0, false, InvalidRadiusError{}
	}
	return radius, true, nil
}

type InvalidCoordinatesError struct{}

func (e InvalidCoordinatesError) Error() string {
	return "Invalid coordinates"
}

type InvalidRadiusError struct{}

func (e InvalidRadiusError) Error() string {
	return "Invalid radius"
}
