package location

import (
	"context"
	"fmt"
	"time"

	"github.com/copbot/locator/internal/models"
)

// Options mirror what a browser geolocation request carries.
type Options struct {
	HighAccuracy bool
	Timeout      time.Duration
}

// Position is a fix together with where it came from.
type Position struct {
	Coordinate models.GeoCoordinate
	Source     models.LocationSource
}

type Positioner interface {
	CurrentPosition(ctx context.Context, opts Options) (Position, error)
}

type ErrorCode string

const (
	PermissionDenied ErrorCode = "permission_denied"
	Timeout          ErrorCode = "timeout"
	Unavailable      ErrorCode = "unavailable"
)

// PositionError is the failure a Positioner reports.
type PositionError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *PositionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("position %s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("position %s: %s", e.Code, e.Message)
}

func (e *PositionError) Unwrap() error {
	return e.Err
}

func NewPositionError(code ErrorCode, message string, err error) *PositionError {
	return &PositionError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// PositionerFunc adapts a function to the Positioner interface.
type PositionerFunc func(ctx context.Context, opts Options) (Position, error)

func (f PositionerFunc) CurrentPosition(ctx context.Context, opts Options) (Position, error) {
	return f(ctx, opts)
}
