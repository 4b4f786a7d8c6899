package location

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/copbot/locator/internal/models"
)

const DefaultTimeout = 10 * time.Second

// Acquirer resolves the user's position once per call and falls back to a
// fixed coordinate when positioning fails for any reason.
type Acquirer struct {
	positioner Positioner
	fallback   models.GeoCoordinate
	timeout    time.Duration
}

func NewAcquirer(positioner Positioner, fallback models.GeoCoordinate, timeout time.Duration) *Acquirer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Acquirer{
		positioner: positioner,
		fallback:   fallback,
		timeout:    timeout,
	}
}

type positionResult struct {
	pos Position
	err error
}

// Acquire never fails: every error path yields a Fallback state.
func (a *Acquirer) Acquire(ctx context.Context) models.UserLocationState {
	if a.positioner == nil {
		return a.fallbackState(string(Unavailable), nil)
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	done := make(chan positionResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- positionResult{err: NewPositionError(Unavailable, "positioner panicked", nil)}
			}
		}()
		pos, err := a.positioner.CurrentPosition(ctx, Options{HighAccuracy: true, Timeout: a.timeout})
		done <- positionResult{pos: pos, err: err}
	}()

	var res positionResult
	select {
	case res = <-done:
	case <-ctx.Done():
		res = positionResult{err: ctx.Err()}
	}

	if res.err != nil {
		return a.fallbackState(reasonFor(res.err), res.err)
	}
	if err := res.pos.Coordinate.Validate(); err != nil {
		return a.fallbackState(string(Unavailable), err)
	}

	source := res.pos.Source
	if source == "" {
		source = models.SourceClient
	}
	log.Debug().
		Str("coordinate", res.pos.Coordinate.String()).
		Str("source", string(source)).
		Msg("Location resolved")
	return models.ResolvedLocation(res.pos.Coordinate, source)
}

func (a *Acquirer) fallbackState(reason string, err error) models.UserLocationState {
	log.Warn().
		Err(err).
		Str("reason", reason).
		Str("fallback", a.fallback.String()).
		Msg("Location unavailable, using fallback coordinate")
	return models.FallbackLocation(a.fallback, reason)
}

func reasonFor(err error) string {
	var posErr *PositionError
	switch {
	case errors.As(err, &posErr):
		return string(posErr.Code)
	case errors.Is(err, context.DeadlineExceeded):
		return string(Timeout)
	default:
		return string(Unavailable)
	}
}
