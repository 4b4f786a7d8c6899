package location

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
)

// ChainPositioner tries each positioner in order and returns the first fix.
// A PermissionDenied failure ends the chain.
type ChainPositioner []Positioner

func (c ChainPositioner) CurrentPosition(ctx context.Context, opts Options) (Position, error) {
	var lastErr error = NewPositionError(Unavailable, "no positioners", nil)
	for _, p := range c {
		if p == nil {
			continue
		}
		pos, err := p.CurrentPosition(ctx, opts)
		if err == nil {
			return pos, nil
		}
		log.Debug().Err(err).Msg("Positioner failed, trying next")
		lastErr = err
		var posErr *PositionError
		if errors.As(err, &posErr) && posErr.Code == PermissionDenied {
			break
		}
		if ctx.Err() != nil {
			break
		}
	}
	return Position{}, lastErr
}
