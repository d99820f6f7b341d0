// Package cache keeps recent simulator frames for the read side of the API.
package cache

import (
	"context"
	"errors"

	"github.com/digital-egiz/sensorhub/internal/simulator"
)

// ErrEmpty is returned when no frame has been cached yet
var ErrEmpty = errors.New("no frame cached")

// FrameCache stores recent frames. It is fed as a simulator sink.
type FrameCache interface {
	simulator.Sink
	Latest(ctx context.Context) (*simulator.Frame, error)
	Recent(ctx context.Context, limit int) ([]*simulator.Frame, error)
}
