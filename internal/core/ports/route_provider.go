package ports

import (
	"context"

	"partnerdispatch/internal/core/domain/model/kernel"
)

// RouteProvider computes the driving path between two points. The path starts
// at pickup and ends at drop. Failures are reported as errs.ErrRouteUnavailable.
type RouteProvider interface {
	ComputeRoute(ctx context.Context, pickup, drop kernel.GeoPoint) (kernel.Path, error)
}
