package routing

import (
	"context"

	"partnerdispatch/internal/core/domain/model/kernel"
)

const minSteps = 2

// StraightLine interpolates a route of steps evenly spaced points between
// pickup and drop. It never fails.
type StraightLine struct {
	steps int
}

func NewStraightLine(steps int) StraightLine {
	return StraightLine{steps: max(steps, minSteps)}
}

func (s StraightLine) ComputeRoute(_ context.Context, pickup, drop kernel.GeoPoint) (kernel.Path, error) {
	points := make([]kernel.GeoPoint, 0, s.steps)
	for i := range s.steps {
		points = append(points, pickup.Interpolate(drop, float64(i)/float64(s.steps-1)))
	}
	return kernel.NewPath(points)
}
