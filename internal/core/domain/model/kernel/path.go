package kernel

import (
	"fmt"
	"iter"

	"partnerdispatch/internal/pkg/errs"
)

// Path is an ordered, immutable list of route points. The zero value is the
// empty path, which means "no route yet".
type Path struct {
	points []GeoPoint
}

// NewPath copies points so later changes to the caller's slice do not leak in.
func NewPath(points []GeoPoint) (Path, error) {
	copied := make([]GeoPoint, len(points))
	for i, p := range points {
		if err := p.Validate(); err != nil {
			return Path{}, errs.NewValueIsInvalidErrorWithCause(fmt.Sprintf("path point %d", i), err)
		}
		copied[i] = p
	}
	return Path{points: copied}, nil
}

func (p Path) Len() int {
	return len(p.points)
}

func (p Path) IsEmpty() bool {
	return len(p.points) == 0
}

// At panics when i is out of range, like a slice index.
func (p Path) At(i int) GeoPoint {
	return p.points[i]
}

// Points returns a copy of the underlying points.
func (p Path) Points() []GeoPoint {
	out := make([]GeoPoint, len(p.points))
	copy(out, p.points)
	return out
}

// All yields index and point in order.
func (p Path) All() iter.Seq2[int, GeoPoint] {
	return func(yield func(int, GeoPoint) bool) {
		for i, pt := range p.points {
			if !yield(i, pt) {
				return
			}
		}
	}
}

func (p Path) IsEqual(other Path) bool {
	if len(p.points) != len(other.points) {
		return false
	}
	for i := range p.points {
		if !p.points[i].IsEqual(other.points[i]) {
			return false
		}
	}
	return true
}
