package motionplan

import (
	"math/rand"

	"github.com/golang/geo/r2"

	"github.com/viam-labs/rrtstar/spatialmath"
)

// sampler draws goal-biased random targets from a rectangle.
type sampler struct {
	randseed               *rand.Rand
	minX, minY, maxX, maxY float64
}

func newSampler(randseed *rand.Rand, minX, minY, maxX, maxY float64) *sampler {
	return &sampler{randseed: randseed, minX: minX, minY: minY, maxX: maxX, maxY: maxY}
}

// Sample returns goal with probability goalBias and otherwise a uniformly drawn point.
func (s *sampler) Sample(goal r2.Point, goalBias float64) r2.Point {
	if s.randseed.Float64() < goalBias {
		return goal
	}
	return r2.Point{
		X: s.minX + s.randseed.Float64()*(s.maxX-s.minX),
		Y: s.minY + s.randseed.Float64()*(s.maxY-s.minY),
	}
}

// Steer moves from `from` toward `toward` by step. With overshoot set the result is always step
// away from `from`, even past the target; otherwise a target within one step is returned as is.
func Steer(from, toward r2.Point, step float64, overshoot bool) r2.Point {
	if !overshoot && spatialmath.Distance(from, toward) <= step {
		return toward
	}
	return spatialmath.PointAlongBearing(from, spatialmath.Bearing(from, toward), step)
}

// headingConsistent reports whether extending the node at nearest to candidate turns by no more
// than maxChange radians relative to the edge that reached nearest. The root has no incoming edge
// and always passes.
func headingConsistent(tree *Tree, nearest int, candidate r2.Point, maxChange float64) bool {
	parent := tree.Parent(nearest)
	if parent == NoParent {
		return true
	}
	incoming := tree.Position(nearest).Sub(tree.Position(parent))
	outgoing := candidate.Sub(tree.Position(nearest))
	angle, ok := spatialmath.AngleBetween(incoming, outgoing)
	if !ok {
		return true
	}
	return angle <= maxChange
}
