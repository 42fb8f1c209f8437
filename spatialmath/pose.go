// Package spatialmath defines the planar geometry used by the planner: points, poses, distances
// and angles. Positions are github.com/golang/geo/r2 points in world-frame meters.
package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"
)

// Pose is a planar pose: a position in meters and a heading in radians measured from +X.
type Pose struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Theta float64 `json:"theta"`
}

// NewPose returns a pose at (x, y) with heading theta.
func NewPose(x, y, theta float64) Pose {
	return Pose{X: x, Y: y, Theta: theta}
}

// NewPoseFromPoint returns a pose at the given point with a zero heading.
func NewPoseFromPoint(pt r2.Point) Pose {
	return Pose{X: pt.X, Y: pt.Y}
}

// Point returns the position of the pose.
func (p Pose) Point() r2.Point {
	return r2.Point{X: p.X, Y: p.Y}
}

// WithPoint returns a copy of the pose moved to the given point, keeping its heading.
func (p Pose) WithPoint(pt r2.Point) Pose {
	p.X, p.Y = pt.X, pt.Y
	return p
}

func (p Pose) String() string {
	return fmt.Sprintf("{X:%.4f Y:%.4f Theta:%.4f}", p.X, p.Y, p.Theta)
}

// PoseAlmostEqual returns whether two poses have almost identical positions and headings.
func PoseAlmostEqual(a, b Pose) bool {
	const epsilon = 1e-8
	return R2PointAlmostEqual(a.Point(), b.Point(), epsilon) &&
		math.Abs(NormalizeAngle(a.Theta-b.Theta)) <= epsilon
}
